// Package workflow provides the core of a workflow orchestration engine: a
// composer that turns a declared workflow spec into an executable graph, and
// a conductor that drives that graph to completion from a stream of
// externally generated action-execution events.
package workflow

// Status is a task or workflow lifecycle state. The empty zero value is not
// a recognized status; StatusUnset is the explicit "unset" value.
type Status string

// The full status lattice shared by tasks and workflows.
const (
	StatusRequested Status = "requested"
	StatusScheduled Status = "scheduled"
	StatusDelayed   Status = "delayed"
	StatusRunning   Status = "running"
	StatusPausing   Status = "pausing"
	StatusPaused    Status = "paused"
	StatusResuming  Status = "resuming"
	StatusCanceling Status = "canceling"
	StatusCanceled  Status = "canceled"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusAbandoned Status = "abandoned"
	StatusUnset     Status = "unset"
)

// allStatuses is the full set, used by IsValid{Task,Workflow}Status.
var allStatuses = map[Status]bool{
	StatusRequested: true,
	StatusScheduled: true,
	StatusDelayed:   true,
	StatusRunning:   true,
	StatusPausing:   true,
	StatusPaused:    true,
	StatusResuming:  true,
	StatusCanceling: true,
	StatusCanceled:  true,
	StatusSucceeded: true,
	StatusFailed:    true,
	StatusExpired:   true,
	StatusAbandoned: true,
	StatusUnset:     true,
}

// AbendedStatuses is the set {failed, expired, abandoned}.
var AbendedStatuses = []Status{StatusFailed, StatusExpired, StatusAbandoned}

// CompletedStatuses is the set {succeeded} ∪ AbendedStatuses ∪ {canceled}.
var CompletedStatuses = []Status{
	StatusSucceeded, StatusFailed, StatusExpired, StatusAbandoned, StatusCanceled,
}

// ActiveStatuses is the set {running, pausing, canceling, resuming}.
var ActiveStatuses = []Status{StatusRunning, StatusPausing, StatusCanceling, StatusResuming}

// IsAbended reports whether s is in AbendedStatuses.
func IsAbended(s Status) bool { return statusIn(s, AbendedStatuses) }

// IsCompleted reports whether s is in CompletedStatuses.
func IsCompleted(s Status) bool { return statusIn(s, CompletedStatuses) }

// IsActive reports whether s is in ActiveStatuses.
func IsActive(s Status) bool { return statusIn(s, ActiveStatuses) }

func statusIn(s Status, set []Status) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// IsValidTaskStatus reports whether s is a recognized status value.
func IsValidTaskStatus(s Status) bool { return allStatuses[s] }

// IsValidWorkflowStatus reports whether s is a recognized status value.
// Workflows and tasks share the same lattice; PAUSED/RESUMING etc apply to
// both, though a given engine may choose to never emit some of them for one
// side (e.g. tasks never reach PAUSED directly, see taskTransitions).
func IsValidWorkflowStatus(s Status) bool { return allStatuses[s] }

// taskTransitions is the adjacency list of the task status transition matrix:
// from -> allowed next statuses. REQUESTED -> SCHEDULED -> RUNNING -> terminal,
// with cancellation intercepts at any active status.
var taskTransitions = map[Status][]Status{
	StatusUnset:     {StatusRequested},
	StatusRequested: {StatusScheduled, StatusDelayed, StatusCanceled},
	StatusDelayed:   {StatusScheduled, StatusRequested, StatusCanceled},
	StatusScheduled: {StatusRunning, StatusDelayed, StatusCanceling, StatusCanceled},
	StatusRunning: {
		StatusSucceeded, StatusFailed, StatusExpired, StatusAbandoned,
		StatusCanceling, StatusCanceled, StatusPausing,
	},
	StatusPausing: {StatusPaused, StatusCanceling, StatusSucceeded, StatusFailed, StatusExpired, StatusAbandoned},
	StatusPaused:  {StatusResuming, StatusCanceling, StatusCanceled},
	StatusResuming: {
		StatusRunning, StatusScheduled, StatusCanceling,
	},
	StatusCanceling: {StatusCanceled, StatusSucceeded, StatusFailed, StatusExpired, StatusAbandoned},
	StatusCanceled:  {},
	StatusSucceeded: {},
	StatusFailed:    {},
	StatusExpired:   {},
	StatusAbandoned: {},
}

// workflowTransitions mirrors taskTransitions for workflow-level status,
// per spec.md §4.4's state machine diagram.
var workflowTransitions = map[Status][]Status{
	StatusUnset:     {StatusRunning},
	StatusRunning:   {StatusSucceeded, StatusFailed, StatusPausing, StatusCanceling, StatusExpired, StatusAbandoned},
	StatusPausing:   {StatusPaused, StatusCanceling, StatusSucceeded, StatusFailed},
	StatusPaused:    {StatusResuming, StatusCanceling, StatusCanceled},
	StatusResuming:  {StatusRunning, StatusCanceling},
	StatusCanceling: {StatusCanceled, StatusSucceeded, StatusFailed},
	StatusCanceled:  {},
	StatusSucceeded: {},
	StatusFailed:    {},
	StatusExpired:   {},
	StatusAbandoned: {},
}

// IsValidTaskStatusTransition reports whether a task may move from -> to.
// A status transitioning to itself is always permitted (idempotent resend).
func IsValidTaskStatusTransition(from, to Status) bool {
	return isValidTransition(taskTransitions, from, to)
}

// IsValidWorkflowStatusTransition reports whether a workflow may move from -> to.
func IsValidWorkflowStatusTransition(from, to Status) bool {
	return isValidTransition(workflowTransitions, from, to)
}

func isValidTransition(table map[Status][]Status, from, to Status) bool {
	if from == to {
		return true
	}
	nexts, ok := table[from]
	if !ok {
		return false
	}
	return statusIn(to, nexts)
}
