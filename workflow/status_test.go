package workflow

import "testing"

func TestIsAbendedIsCompletedIsActive(t *testing.T) {
	cases := []struct {
		status             Status
		abended, completed bool
		active             bool
	}{
		{StatusFailed, true, true, false},
		{StatusExpired, true, true, false},
		{StatusAbandoned, true, true, false},
		{StatusSucceeded, false, true, false},
		{StatusCanceled, false, true, false},
		{StatusRunning, false, false, true},
		{StatusPausing, false, false, true},
		{StatusCanceling, false, false, true},
		{StatusResuming, false, false, true},
		{StatusScheduled, false, false, false},
		{StatusUnset, false, false, false},
	}
	for _, c := range cases {
		if got := IsAbended(c.status); got != c.abended {
			t.Errorf("IsAbended(%s) = %v, want %v", c.status, got, c.abended)
		}
		if got := IsCompleted(c.status); got != c.completed {
			t.Errorf("IsCompleted(%s) = %v, want %v", c.status, got, c.completed)
		}
		if got := IsActive(c.status); got != c.active {
			t.Errorf("IsActive(%s) = %v, want %v", c.status, got, c.active)
		}
	}
}

func TestIsValidTaskStatus(t *testing.T) {
	if !IsValidTaskStatus(StatusRunning) {
		t.Error("expected running to be valid")
	}
	if IsValidTaskStatus(Status("bogus")) {
		t.Error("expected bogus status to be invalid")
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	if !IsValidTaskStatusTransition(StatusUnset, StatusRequested) {
		t.Error("unset -> requested should be valid")
	}
	if !IsValidTaskStatusTransition(StatusRequested, StatusScheduled) {
		t.Error("requested -> scheduled should be valid")
	}
	if !IsValidTaskStatusTransition(StatusScheduled, StatusRunning) {
		t.Error("scheduled -> running should be valid")
	}
	if !IsValidTaskStatusTransition(StatusRunning, StatusSucceeded) {
		t.Error("running -> succeeded should be valid")
	}
	if IsValidTaskStatusTransition(StatusSucceeded, StatusRunning) {
		t.Error("succeeded -> running should be invalid: terminal status")
	}
	if IsValidTaskStatusTransition(StatusUnset, StatusSucceeded) {
		t.Error("unset -> succeeded should be invalid: must pass through requested")
	}
	if !IsValidTaskStatusTransition(StatusSucceeded, StatusSucceeded) {
		t.Error("a status transitioning to itself should always be valid")
	}
}

func TestWorkflowStatusTransitions(t *testing.T) {
	if !IsValidWorkflowStatusTransition(StatusUnset, StatusRunning) {
		t.Error("unset -> running should be valid")
	}
	if !IsValidWorkflowStatusTransition(StatusRunning, StatusPausing) {
		t.Error("running -> pausing should be valid")
	}
	if !IsValidWorkflowStatusTransition(StatusPausing, StatusPaused) {
		t.Error("pausing -> paused should be valid")
	}
	if !IsValidWorkflowStatusTransition(StatusPaused, StatusResuming) {
		t.Error("paused -> resuming should be valid")
	}
	if IsValidWorkflowStatusTransition(StatusCanceled, StatusRunning) {
		t.Error("canceled -> running should be invalid: terminal status")
	}
	if IsValidWorkflowStatusTransition(Status("bogus"), StatusRunning) {
		t.Error("transition from an unrecognized status should be invalid")
	}
}
