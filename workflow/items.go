package workflow

// ItemsState tracks a with-items task's iteration: the evaluated item
// sequence, per-item dispatch/completion bookkeeping, and the ordered
// result list published back to context as result() (spec.md §4.4,
// supplemented by orquesta's per-item result-slot behavior, SPEC_FULL §10).
type ItemsState struct {
	Items       []any    `json:"items"`
	Results     []any    `json:"results"`
	Statuses    []Status `json:"statuses"`
	Dispatched  []bool   `json:"dispatched"`
	Concurrency int      `json:"concurrency"` // 0 means unbounded
	FailFast    bool     `json:"fail_fast"`
	Canceling   bool     `json:"canceling"`
}

// NewItemsState builds the bookkeeping for a freshly expanded with-items
// task. concurrency <= 0 means unbounded (dispatch every item up front).
func NewItemsState(items []any, concurrency int) *ItemsState {
	n := len(items)
	return &ItemsState{
		Items:       items,
		Results:     make([]any, n),
		Statuses:    make([]Status, n),
		Dispatched:  make([]bool, n),
		Concurrency: concurrency,
		FailFast:    true, // spec.md §4.4 step 4: default policy is fail-fast
	}
}

// Count returns the total number of items.
func (it *ItemsState) Count() int { return len(it.Items) }

// ActiveCount returns the number of dispatched-but-not-yet-terminal items.
func (it *ItemsState) ActiveCount() int {
	n := 0
	for i := range it.Items {
		if it.Dispatched[i] && !IsCompleted(it.Statuses[i]) {
			n++
		}
	}
	return n
}

// NextBatch returns up to the available concurrency slots' worth of
// not-yet-dispatched item indices, in order. If Canceling is set, no new
// items are ever returned (spec.md §4.4 cancellation: "un-dispatched items
// are dropped"). Likewise, once any item has abended under the default
// fail-fast policy, dispatch of further items stops (spec.md §4.4 step 4).
func (it *ItemsState) NextBatch() []int {
	if it.Canceling {
		return nil
	}
	if it.FailFast && it.AnyAbended() {
		return nil
	}
	limit := it.Concurrency
	if limit <= 0 {
		limit = len(it.Items)
	}
	slots := limit - it.ActiveCount()
	if slots <= 0 {
		return nil
	}

	var out []int
	for i := range it.Items {
		if len(out) >= slots {
			break
		}
		if !it.Dispatched[i] {
			out = append(out, i)
		}
	}
	return out
}

// MarkDispatched records that item i has been handed to the runtime.
func (it *ItemsState) MarkDispatched(i int) {
	if i >= 0 && i < len(it.Dispatched) {
		it.Dispatched[i] = true
		it.Statuses[i] = StatusRunning
	}
}

// CancelPending stops future dispatch and settles every not-yet-dispatched
// item as CANCELED outright, so Rollup can reach a terminal status once the
// items still in flight drain — an item that was never going to run must
// not hold the rollup at RUNNING/CANCELING forever (spec.md §4.4
// cancellation: "un-dispatched items are dropped").
func (it *ItemsState) CancelPending() {
	it.Canceling = true
	for i := range it.Items {
		if !it.Dispatched[i] {
			it.Statuses[i] = StatusCanceled
		}
	}
}

// RecordResult records the terminal status and result payload for item i.
func (it *ItemsState) RecordResult(i int, status Status, result any) {
	if i < 0 || i >= len(it.Items) {
		return
	}
	it.Statuses[i] = status
	it.Results[i] = result
	if status == StatusCanceling || status == StatusCanceled {
		it.Canceling = true
	}
}

// AllTerminal reports whether every item has reached a COMPLETED status.
func (it *ItemsState) AllTerminal() bool {
	for _, s := range it.Statuses {
		if !IsCompleted(s) {
			return false
		}
	}
	return true
}

// AnyAbended reports whether any item abended.
func (it *ItemsState) AnyAbended() bool {
	for _, s := range it.Statuses {
		if IsAbended(s) {
			return true
		}
	}
	return false
}

// AnyCanceled reports whether any item was canceled.
func (it *ItemsState) AnyCanceled() bool {
	for _, s := range it.Statuses {
		if s == StatusCanceled {
			return true
		}
	}
	return false
}

// Rollup computes the task-level status implied by the current item
// statuses, per spec.md §4.4 step 4's roll-up rules:
//
//   - RUNNING while any item is pending (not yet dispatched or active).
//   - CANCELING if any item canceled and others remain non-terminal.
//   - CANCELED when all items have drained following a cancel.
//   - FAILED if any item abended under the default fail-fast policy and
//     every item has reached a terminal status (pending ones continue to
//     run to completion first).
//   - SUCCEEDED only when every item succeeded.
func (it *ItemsState) Rollup() Status {
	if it.Count() == 0 {
		return StatusSucceeded
	}

	allTerm := it.AllTerminal()

	switch {
	case !allTerm && it.Canceling:
		return StatusCanceling
	case allTerm && it.AnyCanceled():
		return StatusCanceled
	case !allTerm:
		return StatusRunning
	case it.AnyAbended():
		return StatusFailed
	default:
		return StatusSucceeded
	}
}
