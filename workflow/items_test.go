package workflow

import "testing"

func TestItemsStateNextBatchRespectsConcurrency(t *testing.T) {
	it := NewItemsState([]any{"a", "b", "c", "d"}, 2)

	batch := it.NextBatch()
	if len(batch) != 2 {
		t.Fatalf("expected a batch of 2 under concurrency=2, got %v", batch)
	}
	for _, i := range batch {
		it.MarkDispatched(i)
	}

	if got := it.NextBatch(); len(got) != 0 {
		t.Fatalf("expected no further batch while both slots are active, got %v", got)
	}

	it.RecordResult(batch[0], StatusSucceeded, "ok")
	next := it.NextBatch()
	if len(next) != 1 {
		t.Fatalf("expected one freed slot to admit one more item, got %v", next)
	}
}

func TestItemsStateUnboundedConcurrency(t *testing.T) {
	it := NewItemsState([]any{1, 2, 3}, 0)
	batch := it.NextBatch()
	if len(batch) != 3 {
		t.Fatalf("expected all 3 items dispatched at once when unbounded, got %v", batch)
	}
}

func TestItemsStateRollupRunningUntilAllTerminal(t *testing.T) {
	it := NewItemsState([]any{1, 2}, 0)
	for _, i := range it.NextBatch() {
		it.MarkDispatched(i)
	}
	if got := it.Rollup(); got != StatusRunning {
		t.Fatalf("expected running rollup while items pending, got %s", got)
	}

	it.RecordResult(0, StatusSucceeded, nil)
	if got := it.Rollup(); got != StatusRunning {
		t.Fatalf("expected running while item 1 still pending, got %s", got)
	}

	it.RecordResult(1, StatusSucceeded, nil)
	if got := it.Rollup(); got != StatusSucceeded {
		t.Fatalf("expected succeeded once every item succeeded, got %s", got)
	}
}

func TestItemsStateRollupFailedOnAbend(t *testing.T) {
	it := NewItemsState([]any{1, 2}, 0)
	for _, i := range it.NextBatch() {
		it.MarkDispatched(i)
	}
	it.RecordResult(0, StatusFailed, nil)
	it.RecordResult(1, StatusSucceeded, nil)
	if got := it.Rollup(); got != StatusFailed {
		t.Fatalf("expected failed rollup when any item abended, got %s", got)
	}
}

func TestItemsStateRollupCancellationDropsUndispatched(t *testing.T) {
	it := NewItemsState([]any{1, 2, 3}, 1)
	batch := it.NextBatch()
	if len(batch) != 1 {
		t.Fatalf("expected single item dispatched under concurrency=1, got %v", batch)
	}
	it.MarkDispatched(batch[0])
	it.RecordResult(batch[0], StatusCanceled, nil)

	if got := it.NextBatch(); got != nil {
		t.Fatalf("expected no further dispatch once canceling, got %v", got)
	}

	it.CancelPending()
	if got := it.Rollup(); got != StatusCanceled {
		t.Fatalf("expected canceled rollup once pending items are dropped, got %s", got)
	}
}

func TestItemsStateCancelPendingSettlesUndispatchedItems(t *testing.T) {
	it := NewItemsState([]any{1, 2, 3, 4}, 2)
	for _, i := range it.NextBatch() {
		it.MarkDispatched(i)
	}
	if got := it.Rollup(); got != StatusRunning {
		t.Fatalf("expected running before cancellation, got %s", got)
	}

	it.CancelPending()
	if !it.Canceling {
		t.Fatal("expected CancelPending to set Canceling")
	}
	if got := it.NextBatch(); got != nil {
		t.Fatalf("expected no dispatch after CancelPending, got %v", got)
	}
	if it.Statuses[2] != StatusCanceled || it.Statuses[3] != StatusCanceled {
		t.Fatalf("expected never-dispatched items marked canceled, got %v", it.Statuses)
	}

	it.RecordResult(0, StatusSucceeded, nil)
	it.RecordResult(1, StatusSucceeded, nil)
	if got := it.Rollup(); got != StatusCanceled {
		t.Fatalf("expected canceled rollup once the in-flight items drain, got %s", got)
	}
}

func TestItemsStateEmptyRollupSucceeds(t *testing.T) {
	it := NewItemsState(nil, 0)
	if got := it.Rollup(); got != StatusSucceeded {
		t.Fatalf("expected an empty item list to roll up as succeeded, got %s", got)
	}
}
