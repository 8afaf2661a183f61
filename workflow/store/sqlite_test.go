package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conductor.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveLoadLatest(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	if _, _, err := s.LoadLatest(ctx, "wf-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before any save, got %v", err)
	}

	if err := s.SaveLatest(ctx, "wf-1", 1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SaveLatest: %v", err)
	}
	doc, seq, err := s.LoadLatest(ctx, "wf-1")
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if seq != 1 || string(doc) != `{"a":1}` {
		t.Errorf("got (seq=%d doc=%s)", seq, doc)
	}

	if err := s.SaveLatest(ctx, "wf-1", 2, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("SaveLatest overwrite: %v", err)
	}
	_, seq, err = s.LoadLatest(ctx, "wf-1")
	if err != nil {
		t.Fatalf("LoadLatest after overwrite: %v", err)
	}
	if seq != 2 {
		t.Errorf("seq = %d, want 2", seq)
	}
}

func TestSQLiteStore_Checkpoints(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	if err := s.SaveCheckpoint(ctx, "wf-1", "milestone-1", 3, []byte("x")); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	doc, seq, err := s.LoadCheckpoint(ctx, "wf-1", "milestone-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if seq != 3 || string(doc) != "x" {
		t.Errorf("got (seq=%d doc=%s)", seq, doc)
	}

	if _, _, err := s.LoadCheckpoint(ctx, "wf-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SaveCheckpoint(ctx, "wf-1", "milestone-2", 7, []byte("y")); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	list, err := s.ListCheckpoints(ctx, "wf-1")
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListCheckpoints len = %d, want 2", len(list))
	}
}

func TestSQLiteStore_SeparateWorkflowsIsolated(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	_ = s.SaveLatest(ctx, "wf-1", 1, []byte("one"))
	_ = s.SaveLatest(ctx, "wf-2", 1, []byte("two"))

	doc1, _, err := s.LoadLatest(ctx, "wf-1")
	if err != nil {
		t.Fatalf("LoadLatest wf-1: %v", err)
	}
	doc2, _, err := s.LoadLatest(ctx, "wf-2")
	if err != nil {
		t.Fatalf("LoadLatest wf-2: %v", err)
	}
	if string(doc1) != "one" || string(doc2) != "two" {
		t.Errorf("got (%s, %s), want (one, two)", doc1, doc2)
	}
}
