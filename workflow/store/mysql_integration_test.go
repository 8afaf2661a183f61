package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

// TestMySQLIntegration validates MySQLStore against a real MySQL database.
//
// Prerequisites:
//   - MySQL server reachable.
//   - TEST_MYSQL_DSN environment variable set, e.g.
//     "user:password@tcp(localhost:3306)/test_db?parseTime=true".
//
// export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/test_db?parseTime=true"
// go test -v -run TestMySQLIntegration ./workflow/store
func TestMySQLIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("set TEST_MYSQL_DSN to run the MySQL integration test")
	}

	ctx := context.Background()
	s, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore: %v", err)
	}
	defer s.Close()

	workflowID := "integration-wf-1"

	if err := s.SaveLatest(ctx, workflowID, 1, []byte(`{"status":"running"}`)); err != nil {
		t.Fatalf("SaveLatest: %v", err)
	}
	doc, seq, err := s.LoadLatest(ctx, workflowID)
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if seq != 1 || string(doc) != `{"status":"running"}` {
		t.Errorf("got (seq=%d doc=%s)", seq, doc)
	}

	if err := s.SaveCheckpoint(ctx, workflowID, "after-validation", 2, []byte(`{"status":"validated"}`)); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	cpDoc, cpSeq, err := s.LoadCheckpoint(ctx, workflowID, "after-validation")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if cpSeq != 2 || string(cpDoc) != `{"status":"validated"}` {
		t.Errorf("got (seq=%d doc=%s)", cpSeq, cpDoc)
	}

	if _, _, err := s.LoadCheckpoint(ctx, workflowID, "missing-label"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListCheckpoints(ctx, workflowID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(list) != 1 || list[0].Label != "after-validation" {
		t.Errorf("ListCheckpoints = %+v", list)
	}
}
