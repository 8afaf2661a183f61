// Package store provides persistence for conductor documents: the
// serialized form a Conductor's Serialize method produces, keyed by
// workflow ID and an optional named checkpoint label.
//
// Adapted from the teacher's graph/store package. The teacher's Store is
// generic over a delta-accumulated node state with frontier/RNG/replay
// support for concurrent re-execution; a conductor instead holds its
// entire document (graph + spec + inputs + state) as one opaque blob
// produced by Conductor.Serialize, so persistence here is simpler: save
// the latest blob per workflow, and optionally snapshot it under a label
// for manual resumption points.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested workflow ID or checkpoint
// label does not exist.
var ErrNotFound = errors.New("not found")

// Store persists and retrieves conductor documents.
//
// Implementations can use:
//   - In-memory storage (for testing, see memory.go).
//   - Relational databases (MySQL, SQLite).
//
// Doc is always the raw output of (*workflow.Conductor).Serialize.
type Store interface {
	// SaveLatest persists doc as the most recent state for workflowID,
	// tagged with the monotonically increasing sequence number seq (the
	// conductor's own context/route sequence counter is a convenient
	// source). Overwrites any previously saved latest state.
	SaveLatest(ctx context.Context, workflowID string, seq int, doc []byte) error

	// LoadLatest retrieves the most recently saved document for
	// workflowID. Returns ErrNotFound if workflowID has never been saved.
	LoadLatest(ctx context.Context, workflowID string) (doc []byte, seq int, err error)

	// SaveCheckpoint creates or overwrites a named snapshot of
	// workflowID's document, for manual resumption points independent
	// of the latest-state slot.
	SaveCheckpoint(ctx context.Context, workflowID, label string, seq int, doc []byte) error

	// LoadCheckpoint retrieves a named checkpoint. Returns ErrNotFound if
	// the (workflowID, label) pair was never saved.
	LoadCheckpoint(ctx context.Context, workflowID, label string) (doc []byte, seq int, err error)

	// ListCheckpoints returns metadata for every checkpoint saved under
	// workflowID, in creation order.
	ListCheckpoints(ctx context.Context, workflowID string) ([]CheckpointMeta, error)
}

// CheckpointMeta describes a saved checkpoint without its document body.
type CheckpointMeta struct {
	Label     string    `json:"label"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}
