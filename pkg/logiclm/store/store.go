package store

import (
	"context"
	"time"

	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// Store persists retrieval documents and pipeline runs.
type Store interface {
	Close() error

	// Documents
	UpsertDocument(ctx context.Context, d Document) error
	Documents(ctx context.Context, source string) ([]Document, error)
	DeleteSource(ctx context.Context, source string) error
	// ReplaceSource swaps all documents of a source for docs in one step.
	// On error the previous documents are left in place.
	ReplaceSource(ctx context.Context, source string, docs []Document) error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Document is one indexed knowledge-base line. Documents are keyed by
// (Source, Text) and returned in first-insertion order.
type Document struct {
	ID     int64
	Source string
	Text   string
	Vector []float32
}

// Run records one pass through the pipeline.
type Run struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Mode        string       `json:"mode"` // derive, solve, chain, baseline
	Description string       `json:"description,omitempty"`
	Context     []string     `json:"context,omitempty"`
	Logic       string       `json:"logic,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
	Refined     bool         `json:"refined"`
	Derived     []logic.Fact `json:"derived,omitempty"`
	Answer      string       `json:"answer,omitempty"`
}
