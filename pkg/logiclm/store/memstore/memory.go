package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	docs   map[string][]store.Document
	runs   map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID: 1,
		docs:   make(map[string][]store.Document),
		runs:   make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertDocument inserts a document, keyed by source and text.
func (s *Store) UpsertDocument(ctx context.Context, d store.Document) error {
	if d.Source == "" || d.Text == "" {
		return fmt.Errorf("%w: document needs source and text", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.docs[d.Source]
	for i := range docs {
		if docs[i].Text == d.Text {
			docs[i].Vector = copyVector(d.Vector)
			return nil
		}
	}
	d.ID = s.nextID
	s.nextID++
	d.Vector = copyVector(d.Vector)
	s.docs[d.Source] = append(docs, d)
	return nil
}

// Documents returns the documents of a source in insertion order.
func (s *Store) Documents(ctx context.Context, source string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.docs[source]
	out := make([]store.Document, len(docs))
	for i, d := range docs {
		d.Vector = copyVector(d.Vector)
		out[i] = d
	}
	return out, nil
}

// DeleteSource implements store.Store.
func (s *Store) DeleteSource(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, source)
	return nil
}

// ReplaceSource implements store.Store.
func (s *Store) ReplaceSource(ctx context.Context, source string, docs []store.Document) error {
	if source == "" {
		return fmt.Errorf("%w: replace needs a source", internalerr.ErrInvalidInput)
	}
	for i, d := range docs {
		if d.Text == "" {
			return fmt.Errorf("%w: document %d has no text", internalerr.ErrInvalidInput, i+1)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Document
	seen := make(map[string]int, len(docs))
	for _, d := range docs {
		if i, ok := seen[d.Text]; ok {
			out[i].Vector = copyVector(d.Vector)
			continue
		}
		seen[d.Text] = len(out)
		out = append(out, store.Document{ID: s.nextID, Source: source, Text: d.Text, Vector: copyVector(d.Vector)})
		s.nextID++
	}
	if len(out) == 0 {
		delete(s.docs, source)
		return nil
	}
	s.docs[source] = out
	return nil
}

// SaveRun implements store.Store.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// ListRuns returns the most recent runs first. Run IDs sort by time.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, copyRun(r))
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func copyRun(r store.Run) store.Run {
	r.Context = append([]string(nil), r.Context...)
	r.Errors = append([]string(nil), r.Errors...)
	derived := make([]logic.Fact, len(r.Derived))
	for i, f := range r.Derived {
		derived[i] = logic.NewFact(f.Predicate, append([]string(nil), f.Args...)...)
	}
	r.Derived = derived
	return r
}
