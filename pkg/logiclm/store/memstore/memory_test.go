package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
)

var _ store.Store = (*Store)(nil)

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.UpsertDocument(ctx, store.Document{Source: "kb", Text: "a(x).", Vector: []float32{1, 0}})
	s.UpsertDocument(ctx, store.Document{Source: "kb", Text: "b(y)."})
	s.UpsertDocument(ctx, store.Document{Source: "kb", Text: "a(x).", Vector: []float32{0, 1}})

	docs, err := s.Documents(ctx, "kb")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Text != "a(x)." || docs[0].Vector[1] != 1 {
		t.Errorf("first document = %+v", docs[0])
	}

	// Returned vectors are copies.
	docs[0].Vector[0] = 42
	again, _ := s.Documents(ctx, "kb")
	if again[0].Vector[0] == 42 {
		t.Error("store shares vector memory with caller")
	}

	if err := s.DeleteSource(ctx, "kb"); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if docs, _ := s.Documents(ctx, "kb"); len(docs) != 0 {
		t.Errorf("expected no documents after delete, got %d", len(docs))
	}
}

func TestReplaceSource(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.UpsertDocument(ctx, store.Document{Source: "kb", Text: "old(x)."})

	err := s.ReplaceSource(ctx, "kb", []store.Document{{Text: "new(a)."}, {Text: ""}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if docs, _ := s.Documents(ctx, "kb"); len(docs) != 1 || docs[0].Text != "old(x)." {
		t.Fatalf("documents changed on failure: %+v", docs)
	}

	err = s.ReplaceSource(ctx, "kb", []store.Document{
		{Text: "new(a).", Vector: []float32{1}},
		{Text: "new(b)."},
		{Text: "new(a).", Vector: []float32{2}},
	})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	docs, _ := s.Documents(ctx, "kb")
	if len(docs) != 2 || docs[0].Text != "new(a)." || docs[1].Text != "new(b)." {
		t.Fatalf("unexpected documents: %+v", docs)
	}
	if docs[0].Source != "kb" || docs[0].Vector[0] != 2 {
		t.Errorf("first document = %+v", docs[0])
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveRun(ctx, store.Run{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("SaveRun without id: %v", err)
	}

	for _, id := range []string{"01A", "01C", "01B"} {
		s.SaveRun(ctx, store.Run{ID: id, Mode: "derive", Derived: []logic.Fact{logic.NewFact("p", id)}})
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "01C" || runs[1].ID != "01B" {
		t.Errorf("unexpected runs: %+v", runs)
	}

	got, err := s.GetRun(ctx, "01A")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Derived) != 1 || got.Derived[0].Args[0] != "01A" {
		t.Errorf("unexpected run: %+v", got)
	}

	if _, err := s.GetRun(ctx, "zzz"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetRun missing: %v, want ErrNotFound", err)
	}
}
