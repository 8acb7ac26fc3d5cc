package logiclm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/logiclm/pkg/logiclm/inference/closure"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/kb"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
	"github.com/cognicore/logiclm/pkg/logiclm/retrieve"
	"github.com/cognicore/logiclm/pkg/logiclm/store/memstore"
	"github.com/cognicore/logiclm/pkg/logiclm/syntax"
)

// scriptedCompleter answers prompts in order and records them.
type scriptedCompleter struct {
	answers []string
	prompts []string
	err     error
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

const familyKB = `% family
parent(tom, liz).
parent(bob, ann).
sibling(tom, bob).
likes(mary, wine).
uncle(X,Y) :- parent(Z,Y), sibling(X,Z).
`

func TestDerive(t *testing.T) {
	l := New(Options{})
	r, err := l.Derive("parent(tom, liz)\nparent(bob, ann).\nsibling(tom, bob).\nuncle(X,Y) :- parent(Z,Y), sibling(X,Z).")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if diff := cmp.Diff([]string{syntax.MissingPeriod}, r.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	want := []logic.Fact{
		logic.NewFact("uncle", "bob", "liz"),
		logic.NewFact("uncle", "tom", "ann"),
	}
	if diff := cmp.Diff(want, r.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
	if r.RunID != "" {
		t.Errorf("offline derive should not be recorded, got run %s", r.RunID)
	}
}

func TestDeriveWithClosureEngine(t *testing.T) {
	l := New(Options{Engine: closure.New(nil, 0)})
	r, err := l.Derive("parent(a, b).\nparent(b, c).\ngp(X, Y) :- parent(X, Z), parent(Z, Y).\nold(X) :- gp(X, Y).")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	want := []logic.Fact{logic.NewFact("gp", "a", "c"), logic.NewFact("old", "a")}
	if diff := cmp.Diff(want, r.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveWithoutRepair(t *testing.T) {
	comp := &scriptedCompleter{answers: []string{
		"```prolog\nparent(pam, bob).\nparent(bob, ann).\ngrandparent(X, Y) :- parent(X, Z), parent(Z, Y).\n```",
	}}
	st := memstore.New()
	l := New(Options{Completer: comp, Store: st})

	r, err := l.Solve(context.Background(), "Pam is Bob's parent and Bob is Ann's parent. Who is Ann's grandparent?")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(comp.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(comp.prompts))
	}
	if !strings.HasSuffix(comp.prompts[0], "Who is Ann's grandparent?") {
		t.Errorf("question missing from prompt: %q", comp.prompts[0])
	}
	if r.Refined || len(r.Errors) != 0 {
		t.Errorf("unexpected repair: %+v", r)
	}
	want := []logic.Fact{logic.NewFact("grandparent", "pam", "ann")}
	if diff := cmp.Diff(want, r.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}

	run, err := l.Run(context.Background(), r.RunID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Mode != ModeSolve || len(run.Derived) != 1 {
		t.Errorf("unexpected stored run: %+v", run)
	}
}

func TestSolveRepairsOnce(t *testing.T) {
	comp := &scriptedCompleter{answers: []string{
		"parent(tom, liz)\nsibling tom bob.",
		"parent(tom, liz).\nsibling(tom, bob).\nuncle(X,Y) :- parent(Z,Y), sibling(X,Z)",
	}}
	l := New(Options{Completer: comp})

	r, err := l.Solve(context.Background(), "Tom and Bob are siblings.")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !r.Refined {
		t.Fatal("expected a repair")
	}
	wantErrs := []string{syntax.MissingPeriod, syntax.MissingParentheses}
	if diff := cmp.Diff(wantErrs, r.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(comp.prompts) != 2 {
		t.Fatalf("expected two model calls, got %d", len(comp.prompts))
	}
	if !strings.Contains(comp.prompts[1], "Missing period at end.\nMissing parentheses.") {
		t.Errorf("repair prompt lacks findings: %q", comp.prompts[1])
	}
	// The repaired text still lacks a final period; it is evaluated anyway.
	want := []logic.Fact{logic.NewFact("uncle", "bob", "liz")}
	if diff := cmp.Diff(want, r.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
	if r.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestSolveChain(t *testing.T) {
	k, err := kb.Parse(strings.NewReader(familyKB), "family.pl")
	if err != nil {
		t.Fatalf("kb.Parse: %v", err)
	}
	comp := &scriptedCompleter{answers: []string{
		"uncle(X, Y) :- parent(Z, Y), sibling(X, Z).\ngrandparent(X, Y) :- parent(X, Z), parent(Z, Y).",
	}}
	st := memstore.New()
	l := New(Options{
		Completer: comp,
		Retriever: retrieve.NewLexical(k.Source, k.Lines(), nil),
		KB:        k,
		Store:     st,
		TopK:      2,
	})

	r, err := l.SolveChain(context.Background(), "Define uncle in terms of parent and sibling.")
	if err != nil {
		t.Fatalf("SolveChain: %v", err)
	}
	if len(r.Context) != 2 {
		t.Errorf("expected 2 context lines, got %v", r.Context)
	}
	for _, line := range r.Context {
		if !strings.Contains(comp.prompts[0], line) {
			t.Errorf("context line %q missing from prompt", line)
		}
	}
	if !strings.HasPrefix(r.Program, "parent(tom, liz).") || strings.Contains(r.Program, "% family") {
		t.Errorf("program should start with kb facts only: %q", r.Program)
	}
	want := []logic.Fact{
		logic.NewFact("uncle", "bob", "liz"),
		logic.NewFact("uncle", "tom", "ann"),
	}
	if diff := cmp.Diff(want, r.Facts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}

	runs, err := l.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Mode != ModeChain || len(runs[0].Context) != 2 {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestSolveChainNeedsRetriever(t *testing.T) {
	l := New(Options{Completer: &scriptedCompleter{}})
	if _, err := l.SolveChain(context.Background(), "x"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestPipelinesNeedCompleter(t *testing.T) {
	l := New(Options{})
	ctx := context.Background()
	if _, err := l.Solve(ctx, "q"); !errors.Is(err, internalerr.ErrNoCompleter) {
		t.Errorf("Solve: %v", err)
	}
	if _, err := l.SolveChain(ctx, "q"); !errors.Is(err, internalerr.ErrNoCompleter) {
		t.Errorf("SolveChain: %v", err)
	}
	if _, err := l.Baseline(ctx, "q"); !errors.Is(err, internalerr.ErrNoCompleter) {
		t.Errorf("Baseline: %v", err)
	}
}

func TestSolvePropagatesModelError(t *testing.T) {
	boom := errors.New("rate limited")
	l := New(Options{Completer: &scriptedCompleter{err: boom}})
	if _, err := l.Solve(context.Background(), "q"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestBaseline(t *testing.T) {
	comp := &scriptedCompleter{answers: []string{"Yes, Tom is Ann's uncle."}}
	st := memstore.New()
	l := New(Options{Completer: comp, Store: st})

	r, err := l.Baseline(context.Background(), "Is Tom Ann's uncle?")
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	if r.Answer != "Yes, Tom is Ann's uncle." {
		t.Errorf("Answer = %q", r.Answer)
	}
	if !strings.HasPrefix(comp.prompts[0], "Answer the following logical reasoning question:") {
		t.Errorf("unexpected prompt %q", comp.prompts[0])
	}
	run, err := st.GetRun(context.Background(), r.RunID)
	if err != nil || run.Answer != r.Answer {
		t.Errorf("baseline run not stored: %+v, %v", run, err)
	}
}

func TestRunIDsAreOrdered(t *testing.T) {
	comp := &scriptedCompleter{answers: []string{"a", "b", "c"}}
	l := New(Options{Completer: comp})
	var ids []string
	for i := 0; i < 3; i++ {
		r, err := l.Baseline(context.Background(), "q")
		if err != nil {
			t.Fatalf("Baseline: %v", err)
		}
		ids = append(ids, r.RunID)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("run ids not increasing: %v", ids)
		}
	}
}

func TestRunsWithoutStore(t *testing.T) {
	l := New(Options{})
	if _, err := l.Runs(context.Background(), 5); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("Runs: %v", err)
	}
	if _, err := l.Run(context.Background(), "x"); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("Run: %v", err)
	}
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestIndexKB(t *testing.T) {
	k, _ := kb.Parse(strings.NewReader(familyKB), "family.pl")
	st := memstore.New()
	l := New(Options{
		KB:        k,
		Retriever: &retrieve.Vector{Embedder: fakeEmbedder{}, Store: st, Source: k.Source},
	})
	if err := l.IndexKB(context.Background()); err != nil {
		t.Fatalf("IndexKB: %v", err)
	}
	docs, _ := st.Documents(context.Background(), "family.pl")
	if len(docs) != len(k.Lines()) {
		t.Errorf("indexed %d lines, want %d", len(docs), len(k.Lines()))
	}

	lexical := New(Options{KB: k, Retriever: retrieve.NewLexical("kb", k.Lines(), nil)})
	if err := lexical.IndexKB(context.Background()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("lexical IndexKB: %v, want ErrInvalidConfig", err)
	}
}
