// Package logiclm wires the language model, the syntax check and the
// inference engine into question-answering pipelines.
//
// A question is translated into clause text by the model, checked, repaired
// once if the check finds problems, and evaluated. The chain pipeline first
// retrieves background lines from a knowledge base and merges the base's
// facts into the program before evaluation.
package logiclm

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/logiclm/internal/llm"
	"github.com/cognicore/logiclm/pkg/logiclm/inference"
	"github.com/cognicore/logiclm/pkg/logiclm/inference/naive"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/kb"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
	"github.com/cognicore/logiclm/pkg/logiclm/prompt"
	"github.com/cognicore/logiclm/pkg/logiclm/retrieve"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
	"github.com/cognicore/logiclm/pkg/logiclm/syntax"
)

// Run modes.
const (
	ModeDerive   = "derive"
	ModeSolve    = "solve"
	ModeChain    = "chain"
	ModeBaseline = "baseline"
)

// LogicLM is the pipeline facade.
type LogicLM struct {
	completer llm.Completer
	retriever retrieve.Retriever
	engine    inference.Engine
	store     store.Store
	kb        *kb.KB
	topK      int
	logger    *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Options configures a LogicLM instance. Only what a pipeline uses needs to
// be set: Derive needs nothing, Solve a Completer, SolveChain a Completer and
// a Retriever.
type Options struct {
	Completer llm.Completer
	Retriever retrieve.Retriever
	// Engine defaults to the single-pass engine.
	Engine inference.Engine
	// Store, when set, receives every pipeline run.
	Store  store.Store
	KB     *kb.KB
	TopK   int
	Logger *zap.Logger
}

// New creates a LogicLM instance with the given dependencies
func New(opts Options) *LogicLM {
	l := &LogicLM{
		completer: opts.Completer,
		retriever: opts.Retriever,
		engine:    opts.Engine,
		store:     opts.Store,
		kb:        opts.KB,
		topK:      opts.TopK,
		logger:    opts.Logger,
		entropy:   ulid.Monotonic(rand.Reader, 0),
		now:       time.Now,
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.engine == nil {
		l.engine = naive.New(naive.WithLogger(l.logger))
	}
	if l.topK <= 0 {
		l.topK = retrieve.DefaultK
	}
	return l
}

// Close releases the store, if any.
func (l *LogicLM) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

// Report describes one pipeline run.
type Report struct {
	RunID       string
	Mode        string
	Description string
	// Context holds the retrieved background lines (chain mode).
	Context []string
	// Generated is the model's first translation, before any repair.
	Generated string
	// Logic is the clause text that was evaluated, after repair. In chain
	// mode it holds the rules only; Program adds the knowledge-base facts.
	Logic   string
	Program string
	// Errors are the syntax findings on Generated.
	Errors  []string
	Refined bool
	Skipped []string
	Result  inference.Result
	// Facts are the derived facts, sorted.
	Facts  []logic.Fact
	Answer string
}

// Derive checks, parses and evaluates clause text without a model.
func (l *LogicLM) Derive(text string) (Report, error) {
	r := Report{Mode: ModeDerive, Logic: text, Errors: syntax.Validate(text)}
	if err := l.evaluate(&r, text); err != nil {
		return r, err
	}
	return r, nil
}

func (l *LogicLM) evaluate(r *Report, program string) error {
	r.Program = program
	kbase := logic.Parse(program)
	for _, line := range kbase.Skipped {
		l.logger.Debug("skipping invalid line", zap.String("line", line))
	}
	r.Skipped = kbase.Skipped

	res, err := l.engine.Evaluate(kbase)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	r.Result = res
	r.Facts = res.Facts()
	return nil
}

// Solve translates question into facts and rules and evaluates them.
func (l *LogicLM) Solve(ctx context.Context, question string) (Report, error) {
	if l.completer == nil {
		return Report{}, internalerr.ErrNoCompleter
	}
	r := Report{Mode: ModeSolve, Description: question}

	if err := l.translate(ctx, &r, prompt.Translate(question)); err != nil {
		return r, err
	}
	if err := l.evaluate(&r, r.Logic); err != nil {
		return r, err
	}
	l.record(ctx, &r)
	return r, nil
}

// SolveChain retrieves background lines for description, asks for general
// rules, and evaluates them together with the knowledge-base facts.
func (l *LogicLM) SolveChain(ctx context.Context, description string) (Report, error) {
	if l.completer == nil {
		return Report{}, internalerr.ErrNoCompleter
	}
	if l.retriever == nil {
		return Report{}, fmt.Errorf("%w: chain mode needs a retriever", internalerr.ErrInvalidConfig)
	}
	r := Report{Mode: ModeChain, Description: description}

	docs, err := l.retriever.Retrieve(ctx, description, l.topK)
	if err != nil {
		return r, fmt.Errorf("retrieve context: %w", err)
	}
	r.Context = retrieve.Texts(docs)
	l.logger.Debug("context retrieved", zap.Int("lines", len(r.Context)))

	if err := l.translate(ctx, &r, prompt.TranslateWithContext(r.Context, description)); err != nil {
		return r, err
	}

	program := r.Logic
	if l.kb != nil {
		program = l.kb.FactText() + "\n" + r.Logic
	}
	if err := l.evaluate(&r, program); err != nil {
		return r, err
	}
	l.record(ctx, &r)
	return r, nil
}

// translate asks the model for clause text, then asks once for a syntax
// repair when the check finds problems. The repaired text is not checked
// again; findings never block evaluation.
func (l *LogicLM) translate(ctx context.Context, r *Report, request string) error {
	generated, err := l.completer.Complete(ctx, request)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	r.Generated = prompt.StripFences(generated)
	r.Logic = r.Generated
	r.Errors = syntax.Validate(r.Generated)
	if len(r.Errors) == 0 {
		return nil
	}

	l.logger.Info("refining logic", zap.Int("errors", len(r.Errors)), zap.Strings("findings", r.Errors))
	refined, err := l.completer.Complete(ctx, prompt.Refine(r.Generated, r.Errors))
	if err != nil {
		return fmt.Errorf("refine: %w", err)
	}
	r.Logic = prompt.StripFences(refined)
	r.Refined = true
	return nil
}

// Baseline asks the model to answer question directly.
func (l *LogicLM) Baseline(ctx context.Context, question string) (Report, error) {
	if l.completer == nil {
		return Report{}, internalerr.ErrNoCompleter
	}
	r := Report{Mode: ModeBaseline, Description: question}
	answer, err := l.completer.Complete(ctx, prompt.Baseline(question))
	if err != nil {
		return r, fmt.Errorf("baseline: %w", err)
	}
	r.Answer = answer
	l.record(ctx, &r)
	return r, nil
}

// IndexKB embeds and stores the knowledge-base lines when the retriever
// keeps an index.
func (l *LogicLM) IndexKB(ctx context.Context) error {
	if l.kb == nil {
		return fmt.Errorf("%w: no knowledge base configured", internalerr.ErrInvalidConfig)
	}
	idx, ok := l.retriever.(interface {
		Index(ctx context.Context, lines []string) error
	})
	if !ok {
		return fmt.Errorf("%w: retriever does not keep an index", internalerr.ErrInvalidConfig)
	}
	return idx.Index(ctx, l.kb.Lines())
}

// Runs lists stored runs, newest first.
func (l *LogicLM) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if l.store == nil {
		return nil, internalerr.ErrStoreUnavailable
	}
	return l.store.ListRuns(ctx, limit)
}

// Run loads one stored run.
func (l *LogicLM) Run(ctx context.Context, id string) (store.Run, error) {
	if l.store == nil {
		return store.Run{}, internalerr.ErrStoreUnavailable
	}
	return l.store.GetRun(ctx, id)
}

// record assigns a run ID and persists the run. A store failure is logged;
// the caller still gets its report.
func (l *LogicLM) record(ctx context.Context, r *Report) {
	now := l.now()
	l.mu.Lock()
	r.RunID = ulid.MustNew(ulid.Timestamp(now), l.entropy).String()
	l.mu.Unlock()

	if l.store == nil {
		return
	}
	run := store.Run{
		ID:          r.RunID,
		CreatedAt:   now,
		Mode:        r.Mode,
		Description: r.Description,
		Context:     r.Context,
		Logic:       r.Logic,
		Errors:      r.Errors,
		Refined:     r.Refined,
		Derived:     r.Facts,
		Answer:      r.Answer,
	}
	if err := l.store.SaveRun(ctx, run); err != nil {
		l.logger.Warn("run not saved", zap.String("run", r.RunID), zap.Error(err))
		return
	}
	l.logger.Debug("run saved", zap.String("run", r.RunID), zap.String("mode", r.Mode))
}
