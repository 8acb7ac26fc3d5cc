package naive

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/logiclm/pkg/logiclm/inference"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// Engine evaluates every rule exactly once against the original facts by
// joining the body atoms' candidate facts. Facts derived by one rule are not
// visible to any other rule; there is no fixpoint iteration.
//
// Engine holds no working state and is safe for concurrent use.
type Engine struct {
	logger  *zap.Logger
	maxJoin int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxCombinations bounds the join steps spent on a single rule. A rule
// that runs out of budget keeps what it derived so far and is reported as a
// failure. Zero means unlimited.
func WithMaxCombinations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxJoin = n
		}
	}
}

// New creates a single-pass engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Solve parses text and evaluates it.
func (e *Engine) Solve(text string) (logic.KnowledgeBase, inference.Result) {
	kb := logic.Parse(text)
	for _, line := range kb.Skipped {
		e.logger.Debug("skipping invalid line", zap.String("line", line))
	}
	// Evaluate never returns an error.
	res, _ := e.Evaluate(kb)
	return kb, res
}

// Evaluate implements inference.Engine.
func (e *Engine) Evaluate(kb logic.KnowledgeBase) (inference.Result, error) {
	index := kb.Index()
	res := inference.Result{Derived: logic.NewFactSet()}

	for i, rule := range kb.Rules {
		if err := e.evalRule(rule, index, &res.Derived); err != nil {
			e.logger.Warn("rule not evaluated",
				zap.Int("rule", i+1),
				zap.String("text", rule.Text),
				zap.Error(err))
			res.Failures = append(res.Failures, inference.RuleError{Index: i, Rule: rule.Text, Err: err})
		}
	}

	e.logger.Debug("evaluation complete",
		zap.Int("facts", len(kb.Facts)),
		zap.Int("rules", len(kb.Rules)),
		zap.Int("derived", res.Derived.Len()),
		zap.Int("failed_rules", len(res.Failures)))
	return res, nil
}

func (e *Engine) evalRule(rule logic.Rule, index map[string][][]string, out *logic.FactSet) error {
	head, body, err := logic.SplitRule(rule.Text)
	if err != nil {
		return err
	}

	candidates := make([][][]string, len(body))
	for i, atom := range body {
		candidates[i] = index[atom.Predicate]
		if len(candidates[i]) == 0 {
			// Empty product: the rule cannot fire.
			return nil
		}
	}

	j := &join{
		head:       head,
		body:       body,
		candidates: candidates,
		bindings:   make(map[string]string),
		limit:      e.maxJoin,
		out:        out,
	}
	return j.run(0)
}

// join enumerates the cartesian product of candidate facts depth-first, in
// atom order and fact insertion order, pruning on inconsistent bindings.
type join struct {
	head       logic.Atom
	body       []logic.Atom
	candidates [][][]string
	bindings   map[string]string
	steps      int
	limit      int
	out        *logic.FactSet
}

func (j *join) run(depth int) error {
	terms := j.body[depth].Terms
	for _, tuple := range j.candidates[depth] {
		j.steps++
		if j.limit > 0 && j.steps > j.limit {
			return fmt.Errorf("%w: more than %d join steps", internalerr.ErrCombinationLimit, j.limit)
		}

		added, ok := j.bind(terms, tuple)
		if ok {
			if depth == len(j.body)-1 {
				j.emit()
			} else if err := j.run(depth + 1); err != nil {
				return err
			}
		}
		for _, name := range added {
			delete(j.bindings, name)
		}
	}
	return nil
}

// bind pairs terms with values up to the shorter of the two. It returns the
// names it newly bound so the caller can undo them.
func (j *join) bind(terms, values []string) ([]string, bool) {
	var added []string
	n := min(len(terms), len(values))
	for i := 0; i < n; i++ {
		name, val := terms[i], values[i]
		if bound, ok := j.bindings[name]; ok {
			if bound != val {
				return added, false
			}
			continue
		}
		j.bindings[name] = val
		added = append(added, name)
	}
	return added, true
}

func (j *join) emit() {
	args := make([]string, len(j.head.Terms))
	for i, name := range j.head.Terms {
		if val, ok := j.bindings[name]; ok {
			args[i] = val
		} else {
			args[i] = logic.Placeholder
		}
	}
	if len(args) >= 2 && args[0] == args[1] {
		return
	}
	j.out.Add(logic.Fact{Predicate: j.head.Predicate, Args: args})
}
