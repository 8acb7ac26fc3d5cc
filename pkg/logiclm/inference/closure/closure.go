// Package closure evaluates a knowledge base to a fixpoint with Google Mangle.
//
// It exists to show what a full bottom-up Datalog evaluation would add on top
// of the single-pass engine; it is never the default evaluator. Rules are
// translated into Mangle clauses: rule tokens that start with an upper-case
// letter or "_" become variables, every other token a string constant. Rules
// Mangle would reject are dropped and reported as rule failures.
package closure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"github.com/cognicore/logiclm/pkg/logiclm/inference"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// DefaultFactLimit bounds the facts created during evaluation.
const DefaultFactLimit = 100000

var predicateName = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*$`)

// Engine is a fixpoint evaluator backed by Mangle.
type Engine struct {
	logger    *zap.Logger
	factLimit int
}

// New creates a fixpoint engine. factLimit <= 0 selects DefaultFactLimit.
func New(logger *zap.Logger, factLimit int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factLimit <= 0 {
		factLimit = DefaultFactLimit
	}
	return &Engine{logger: logger, factLimit: factLimit}
}

type rule struct {
	index int
	text  string
	head  logic.Atom
	body  []logic.Atom
}

// Evaluate implements inference.Engine. Derived facts are those of rule-head
// predicates that were not input facts; the anti-reflexivity filter is applied
// to this output only.
func (e *Engine) Evaluate(kb logic.KnowledgeBase) (inference.Result, error) {
	res := inference.Result{Derived: logic.NewFactSet()}

	// Mangle needs one arity per predicate; the first one seen wins.
	arities := make(map[string]int)

	var facts []logic.Fact
	for _, f := range kb.Facts {
		if !predicateName.MatchString(f.Predicate) {
			e.logger.Debug("fact not representable", zap.String("fact", f.String()))
			continue
		}
		if n, ok := arities[f.Predicate]; ok && n != len(f.Args) {
			e.logger.Debug("fact arity conflicts", zap.String("fact", f.String()), zap.Int("arity", n))
			continue
		}
		arities[f.Predicate] = len(f.Args)
		facts = append(facts, f)
	}

	var rules []rule
	for i, r := range kb.Rules {
		head, body, err := logic.SplitRule(r.Text)
		if err == nil {
			err = checkRule(head, body)
		}
		if err == nil {
			err = checkArities(arities, append([]logic.Atom{head}, body...))
		}
		if err != nil {
			res.Failures = append(res.Failures, inference.RuleError{Index: i, Rule: r.Text, Err: err})
			continue
		}
		rules = append(rules, rule{index: i, text: r.Text, head: head, body: body})
	}
	rules, dropped := dropUndefined(facts, rules)
	res.Failures = append(res.Failures, dropped...)

	if len(rules) == 0 {
		return res, nil
	}

	program := render(facts, rules)
	unit, err := parse.Unit(strings.NewReader(program))
	if err != nil {
		return res, fmt.Errorf("closure: parse program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return res, fmt.Errorf("closure: analyze program: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	stats, err := mengine.EvalProgramWithStats(programInfo, store, mengine.WithCreatedFactLimit(e.factLimit))
	if err != nil {
		return res, fmt.Errorf("closure: evaluate: %w", err)
	}
	e.logger.Debug("closure evaluated", zap.Int("strata", len(stats.Strata)))

	input := logic.NewFactSet(facts...)
	heads := make(map[string]bool, len(rules))
	for _, r := range rules {
		heads[r.head.Predicate] = true
	}

	for sym := range programInfo.Decls {
		if !heads[sym.Symbol] {
			continue
		}
		err := store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
			f := logic.Fact{Predicate: sym.Symbol, Args: make([]string, len(a.Args))}
			for i, arg := range a.Args {
				f.Args[i] = termString(arg)
			}
			if input.Contains(f) {
				return nil
			}
			if len(f.Args) >= 2 && f.Args[0] == f.Args[1] {
				return nil
			}
			res.Derived.Add(f)
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("closure: read %s: %w", sym.Symbol, err)
		}
	}
	return res, nil
}

// checkRule rejects rules Mangle cannot accept: bad predicate names and head
// variables that no body atom binds.
func checkRule(head logic.Atom, body []logic.Atom) error {
	if !predicateName.MatchString(head.Predicate) {
		return fmt.Errorf("%w: predicate %q is not an identifier", internalerr.ErrMalformedRule, head.Predicate)
	}
	bound := make(map[string]bool)
	for _, atom := range body {
		if !predicateName.MatchString(atom.Predicate) {
			return fmt.Errorf("%w: predicate %q is not an identifier", internalerr.ErrMalformedRule, atom.Predicate)
		}
		for _, term := range atom.Terms {
			if isVariable(term) {
				bound[term] = true
			}
		}
	}
	for _, term := range head.Terms {
		if term == "_" || (isVariable(term) && !bound[term]) {
			return fmt.Errorf("%w: head variable %q is not bound by the body", internalerr.ErrMalformedRule, term)
		}
	}
	return nil
}

// checkArities rejects atoms whose arity differs from an earlier use of the
// same predicate. The atoms of an accepted rule fix their predicates' arities.
func checkArities(arities map[string]int, atoms []logic.Atom) error {
	local := make(map[string]int, len(atoms))
	for _, atom := range atoms {
		n, ok := arities[atom.Predicate]
		if !ok {
			n, ok = local[atom.Predicate]
		}
		if ok && n != len(atom.Terms) {
			return fmt.Errorf("%w: %s used with %d arguments, expected %d",
				internalerr.ErrMalformedRule, atom.Predicate, len(atom.Terms), n)
		}
		local[atom.Predicate] = len(atom.Terms)
	}
	for p, n := range local {
		arities[p] = n
	}
	return nil
}

// dropUndefined removes rules whose body mentions a predicate that has
// neither facts nor a surviving rule, until nothing changes.
func dropUndefined(facts []logic.Fact, rules []rule) ([]rule, []inference.RuleError) {
	var dropped []inference.RuleError
	for {
		defined := make(map[string]bool)
		for _, f := range facts {
			defined[f.Predicate] = true
		}
		for _, r := range rules {
			defined[r.head.Predicate] = true
		}

		kept := rules[:0:0]
		for _, r := range rules {
			missing := ""
			for _, atom := range r.body {
				if !defined[atom.Predicate] {
					missing = atom.Predicate
					break
				}
			}
			if missing != "" {
				dropped = append(dropped, inference.RuleError{
					Index: r.index,
					Rule:  r.text,
					Err:   fmt.Errorf("%w: %s", internalerr.ErrNotFound, missing),
				})
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == len(rules) {
			return kept, dropped
		}
		rules = kept
	}
}

func render(facts []logic.Fact, rules []rule) string {
	var b strings.Builder
	for _, f := range facts {
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			args[i] = strconv.Quote(a)
		}
		fmt.Fprintf(&b, "%s(%s).\n", f.Predicate, strings.Join(args, ", "))
	}
	for _, r := range rules {
		body := make([]string, len(r.body))
		for i, atom := range r.body {
			body[i] = renderAtom(atom)
		}
		fmt.Fprintf(&b, "%s :- %s.\n", renderAtom(r.head), strings.Join(body, ", "))
	}
	return b.String()
}

func renderAtom(a logic.Atom) string {
	terms := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		if isVariable(t) {
			terms[i] = t
		} else {
			terms[i] = strconv.Quote(t)
		}
	}
	return a.Predicate + "(" + strings.Join(terms, ", ") + ")"
}

func isVariable(token string) bool {
	if token == "" {
		return false
	}
	first := rune(token[0])
	if first != '_' && !unicode.IsUpper(first) {
		return false
	}
	for _, r := range token {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func termString(term ast.BaseTerm) string {
	if c, ok := term.(ast.Constant); ok && c.Type == ast.StringType {
		return c.Symbol
	}
	return term.String()
}
