package inference

import (
	"fmt"

	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// Engine derives new facts from a parsed knowledge base.
// This interface allows swapping evaluators (single-pass join, fixpoint, ...).
type Engine interface {
	// Evaluate runs the rules of kb against its facts.
	// Rule-level problems are reported in Result.Failures; the returned error
	// is reserved for failures of the evaluator itself.
	Evaluate(kb logic.KnowledgeBase) (Result, error)
}

// Result holds the derived facts of one evaluation.
type Result struct {
	Derived  logic.FactSet
	Failures []RuleError
}

// Facts returns the derived facts in a stable order.
func (r Result) Facts() []logic.Fact {
	return r.Derived.Sorted()
}

// RuleError records a rule that could not be (fully) evaluated.
type RuleError struct {
	Index int    // position of the rule in the knowledge base
	Rule  string // raw rule text
	Err   error
}

func (e RuleError) Error() string {
	return fmt.Sprintf("rule %d %q: %v", e.Index+1, e.Rule, e.Err)
}

func (e RuleError) Unwrap() error { return e.Err }
