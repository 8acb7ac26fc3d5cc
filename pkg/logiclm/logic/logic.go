// Package logic holds the data model of the inference engine: facts, rules,
// the per-call knowledge state and derived fact sets, plus the text parser
// that builds them from Prolog-style clause lines.
//
// Terms are plain strings. Nothing here distinguishes variables from
// constants; a token acts as a variable only by being bound during matching.
package logic

import (
	"sort"
	"strings"
)

// Placeholder is emitted for a head variable that no body atom binds.
const Placeholder = "?"

// Fact is a flat atom predicate(arg1, arg2, ...).
type Fact struct {
	Predicate string   `json:"predicate"`
	Args      []string `json:"args"`
}

// NewFact builds a fact from a predicate and its arguments.
func NewFact(predicate string, args ...string) Fact {
	return Fact{Predicate: predicate, Args: args}
}

// Arity returns the number of arguments.
func (f Fact) Arity() int { return len(f.Args) }

// Equal reports structural equality (predicate plus full argument sequence).
func (f Fact) Equal(other Fact) bool {
	if f.Predicate != other.Predicate || len(f.Args) != len(other.Args) {
		return false
	}
	for i := range f.Args {
		if f.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// String renders the fact as "pred(a, b)" without a trailing period.
func (f Fact) String() string {
	return f.Predicate + "(" + strings.Join(f.Args, ", ") + ")"
}

// Clause renders the fact as a clause line, "pred(a, b).".
func (f Fact) Clause() string {
	return f.String() + "."
}

func (f Fact) key() string {
	var b strings.Builder
	b.WriteString(f.Predicate)
	for _, a := range f.Args {
		b.WriteByte(0)
		b.WriteString(a)
	}
	return b.String()
}

// Rule is a rule line kept as raw text ("head :- body"). Splitting into head
// and body atoms happens at evaluation time so that a malformed rule only
// fails itself.
type Rule struct {
	Text string `json:"text"`
}

// Atom is a parsed fact-pattern: a predicate and its argument tokens.
type Atom struct {
	Predicate string
	Terms     []string
}

// String renders the atom as "pred(A, B)".
func (a Atom) String() string {
	return a.Predicate + "(" + strings.Join(a.Terms, ", ") + ")"
}

// KnowledgeBase is the working state built by Parse. It is a value owned by
// the caller; nothing retains it between calls.
type KnowledgeBase struct {
	Facts []Fact
	Rules []Rule
	// Skipped lists lines that were neither a rule nor a well-formed fact.
	Skipped []string
}

// Index groups fact argument tuples by predicate, keeping insertion order.
func (kb KnowledgeBase) Index() map[string][][]string {
	idx := make(map[string][][]string)
	for _, f := range kb.Facts {
		idx[f.Predicate] = append(idx[f.Predicate], f.Args)
	}
	return idx
}

// Contains reports whether a structurally equal fact is present.
func (kb KnowledgeBase) Contains(f Fact) bool {
	return containsFact(kb.Facts, f)
}

func containsFact(facts []Fact, f Fact) bool {
	for _, existing := range facts {
		if existing.Equal(f) {
			return true
		}
	}
	return false
}

// FactSet is a set of facts keyed by structural equality.
type FactSet struct {
	items map[string]Fact
}

// NewFactSet returns a set holding the given facts.
func NewFactSet(facts ...Fact) FactSet {
	s := FactSet{items: make(map[string]Fact, len(facts))}
	for _, f := range facts {
		s.Add(f)
	}
	return s
}

// Add inserts f and reports whether it was new.
func (s *FactSet) Add(f Fact) bool {
	if s.items == nil {
		s.items = make(map[string]Fact)
	}
	k := f.key()
	if _, ok := s.items[k]; ok {
		return false
	}
	args := make([]string, len(f.Args))
	copy(args, f.Args)
	s.items[k] = Fact{Predicate: f.Predicate, Args: args}
	return true
}

// Contains reports membership.
func (s FactSet) Contains(f Fact) bool {
	_, ok := s.items[f.key()]
	return ok
}

// Len returns the number of distinct facts.
func (s FactSet) Len() int { return len(s.items) }

// Sorted returns the facts ordered by predicate then arguments. Set order is
// otherwise unspecified; this exists for stable presentation only.
func (s FactSet) Sorted() []Fact {
	out := make([]Fact, 0, len(s.items))
	for _, f := range s.items {
		out = append(out, f)
	}
	SortFacts(out)
	return out
}

// SortFacts orders facts by predicate, then argument-wise.
func SortFacts(facts []Fact) {
	sort.Slice(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		for k := 0; k < len(a.Args) && k < len(b.Args); k++ {
			if a.Args[k] != b.Args[k] {
				return a.Args[k] < b.Args[k]
			}
		}
		return len(a.Args) < len(b.Args)
	})
}
