package logic

import (
	"fmt"
	"strings"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
)

// RuleMarker separates a rule head from its body.
const RuleMarker = ":-"

// symmetricPredicate is normalized so that every binary fact also holds reversed.
const symmetricPredicate = "sibling"

// Parse builds a fresh knowledge base from clause text, one clause per line.
//
// Lines containing ":-" are kept as raw rules. Other lines must contain "("
// and ")" to become facts; anything else lands in Skipped. Parse never fails.
func Parse(text string) KnowledgeBase {
	var kb KnowledgeBase

	for _, raw := range strings.Split(text, "\n") {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}

		if strings.Contains(line, RuleMarker) {
			kb.Rules = append(kb.Rules, Rule{Text: line})
			continue
		}

		if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
			kb.Skipped = append(kb.Skipped, line)
			continue
		}

		atom, ok := ParseAtom(line)
		if !ok {
			kb.Skipped = append(kb.Skipped, line)
			continue
		}
		kb.Facts = append(kb.Facts, Fact{Predicate: atom.Predicate, Args: atom.Terms})
	}

	kb.Facts = append(kb.Facts, symmetricClosure(kb.Facts)...)
	return kb
}

// normalizeLine trims whitespace and a single trailing period.
func normalizeLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = strings.TrimSuffix(line, ".")
	return strings.TrimSpace(line)
}

// symmetricClosure returns the reversed sibling facts missing from scanned.
// Presence is checked against the scanned list only, not against reversals
// produced in the same pass.
func symmetricClosure(scanned []Fact) []Fact {
	var added []Fact
	for _, f := range scanned {
		if f.Predicate != symmetricPredicate || len(f.Args) != 2 {
			continue
		}
		reversed := NewFact(symmetricPredicate, f.Args[1], f.Args[0])
		if !containsFact(scanned, reversed) {
			added = append(added, reversed)
		}
	}
	return added
}

// ParseAtom splits "pred(a, b)" at the first "(" into a predicate and its
// comma-separated, trimmed terms. Closing parentheses are stripped from both
// ends of the argument text. It reports false when there is no "(".
func ParseAtom(text string) (Atom, bool) {
	text = strings.TrimSpace(text)
	open := strings.Index(text, "(")
	if open == -1 {
		return Atom{}, false
	}

	predicate := strings.TrimSpace(text[:open])
	args := strings.Trim(text[open+1:], ")")

	parts := strings.Split(args, ",")
	terms := make([]string, len(parts))
	for i, p := range parts {
		terms[i] = strings.TrimSpace(p)
	}
	return Atom{Predicate: predicate, Terms: terms}, true
}

// SplitRule splits a raw rule into its head atom and body atoms.
func SplitRule(text string) (Atom, []Atom, error) {
	marker := strings.Index(text, RuleMarker)
	if marker == -1 {
		return Atom{}, nil, fmt.Errorf("%w: missing %q", internalerr.ErrMalformedRule, RuleMarker)
	}

	headText := strings.TrimSpace(text[:marker])
	head, ok := ParseAtom(headText)
	if !ok {
		return Atom{}, nil, fmt.Errorf("%w: head %q has no argument list", internalerr.ErrMalformedRule, headText)
	}

	bodyText := strings.TrimSpace(text[marker+len(RuleMarker):])
	if strings.HasPrefix(bodyText, "(") && strings.HasSuffix(bodyText, ")") {
		bodyText = bodyText[1 : len(bodyText)-1]
	}

	parts := SplitBody(bodyText)
	body := make([]Atom, 0, len(parts))
	for _, part := range parts {
		atom, ok := ParseAtom(part)
		if !ok {
			return Atom{}, nil, fmt.Errorf("%w: body atom %q has no argument list", internalerr.ErrMalformedRule, part)
		}
		body = append(body, atom)
	}
	return head, body, nil
}

// SplitBody splits a rule body on the commas that separate atoms. A comma is a
// separator unless the next parenthesis after it is a ")", which means the
// comma sits inside an argument list. Parts are trimmed; an empty body yields
// a single empty part.
func SplitBody(body string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] != ',' || insideArgs(body[i+1:]) {
			continue
		}
		parts = append(parts, strings.TrimSpace(body[start:i]))
		start = i + 1
	}
	return append(parts, strings.TrimSpace(body[start:]))
}

// insideArgs reports whether the first parenthesis in rest closes a group.
func insideArgs(rest string) bool {
	i := strings.IndexAny(rest, "()")
	return i != -1 && rest[i] == ')'
}
