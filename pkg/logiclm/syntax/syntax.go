// Package syntax performs a superficial line-level check of clause text.
//
// The check is necessary, not sufficient: it does not balance parentheses,
// count arguments or look at operators. Its findings are advisory data meant
// for an external repair step and never block evaluation.
package syntax

import "strings"

// Messages produced by the checker.
const (
	MissingPeriod      = "Missing period at end."
	MissingParentheses = "Missing parentheses."
)

// Issue is one finding, with the 1-based line it was found on.
type Issue struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Validate returns the findings for every non-blank line, in line order.
// A line contributes zero, one or two messages. Any input is accepted.
func Validate(text string) []string {
	var errs []string
	for _, issue := range Check(text) {
		errs = append(errs, issue.Message)
	}
	return errs
}

// Check is Validate with line attribution.
func Check(text string) []Issue {
	var issues []Issue
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ".") {
			issues = append(issues, Issue{Line: i + 1, Text: line, Message: MissingPeriod})
		}
		if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
			issues = append(issues, Issue{Line: i + 1, Text: line, Message: MissingParentheses})
		}
	}
	return issues
}
