// Package prompt renders the instructions sent to the language model.
package prompt

import (
	"bytes"
	"strings"
	"text/template"
)

var (
	translateTmpl = template.Must(template.New("translate").Parse(
		"Translate the following description into symbolic Prolog-style logic facts and rules." +
			" Only output facts and rules." +
			" Do NOT include any queries, answers, or explanations." +
			" Ensure correct syntax with a period at the end of each fact and rule." +
			" Do NOT use markdown formatting or code blocks." +
			"\n\n{{.Question}}"))

	contextTmpl = template.Must(template.New("context").Parse(
		"You are given some background knowledge:\n\n{{.Context}}\n\n" +
			"Translate the following description into general Prolog-style logic rules." +
			" Only output general rules. Do NOT output specific facts, queries, or answers." +
			" The rules should work for any entity, not just a particular example." +
			" Use the convention that sibling(X, Y) means X is a sibling of Y, and sibling relationships are symmetric." +
			" Make sure to define uncle(X, Y) as: uncle(X, Y) :- parent(Z, Y), sibling(X, Z)." +
			" Ensure each rule ends with a period.\n\n" +
			"{{.Description}}"))

	refineTmpl = template.Must(template.New("refine").Parse(
		"The following Prolog-like logic contains syntax errors:\n" +
			"{{range $i, $e := .Errors}}{{if $i}}\n{{end}}{{$e}}{{end}}\n\n" +
			"Please correct only the syntax errors while keeping ALL the original facts and rules." +
			" Do NOT add, remove, or answer anything." +
			" Only fix the syntax. Keep facts and rules exactly as they are." +
			"\n\n{{.Logic}}"))

	baselineTmpl = template.Must(template.New("baseline").Parse(
		"Answer the following logical reasoning question:\n\n{{.Question}}"))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// The templates only print strings; execution cannot fail.
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}

// Translate asks for facts and rules describing question.
func Translate(question string) string {
	return render(translateTmpl, struct{ Question string }{question})
}

// TranslateWithContext asks for general rules only, with the retrieved
// background lines shown first.
func TranslateWithContext(context []string, description string) string {
	return render(contextTmpl, struct {
		Context     string
		Description string
	}{strings.Join(context, "\n"), description})
}

// Refine asks for a syntax-only repair of logic, listing one error per line.
func Refine(logic string, errors []string) string {
	return render(refineTmpl, struct {
		Logic  string
		Errors []string
	}{logic, errors})
}

// Baseline asks for a direct answer with no symbolic step.
func Baseline(question string) string {
	return render(baselineTmpl, struct{ Question string }{question})
}

// StripFences removes a markdown code fence wrapped around model output.
// Text without a leading fence is returned trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
