package prompt

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestPrompts(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, "translate", []byte(Translate("Tom is Bob's brother. Bob is Ann's parent.")))
	g.Assert(t, "translate_context", []byte(TranslateWithContext(
		[]string{"parent(bob, ann).", "sibling(tom, bob)."},
		"Define uncle.",
	)))
	g.Assert(t, "refine", []byte(Refine(
		"parent(bob, ann)\nsibling tom bob.",
		[]string{"Missing period at end.", "Missing parentheses."},
	)))
	g.Assert(t, "baseline", []byte(Baseline("Is Tom Ann's uncle?")))
}

func TestRefineWithoutErrors(t *testing.T) {
	got := Refine("p(a).", nil)
	want := "The following Prolog-like logic contains syntax errors:\n\n\n" +
		"Please correct only the syntax errors while keeping ALL the original facts and rules." +
		" Do NOT add, remove, or answer anything." +
		" Only fix the syntax. Keep facts and rules exactly as they are.\n\np(a)."
	if got != want {
		t.Errorf("Refine(nil errors) = %q", got)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  p(a).\nq(b).\n", "p(a).\nq(b)."},
		{"prolog fence", "```prolog\np(a).\nq(b).\n```", "p(a).\nq(b)."},
		{"bare fence", "```\np(a).\n```\n", "p(a)."},
		{"unterminated", "```\np(a).", "p(a)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
