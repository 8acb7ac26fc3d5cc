package syntax

import (
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "valid fact",
			input: "parent(tom, liz).",
			want:  nil,
		},
		{
			name:  "missing period",
			input: "parent(tom,liz)",
			want:  []string{MissingPeriod},
		},
		{
			name:  "missing parentheses",
			input: "parent tom liz.",
			want:  []string{MissingParentheses},
		},
		{
			name:  "both problems",
			input: "parent tom liz",
			want:  []string{MissingPeriod, MissingParentheses},
		},
		{
			name:  "only open paren",
			input: "parent(tom, liz.",
			want:  []string{MissingParentheses},
		},
		{
			name:  "valid rule",
			input: "uncle(X, Y) :- parent(Z, Y), sibling(X, Z).",
			want:  nil,
		},
		{
			name:  "blank lines ignored",
			input: "\n  parent(tom, liz).\n\n\t\n",
			want:  nil,
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "multiple lines in order",
			input: "a(x)\nb y.\nc(z).",
			want:  []string{MissingPeriod, MissingParentheses},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateDeterministic(t *testing.T) {
	input := "a(x)\nb y\n\nc(z)."
	first := Validate(input)
	for i := 0; i < 5; i++ {
		if got := Validate(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestCheckLineNumbers(t *testing.T) {
	issues := Check("a(x).\n\nb y")
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	for _, issue := range issues {
		if issue.Line != 3 {
			t.Errorf("issue %q on line %d, want 3", issue.Message, issue.Line)
		}
		if issue.Text != "b y" {
			t.Errorf("issue text = %q", issue.Text)
		}
	}
}
