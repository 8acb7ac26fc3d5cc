package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const familyKB = `% family background
parent(tom, liz).

  parent(bob, ann).
sibling(tom, bob).
uncle(X,Y) :- parent(Z,Y), sibling(X,Z).
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.pl")
	if err := os.WriteFile(path, []byte(familyKB), 0o644); err != nil {
		t.Fatalf("write kb: %v", err)
	}

	k, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k.Source != "family.pl" {
		t.Errorf("Source = %q", k.Source)
	}

	wantLines := []string{
		"% family background",
		"parent(tom, liz).",
		"parent(bob, ann).",
		"sibling(tom, bob).",
		"uncle(X,Y) :- parent(Z,Y), sibling(X,Z).",
	}
	if diff := cmp.Diff(wantLines, k.Lines()); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}

	wantFacts := "parent(tom, liz).\nparent(bob, ann).\nsibling(tom, bob)."
	if got := k.FactText(); got != wantFacts {
		t.Errorf("FactText = %q, want %q", got, wantFacts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.pl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	k, err := Parse(strings.NewReader("a(x).\n"), "mem")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lines := k.Lines()
	lines[0] = "changed"
	if k.Lines()[0] != "a(x)." {
		t.Error("Lines exposes internal slice")
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><body>
<p>parent(not, code).</p>
<pre><code>parent(tom, liz).
parent(bob, ann)
  sibling(tom, bob).
</code></pre>
<p>Inline <code>uncle(X,Y) :- parent(Z,Y), sibling(X,Z).</code> rule.</p>
<code>parent(tom, liz).</code>
</body></html>`

	got, err := ExtractHTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	want := []string{
		"parent(tom, liz).",
		"sibling(tom, bob).",
		"uncle(X,Y) :- parent(Z,Y), sibling(X,Z).",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractHTML mismatch (-want +got):\n%s", diff)
	}
}
