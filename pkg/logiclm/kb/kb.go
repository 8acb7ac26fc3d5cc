// Package kb loads background knowledge files: one clause per line, with
// "%" comment lines allowed. The lines feed retrieval, and the fact lines are
// merged into generated programs before evaluation.
package kb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// KB is a loaded knowledge-base file.
type KB struct {
	Source string
	lines  []string
}

// Load reads a knowledge-base file. The file's base name becomes the source.
func Load(path string) (*KB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kb: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Base(path))
}

// Parse reads knowledge-base lines from r.
func Parse(r io.Reader, source string) (*KB, error) {
	kb := &KB{Source: source}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			kb.lines = append(kb.lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read kb %s: %w", source, err)
	}
	return kb, nil
}

// Lines returns the non-empty trimmed lines, comments included.
func (k *KB) Lines() []string {
	return append([]string(nil), k.lines...)
}

// FactText returns the fact lines joined by newlines: comments ("%") and
// rule lines are left out.
func (k *KB) FactText() string {
	var facts []string
	for _, line := range k.lines {
		if strings.HasPrefix(line, "%") || strings.Contains(line, logic.RuleMarker) {
			continue
		}
		facts = append(facts, line)
	}
	return strings.Join(facts, "\n")
}
