// Package export writes derived facts back out as clause lines that Parse
// can read again.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// Writer persists rendered clause text to a destination.
type Writer interface {
	WriteFacts(ctx context.Context, content string) error
}

// Exporter renders facts as "pred(a, b)." lines, one per fact.
type Exporter struct {
	Writer Writer
	// Header, when set, is written first as a "%" comment line.
	Header string
}

// Export renders facts in the given order and hands them to the writer.
func (e *Exporter) Export(ctx context.Context, facts []logic.Fact) error {
	if e.Writer == nil {
		return fmt.Errorf("fact exporter: nil writer")
	}
	var b strings.Builder
	if e.Header != "" {
		for _, line := range strings.Split(e.Header, "\n") {
			b.WriteString("% " + line + "\n")
		}
	}
	for _, f := range facts {
		b.WriteString(f.Clause())
		b.WriteByte('\n')
	}
	return e.Writer.WriteFacts(ctx, b.String())
}

// FileWriter replaces the file at Path. The content is written to a
// temporary file in the same directory first and renamed into place.
type FileWriter struct {
	Path string
}

// WriteFacts implements Writer.
func (w FileWriter) WriteFacts(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".export-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("export: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// StreamWriter writes to an io.Writer such as stdout.
type StreamWriter struct {
	W io.Writer
}

// WriteFacts implements Writer.
func (w StreamWriter) WriteFacts(ctx context.Context, content string) error {
	_, err := io.WriteString(w.W, content)
	return err
}
