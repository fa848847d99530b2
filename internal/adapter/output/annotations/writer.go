// Package annotations surfaces gap entries as GitHub Actions workflow
// commands, so CI shows each uncovered line inline on the change.
package annotations

import (
	"fmt"
	"io"

	"github.com/bkyoung/covcheck/internal/domain"
)

// Writer emits one ::error workflow command per issue.
type Writer struct {
	out io.Writer
}

// NewWriter constructs an annotation writer targeting the given stream.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write emits annotations for every entry in the report. Files without
// a coverage record get a single file-level annotation; files with gaps
// get one annotation per uncovered added line.
func (w *Writer) Write(report domain.GapReport) error {
	for _, entry := range report.Entries {
		if !entry.HasTests {
			if _, err := fmt.Fprintf(w.out, "::error file=%s::file has no coverage\n", entry.Path); err != nil {
				return fmt.Errorf("write annotation: %w", err)
			}
			continue
		}
		for _, line := range entry.All {
			if _, err := fmt.Fprintf(w.out, "::error file=%s,line=%d::line %d lacks coverage\n", entry.Path, line, line); err != nil {
				return fmt.Errorf("write annotation: %w", err)
			}
		}
	}
	return nil
}
