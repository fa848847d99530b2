// Package coverage models Istanbul-compatible coverage reports
// (conventionally coverage-final.json) as strongly-typed tables keyed by
// absolute file path.
package coverage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Position is a 1-based line location within a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is an inclusive source range for an instrumented construct.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Function describes one instrumented function declaration.
type Function struct {
	Name string `json:"name"`
	Decl Range  `json:"decl"`
	Loc  Range  `json:"loc"`
	Line int    `json:"line"`
}

// Branch describes one instrumented branch group. For binary branches
// (if/else, ternary, default-value) the matching count entry carries
// exactly two arm counts.
type Branch struct {
	Type      string  `json:"type"`
	Loc       Range   `json:"loc"`
	Locations []Range `json:"locations"`
	Line      int     `json:"line"`
}

// FileCoverage is the per-file coverage record: the statement, function,
// and branch tables plus their execution counts, sharing a key space.
type FileCoverage struct {
	Path         string              `json:"path"`
	StatementMap map[string]Range    `json:"statementMap"`
	FnMap        map[string]Function `json:"fnMap"`
	BranchMap    map[string]Branch   `json:"branchMap"`
	S            map[string]int      `json:"s"`
	F            map[string]int      `json:"f"`
	B            map[string][]int    `json:"b"`
}

// Report maps absolute file paths to their coverage records.
type Report map[string]FileCoverage

// File returns the coverage record for an absolute path. Absence is a
// normal outcome, not an error: it means the file was never instrumented
// or executed.
func (r Report) File(absolutePath string) (FileCoverage, bool) {
	record, ok := r[absolutePath]
	return record, ok
}

// Decode parses a coverage report and validates each record's key-space
// contract at the boundary, so classification never walks a table with
// a missing entry.
func Decode(reader io.Reader) (Report, error) {
	var report Report
	if err := json.NewDecoder(reader).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode coverage report: %w", err)
	}
	for path, record := range report {
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("coverage record %s: %w", path, err)
		}
	}
	return report, nil
}

// Load reads and decodes a coverage report from disk.
func Load(path string) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coverage report: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Validate checks that every count key has a matching map entry and that
// branch counts carry both arms. The coverage producer is trusted to emit
// consistent structures; a violation is a contract failure, surfaced as a
// MalformedCoverageError.
func (fc FileCoverage) Validate() error {
	for key := range fc.S {
		if _, ok := fc.StatementMap[key]; !ok {
			return &MalformedCoverageError{Table: "statementMap", Key: key}
		}
	}
	for key := range fc.F {
		if _, ok := fc.FnMap[key]; !ok {
			return &MalformedCoverageError{Table: "fnMap", Key: key}
		}
	}
	for key, counts := range fc.B {
		if _, ok := fc.BranchMap[key]; !ok {
			return &MalformedCoverageError{Table: "branchMap", Key: key}
		}
		if len(counts) < 2 {
			return &MalformedCoverageError{Table: "b", Key: key, Detail: fmt.Sprintf("expected 2 arm counts, got %d", len(counts))}
		}
	}
	return nil
}

// MalformedCoverageError reports a key-space violation in a coverage record.
type MalformedCoverageError struct {
	Table  string
	Key    string
	Detail string
}

// Error implements the error interface.
func (e *MalformedCoverageError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("malformed coverage: %s[%s]: %s", e.Table, e.Key, e.Detail)
	}
	return fmt.Sprintf("malformed coverage: missing %s entry for key %s", e.Table, e.Key)
}
