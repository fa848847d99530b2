// Package gaps classifies added lines against a file's coverage record,
// surfacing the lines that execute without being exercised by any test.
package gaps

import (
	"sort"

	"github.com/bkyoung/covcheck/internal/coverage"
	"github.com/bkyoung/covcheck/internal/domain"
)

// lineSet is an unordered set of line numbers with sorted extraction.
type lineSet map[int]struct{}

func newLineSet(lines []int) lineSet {
	set := make(lineSet, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set
}

func (s lineSet) add(line int) {
	s[line] = struct{}{}
}

func (s lineSet) contains(line int) bool {
	_, ok := s[line]
	return ok
}

func (s lineSet) sorted() []int {
	lines := make([]int, 0, len(s))
	for line := range s {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// Classify determines which added lines fall inside an unexecuted
// statement, function body, or branch arm of the file's coverage record.
//
// A nil record means the file was never instrumented; that is always an
// issue regardless of the added lines, reported with HasTests=false.
// A non-nil record whose gaps do not intersect the added lines yields
// nil: the file is omitted from the report entirely.
func Classify(path string, addedLines []int, record *coverage.FileCoverage) *domain.GapEntry {
	if record == nil {
		return &domain.GapEntry{
			Path:       path,
			HasTests:   false,
			All:        []int{},
			Statements: []int{},
			Functions:  []int{},
			Ifs:        []int{},
			Elses:      []int{},
		}
	}

	added := newLineSet(addedLines)
	all := make(lineSet)

	statements := uncoveredStatements(record, added, all)
	functions := uncoveredFunctions(record, added, all)
	ifs, elses := uncoveredBranchArms(record, added, all)

	if len(all) == 0 {
		return nil
	}

	return &domain.GapEntry{
		Path:       path,
		HasTests:   true,
		All:        all.sorted(),
		Statements: statements,
		Functions:  functions,
		Ifs:        ifs,
		Elses:      elses,
	}
}

func uncoveredStatements(record *coverage.FileCoverage, added, all lineSet) []int {
	lines := []int{}
	for key, count := range record.S {
		if count != 0 {
			continue
		}
		loc := record.StatementMap[key]
		lines = append(lines, collect(loc, added, all)...)
	}
	return lines
}

func uncoveredFunctions(record *coverage.FileCoverage, added, all lineSet) []int {
	lines := []int{}
	for key, count := range record.F {
		if count != 0 {
			continue
		}
		loc := record.FnMap[key].Loc
		lines = append(lines, collect(loc, added, all)...)
	}
	return lines
}

// uncoveredBranchArms evaluates the two arm counts of every branch group
// independently: a single added line inside the branch range lands in
// both category lists when both arms are unexecuted, but only once in
// the running all-set.
func uncoveredBranchArms(record *coverage.FileCoverage, added, all lineSet) (ifs, elses []int) {
	ifs, elses = []int{}, []int{}
	for key, counts := range record.B {
		loc := record.BranchMap[key].Loc
		if counts[0] == 0 {
			ifs = append(ifs, collect(loc, added, all)...)
		}
		if counts[1] == 0 {
			elses = append(elses, collect(loc, added, all)...)
		}
	}
	return ifs, elses
}

// collect returns the added lines inside the inclusive range and records
// them into the running all-set.
func collect(loc coverage.Range, added, all lineSet) []int {
	var lines []int
	for line := loc.Start.Line; line <= loc.End.Line; line++ {
		if !added.contains(line) {
			continue
		}
		lines = append(lines, line)
		all.add(line)
	}
	return lines
}
