package gaps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/covcheck/internal/coverage"
	"github.com/bkyoung/covcheck/internal/gaps"
)

func lineRange(start, end int) coverage.Range {
	return coverage.Range{
		Start: coverage.Position{Line: start},
		End:   coverage.Position{Line: end},
	}
}

func TestClassify_AbsenceDominates(t *testing.T) {
	tests := []struct {
		name       string
		addedLines []int
	}{
		{name: "no added lines", addedLines: []int{}},
		{name: "with added lines", addedLines: []int{10, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := gaps.Classify("src/app.js", tt.addedLines, nil)
			require.NotNil(t, entry)

			assert.Equal(t, "src/app.js", entry.Path)
			assert.False(t, entry.HasTests)
			assert.Empty(t, entry.All)
			assert.Empty(t, entry.Statements)
			assert.Empty(t, entry.Functions)
			assert.Empty(t, entry.Ifs)
			assert.Empty(t, entry.Elses)
		})
	}
}

func TestClassify_FullCoverageOmitsFile(t *testing.T) {
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{"0": lineRange(10, 12)},
		FnMap:        map[string]coverage.Function{"0": {Name: "f", Loc: lineRange(10, 14)}},
		BranchMap:    map[string]coverage.Branch{"0": {Type: "if", Loc: lineRange(11, 11)}},
		S:            map[string]int{"0": 3},
		F:            map[string]int{"0": 1},
		B:            map[string][]int{"0": {2, 1}},
	}

	entry := gaps.Classify("src/app.js", []int{10, 11, 12}, record)
	assert.Nil(t, entry)
}

func TestClassify_GapOutsideAddedLinesOmitsFile(t *testing.T) {
	// The file has an uncovered statement, but none of the added lines
	// fall inside it.
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{"0": lineRange(50, 55)},
		S:            map[string]int{"0": 0},
	}

	entry := gaps.Classify("src/app.js", []int{10, 11}, record)
	assert.Nil(t, entry)
}

func TestClassify_UncoveredStatement(t *testing.T) {
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{
			"0": lineRange(10, 10),
			"1": lineRange(20, 22),
		},
		S: map[string]int{"0": 0, "1": 5},
	}

	entry := gaps.Classify("src/app.js", []int{10, 11, 20}, record)
	require.NotNil(t, entry)

	assert.True(t, entry.HasTests)
	assert.Equal(t, []int{10}, entry.All)
	assert.Equal(t, []int{10}, entry.Statements)
	assert.Empty(t, entry.Functions)
	assert.Empty(t, entry.Ifs)
	assert.Empty(t, entry.Elses)
}

func TestClassify_UncoveredFunctionBody(t *testing.T) {
	record := &coverage.FileCoverage{
		FnMap: map[string]coverage.Function{
			"0": {Name: "helper", Loc: lineRange(30, 34)},
		},
		F: map[string]int{"0": 0},
	}

	entry := gaps.Classify("src/app.js", []int{29, 31, 33, 40}, record)
	require.NotNil(t, entry)

	assert.ElementsMatch(t, []int{31, 33}, entry.Functions)
	assert.Equal(t, []int{31, 33}, entry.All)
}

func TestClassify_BranchArmsEvaluatedIndependently(t *testing.T) {
	tests := []struct {
		name      string
		counts    []int
		wantIfs   []int
		wantElses []int
	}{
		{name: "if arm uncovered", counts: []int{0, 4}, wantIfs: []int{11}, wantElses: []int{}},
		{name: "else arm uncovered", counts: []int{4, 0}, wantIfs: []int{}, wantElses: []int{11}},
		{name: "both arms uncovered", counts: []int{0, 0}, wantIfs: []int{11}, wantElses: []int{11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &coverage.FileCoverage{
				BranchMap: map[string]coverage.Branch{
					"0": {Type: "if", Loc: lineRange(10, 12)},
				},
				B: map[string][]int{"0": tt.counts},
			}

			entry := gaps.Classify("src/app.js", []int{11}, record)
			require.NotNil(t, entry)

			assert.Equal(t, tt.wantIfs, entry.Ifs)
			assert.Equal(t, tt.wantElses, entry.Elses)
			// Dual membership never duplicates the line in the merged set.
			assert.Equal(t, []int{11}, entry.All)
		})
	}
}

func TestClassify_AllSortedAndDeduplicated(t *testing.T) {
	// Overlapping statement, function, and branch gaps over the same
	// lines, with added lines supplied out of order and duplicated.
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{"0": lineRange(12, 14)},
		FnMap:        map[string]coverage.Function{"0": {Name: "f", Loc: lineRange(10, 14)}},
		BranchMap:    map[string]coverage.Branch{"0": {Type: "if", Loc: lineRange(13, 15)}},
		S:            map[string]int{"0": 0},
		F:            map[string]int{"0": 0},
		B:            map[string][]int{"0": {0, 0}},
	}

	entry := gaps.Classify("src/app.js", []int{14, 10, 13, 14, 12}, record)
	require.NotNil(t, entry)

	assert.Equal(t, []int{10, 12, 13, 14}, entry.All)
	assert.ElementsMatch(t, []int{12, 13, 14}, entry.Statements)
	assert.ElementsMatch(t, []int{10, 12, 13, 14}, entry.Functions)
	assert.ElementsMatch(t, []int{13, 14}, entry.Ifs)
	assert.ElementsMatch(t, []int{13, 14}, entry.Elses)
}

func TestClassify_EndToEndScenario(t *testing.T) {
	// Patch "@@ -5,0 +10,2 @@" adds lines 10 and 11; the record has a
	// single uncovered statement at line 10 and no other gaps.
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{
			"0": lineRange(10, 10),
			"1": lineRange(11, 11),
		},
		FnMap: map[string]coverage.Function{
			"0": {Name: "f", Loc: lineRange(1, 20)},
		},
		BranchMap: map[string]coverage.Branch{},
		S:         map[string]int{"0": 0, "1": 2},
		F:         map[string]int{"0": 1},
		B:         map[string][]int{},
	}

	entry := gaps.Classify("src/app.js", []int{10, 11}, record)
	require.NotNil(t, entry)

	assert.True(t, entry.HasTests)
	assert.Equal(t, []int{10}, entry.All)
	assert.Equal(t, []int{10}, entry.Statements)
	assert.Empty(t, entry.Functions)
	assert.Empty(t, entry.Ifs)
	assert.Empty(t, entry.Elses)
}

func TestClassify_LargeRangeMembershipScan(t *testing.T) {
	// A statement spanning thousands of lines must still intersect
	// correctly with a small added set.
	record := &coverage.FileCoverage{
		StatementMap: map[string]coverage.Range{"0": lineRange(1, 100000)},
		S:            map[string]int{"0": 0},
	}

	entry := gaps.Classify("src/generated.js", []int{99999, 3}, record)
	require.NotNil(t, entry)

	assert.Equal(t, []int{3, 99999}, entry.All)
}
