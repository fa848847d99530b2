package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// ChangedLines holds the absolute line numbers a patch removes from the
// base revision and adds in the head revision. Lines are emitted in
// natural chunk order (ascending within a chunk, chunks in file order);
// consumers must not assume global sortedness.
type ChangedLines struct {
	Added   []int
	Removed []int
}

// hunkHeader is the typed form of a matched chunk header line.
type hunkHeader struct {
	RemovedStart int
	RemovedCount int
	AddedStart   int
	AddedCount   int
}

// headerPattern matches "@@ -start[,count] +start[,count] @@ ...".
// The count groups are optional; an omitted count means exactly 1.
var headerPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse expands every chunk header in a single-file unified diff into
// removed and added line-number sets. Lines that do not match the header
// grammar (file headers, context, content) are skipped; an empty patch
// yields empty sets.
func Parse(patchText string) ChangedLines {
	changes := ChangedLines{Added: []int{}, Removed: []int{}}
	if patchText == "" {
		return changes
	}

	for _, line := range strings.Split(patchText, "\n") {
		header, ok := parseHeader(line)
		if !ok {
			continue
		}
		for i := 0; i < header.RemovedCount; i++ {
			changes.Removed = append(changes.Removed, header.RemovedStart+i)
		}
		for i := 0; i < header.AddedCount; i++ {
			changes.Added = append(changes.Added, header.AddedStart+i)
		}
	}

	return changes
}

// parseHeader matches a single line against the chunk-header grammar.
// It returns false for any line that is not a well-formed header.
func parseHeader(line string) (hunkHeader, bool) {
	groups := headerPattern.FindStringSubmatch(line)
	if groups == nil {
		return hunkHeader{}, false
	}

	header := hunkHeader{
		RemovedStart: mustAtoi(groups[1]),
		RemovedCount: countOrDefault(groups[2]),
		AddedStart:   mustAtoi(groups[3]),
		AddedCount:   countOrDefault(groups[4]),
	}
	return header, true
}

// countOrDefault interprets an optional count capture: absent means a
// single-line change, an explicit "0" means no lines on that side.
func countOrDefault(capture string) int {
	if capture == "" {
		return 1
	}
	return mustAtoi(capture)
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
