package domain

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusDeleted  = "deleted"
	FileStatusRenamed  = "renamed"
)

// Diff represents a cumulative diff between two refs.
type Diff struct {
	FromCommitHash string
	ToCommitHash   string
	Files          []FileDiff
}

// FileDiff captures the change for a single file.
type FileDiff struct {
	Path     string
	OldPath  string
	Status   string
	Patch    string
	IsBinary bool
}

// GapEntry describes the uncovered added lines for a single file.
// A file appears in a report only when it has at least one issue:
// either no coverage record at all (HasTests=false) or at least one
// added line inside an unexecuted statement, function, or branch arm.
type GapEntry struct {
	Path       string `json:"path"`
	HasTests   bool   `json:"hasTests"`
	All        []int  `json:"all"`
	Statements []int  `json:"statements"`
	Functions  []int  `json:"functions"`
	Ifs        []int  `json:"ifs"`
	Elses      []int  `json:"elses"`
}

// GapReport is the ordered result of a check run: one entry per file
// with an issue, in diff file order.
type GapReport struct {
	Repository string     `json:"repository"`
	BaseRef    string     `json:"baseRef"`
	HeadRef    string     `json:"headRef"`
	Entries    []GapEntry `json:"entries"`
}

// Failed reports whether the run should produce a failing exit status.
func (r GapReport) Failed() bool {
	return len(r.Entries) > 0
}

// JSONArtifact encapsulates the JSON report generation inputs.
type JSONArtifact struct {
	OutputDir  string
	Repository string
	BaseRef    string
	HeadRef    string
	Report     GapReport
}

// MarkdownArtifact encapsulates the Markdown report generation inputs.
type MarkdownArtifact struct {
	OutputDir  string
	Repository string
	BaseRef    string
	HeadRef    string
	Report     GapReport
}
