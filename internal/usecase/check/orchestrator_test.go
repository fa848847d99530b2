package check_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/covcheck/internal/coverage"
	"github.com/bkyoung/covcheck/internal/domain"
	"github.com/bkyoung/covcheck/internal/usecase/check"
)

type fakeGit struct {
	diff domain.Diff
	err  error
}

func (f *fakeGit) ChangedFiles(ctx context.Context, baseRef, headRef string, includeUncommitted bool) (domain.Diff, error) {
	return f.diff, f.err
}

func (f *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	return "feature", nil
}

type fakeCoverage struct {
	report coverage.Report
	err    error
}

func (f *fakeCoverage) Load(ctx context.Context) (coverage.Report, error) {
	return f.report, f.err
}

type fakeFilter struct {
	allow func(string) bool
}

func (f *fakeFilter) Match(path string) bool {
	return f.allow(path)
}

type fakeJSONWriter struct {
	artifacts []domain.JSONArtifact
}

func (f *fakeJSONWriter) Write(ctx context.Context, artifact domain.JSONArtifact) (string, error) {
	f.artifacts = append(f.artifacts, artifact)
	return "out/coverage-gaps.json", nil
}

type fakeAnnotations struct {
	reports []domain.GapReport
}

func (f *fakeAnnotations) Write(report domain.GapReport) error {
	f.reports = append(f.reports, report)
	return nil
}

type fakeStore struct {
	runs    []check.StoreRun
	entries [][]domain.GapEntry
	err     error
}

func (f *fakeStore) SaveRun(ctx context.Context, run check.StoreRun, entries []domain.GapEntry) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	f.entries = append(f.entries, entries)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeLogger struct {
	warnings []string
	infos    []string
}

func (f *fakeLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	f.infos = append(f.infos, message)
}

func (f *fakeLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	f.warnings = append(f.warnings, message)
}

func lineRange(start, end int) coverage.Range {
	return coverage.Range{
		Start: coverage.Position{Line: start},
		End:   coverage.Position{Line: end},
	}
}

func testReport() coverage.Report {
	return coverage.Report{
		"/repo/src/covered.js": {
			Path:         "/repo/src/covered.js",
			StatementMap: map[string]coverage.Range{"0": lineRange(1, 50)},
			S:            map[string]int{"0": 4},
		},
		"/repo/src/gappy.js": {
			Path:         "/repo/src/gappy.js",
			StatementMap: map[string]coverage.Range{"0": lineRange(10, 11)},
			S:            map[string]int{"0": 0},
		},
	}
}

func testDiff() domain.Diff {
	return domain.Diff{
		FromCommitHash: "aaa",
		ToCommitHash:   "bbb",
		Files: []domain.FileDiff{
			{Path: "src/gappy.js", Status: domain.FileStatusModified, Patch: "@@ -9,0 +10,2 @@\n+a\n+b\n"},
			{Path: "src/covered.js", Status: domain.FileStatusModified, Patch: "@@ -4,0 +5 @@\n+c\n"},
			{Path: "src/untested.js", Status: domain.FileStatusAdded, Patch: "@@ -0,0 +1,3 @@\n+x\n+y\n+z\n"},
			{Path: "vendor/lib.js", Status: domain.FileStatusModified, Patch: "@@ -1 +1 @@\n-q\n+r\n"},
		},
	}
}

func newOrchestrator(git *fakeGit, cov *fakeCoverage, jsonWriter *fakeJSONWriter, annotations *fakeAnnotations, store *fakeStore, logger *fakeLogger) *check.Orchestrator {
	return check.NewOrchestrator(check.OrchestratorDeps{
		Git:      git,
		Coverage: cov,
		Filter: &fakeFilter{allow: func(path string) bool {
			return path != "vendor/lib.js"
		}},
		JSON:        jsonWriter,
		Annotations: annotations,
		Store:       store,
		Logger:      logger,
		Now:         func() time.Time { return time.Unix(1750000000, 0) },
	})
}

func TestRun_Pipeline(t *testing.T) {
	ctx := context.Background()
	git := &fakeGit{diff: testDiff()}
	cov := &fakeCoverage{report: testReport()}
	jsonWriter := &fakeJSONWriter{}
	annotations := &fakeAnnotations{}
	store := &fakeStore{}
	logger := &fakeLogger{}

	orchestrator := newOrchestrator(git, cov, jsonWriter, annotations, store, logger)

	result, err := orchestrator.Run(ctx, check.Request{
		BaseRef:          "main",
		HeadRef:          "feature",
		Repository:       "webapp",
		OutputDir:        t.TempDir(),
		CoverageRoot:     "/repo",
		WriteJSON:        true,
		WriteAnnotations: true,
	})
	require.NoError(t, err)

	// vendor/lib.js filtered out, the rest checked.
	assert.Equal(t, 3, result.FilesChecked)

	// covered.js is fully covered and omitted; entries follow diff order.
	require.Len(t, result.Report.Entries, 2)
	assert.Equal(t, "src/gappy.js", result.Report.Entries[0].Path)
	assert.True(t, result.Report.Entries[0].HasTests)
	assert.Equal(t, []int{10, 11}, result.Report.Entries[0].All)
	assert.Equal(t, "src/untested.js", result.Report.Entries[1].Path)
	assert.False(t, result.Report.Entries[1].HasTests)

	assert.True(t, result.Report.Failed())

	// Artifacts and annotations produced once.
	require.Len(t, jsonWriter.artifacts, 1)
	assert.Equal(t, result.Report, jsonWriter.artifacts[0].Report)
	require.Len(t, annotations.reports, 1)

	// History captured with totals.
	require.Len(t, store.runs, 1)
	assert.Equal(t, 2, store.runs[0].FilesWithGaps)
	assert.Equal(t, 2, store.runs[0].UncoveredLines)
	assert.NotEmpty(t, store.runs[0].RunID)

	// One warning per entry.
	assert.Contains(t, logger.warnings, "added lines lack coverage")
	assert.Contains(t, logger.warnings, "file has no coverage")
}

func TestRun_CleanDiffProducesEmptyReport(t *testing.T) {
	ctx := context.Background()
	git := &fakeGit{diff: domain.Diff{Files: []domain.FileDiff{
		{Path: "src/covered.js", Status: domain.FileStatusModified, Patch: "@@ -4,0 +5 @@\n+c\n"},
	}}}
	cov := &fakeCoverage{report: testReport()}
	jsonWriter := &fakeJSONWriter{}
	store := &fakeStore{}

	orchestrator := newOrchestrator(git, cov, jsonWriter, &fakeAnnotations{}, store, &fakeLogger{})

	result, err := orchestrator.Run(ctx, check.Request{
		BaseRef:      "main",
		HeadRef:      "feature",
		Repository:   "webapp",
		CoverageRoot: "/repo",
		WriteJSON:    true,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Report.Entries)
	assert.False(t, result.Report.Failed())
	require.Len(t, store.runs, 1)
	assert.Equal(t, 0, store.runs[0].FilesWithGaps)
}

func TestRun_GitFailure(t *testing.T) {
	orchestrator := newOrchestrator(
		&fakeGit{err: errors.New("boom")},
		&fakeCoverage{report: coverage.Report{}},
		&fakeJSONWriter{}, &fakeAnnotations{}, &fakeStore{}, &fakeLogger{},
	)

	_, err := orchestrator.Run(context.Background(), check.Request{BaseRef: "main", HeadRef: "feature"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compute diff")
}

func TestRun_CoverageFailure(t *testing.T) {
	orchestrator := newOrchestrator(
		&fakeGit{diff: testDiff()},
		&fakeCoverage{err: errors.New("download failed")},
		&fakeJSONWriter{}, &fakeAnnotations{}, &fakeStore{}, &fakeLogger{},
	)

	_, err := orchestrator.Run(context.Background(), check.Request{BaseRef: "main", HeadRef: "feature"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load coverage")
}

func TestCurrentBranch_DelegatesToGit(t *testing.T) {
	orchestrator := newOrchestrator(
		&fakeGit{diff: testDiff()},
		&fakeCoverage{report: testReport()},
		&fakeJSONWriter{}, &fakeAnnotations{}, &fakeStore{}, &fakeLogger{},
	)

	branch, err := orchestrator.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

func TestRun_StoreFailureIsNonFatal(t *testing.T) {
	logger := &fakeLogger{}
	orchestrator := newOrchestrator(
		&fakeGit{diff: testDiff()},
		&fakeCoverage{report: testReport()},
		&fakeJSONWriter{}, &fakeAnnotations{}, &fakeStore{err: errors.New("disk full")}, logger,
	)

	_, err := orchestrator.Run(context.Background(), check.Request{
		BaseRef:      "main",
		HeadRef:      "feature",
		CoverageRoot: "/repo",
	})
	require.NoError(t, err)
	assert.Contains(t, logger.warnings, "failed to persist run history")
}
