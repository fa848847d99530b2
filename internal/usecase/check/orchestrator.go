// Package check orchestrates a coverage-gap run: diff two refs, parse
// each file's patch into added lines, cross-reference the coverage
// report, and surface every uncovered added line.
package check

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bkyoung/covcheck/internal/coverage"
	"github.com/bkyoung/covcheck/internal/domain"
	"github.com/bkyoung/covcheck/internal/gaps"
	"github.com/bkyoung/covcheck/internal/patch"
)

// GitEngine abstracts git operations for the check run.
type GitEngine interface {
	// ChangedFiles returns the added and modified files between two refs,
	// with zero-context patches.
	ChangedFiles(ctx context.Context, baseRef, headRef string, includeUncommitted bool) (domain.Diff, error)

	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
}

// CoverageSource loads the coverage report for the head revision.
type CoverageSource interface {
	Load(ctx context.Context) (coverage.Report, error)
}

// PathFilter decides which repository-relative paths are checked.
type PathFilter interface {
	Match(path string) bool
}

// JSONWriter persists the gap report to disk.
type JSONWriter interface {
	Write(ctx context.Context, artifact domain.JSONArtifact) (string, error)
}

// MarkdownWriter persists a human-readable report to disk.
type MarkdownWriter interface {
	Write(ctx context.Context, artifact domain.MarkdownArtifact) (string, error)
}

// AnnotationWriter surfaces entries to the CI system.
type AnnotationWriter interface {
	Write(report domain.GapReport) error
}

// StoreRun records one check invocation for history.
type StoreRun struct {
	RunID          string
	Timestamp      time.Time
	Repository     string
	BaseRef        string
	HeadRef        string
	FilesWithGaps  int
	UncoveredLines int
}

// Store defines the outbound port for persisting run history.
type Store interface {
	SaveRun(ctx context.Context, run StoreRun, entries []domain.GapEntry) error
	Close() error
}

// Logger defines the outbound port for structured logging.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// OrchestratorDeps captures the collaborators for a check run.
type OrchestratorDeps struct {
	Git         GitEngine
	Coverage    CoverageSource
	Filter      PathFilter
	JSON        JSONWriter
	Markdown    MarkdownWriter
	Annotations AnnotationWriter
	Store       Store
	Logger      Logger
	Now         func() time.Time
}

// Request describes one check invocation.
type Request struct {
	BaseRef            string
	HeadRef            string
	Repository         string
	OutputDir          string
	CoverageRoot       string
	IncludeUncommitted bool
	WriteJSON          bool
	WriteMarkdown      bool
	WriteAnnotations   bool
}

// Result carries the run outcome.
type Result struct {
	Report        domain.GapReport
	FilesChecked  int
	ArtifactPaths []string
}

// Orchestrator wires the check pipeline together.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator constructs the check orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

// Run executes the full pipeline. Entries appear in diff file order.
// A non-empty report is not an error: the caller decides how to surface
// failure (the CLI maps it to a non-zero exit status).
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	diff, err := o.deps.Git.ChangedFiles(ctx, req.BaseRef, req.HeadRef, req.IncludeUncommitted)
	if err != nil {
		return Result{}, fmt.Errorf("compute diff: %w", err)
	}

	report, err := o.deps.Coverage.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load coverage: %w", err)
	}

	result := Result{
		Report: domain.GapReport{
			Repository: req.Repository,
			BaseRef:    req.BaseRef,
			HeadRef:    req.HeadRef,
			Entries:    []domain.GapEntry{},
		},
	}

	for _, file := range diff.Files {
		if o.deps.Filter != nil && !o.deps.Filter.Match(file.Path) {
			continue
		}
		result.FilesChecked++

		changes := patch.Parse(file.Patch)
		entry := classifyFile(report, req.CoverageRoot, file.Path, changes.Added)
		if entry == nil {
			continue
		}

		result.Report.Entries = append(result.Report.Entries, *entry)
		o.logEntry(ctx, *entry)
	}

	paths, err := o.writeArtifacts(ctx, req, result.Report)
	if err != nil {
		return Result{}, err
	}
	result.ArtifactPaths = paths

	if err := o.saveRun(ctx, req, result.Report); err != nil {
		// History is best-effort: a persistence failure must not mask
		// the check outcome.
		o.warn(ctx, "failed to persist run history", map[string]interface{}{"error": err.Error()})
	}

	o.info(ctx, "check complete", map[string]interface{}{
		"filesChecked":  result.FilesChecked,
		"filesWithGaps": len(result.Report.Entries),
	})

	return result, nil
}

// CurrentBranch reports the checked-out branch, so the CLI can default
// the head ref when none is given.
func (o *Orchestrator) CurrentBranch(ctx context.Context) (string, error) {
	return o.deps.Git.CurrentBranch(ctx)
}

// classifyFile resolves the file's coverage record by absolute path and
// classifies its added lines. Absence of a record is data, not an error.
func classifyFile(report coverage.Report, coverageRoot, path string, addedLines []int) *domain.GapEntry {
	absolutePath := path
	if coverageRoot != "" {
		absolutePath = filepath.Join(coverageRoot, path)
	}

	record, ok := report.File(absolutePath)
	if !ok {
		return gaps.Classify(path, addedLines, nil)
	}
	return gaps.Classify(path, addedLines, &record)
}

func (o *Orchestrator) writeArtifacts(ctx context.Context, req Request, report domain.GapReport) ([]string, error) {
	var paths []string

	if req.WriteJSON && o.deps.JSON != nil {
		path, err := o.deps.JSON.Write(ctx, domain.JSONArtifact{
			OutputDir:  req.OutputDir,
			Repository: req.Repository,
			BaseRef:    req.BaseRef,
			HeadRef:    req.HeadRef,
			Report:     report,
		})
		if err != nil {
			return nil, fmt.Errorf("write json report: %w", err)
		}
		paths = append(paths, path)
	}

	if req.WriteMarkdown && o.deps.Markdown != nil {
		path, err := o.deps.Markdown.Write(ctx, domain.MarkdownArtifact{
			OutputDir:  req.OutputDir,
			Repository: req.Repository,
			BaseRef:    req.BaseRef,
			HeadRef:    req.HeadRef,
			Report:     report,
		})
		if err != nil {
			return nil, fmt.Errorf("write markdown report: %w", err)
		}
		paths = append(paths, path)
	}

	if req.WriteAnnotations && o.deps.Annotations != nil {
		if err := o.deps.Annotations.Write(report); err != nil {
			return nil, fmt.Errorf("write annotations: %w", err)
		}
	}

	return paths, nil
}

func (o *Orchestrator) saveRun(ctx context.Context, req Request, report domain.GapReport) error {
	if o.deps.Store == nil {
		return nil
	}

	now := o.deps.Now()
	uncovered := 0
	for _, entry := range report.Entries {
		uncovered += len(entry.All)
	}

	return o.deps.Store.SaveRun(ctx, StoreRun{
		RunID:          runID(req, now),
		Timestamp:      now,
		Repository:     req.Repository,
		BaseRef:        req.BaseRef,
		HeadRef:        req.HeadRef,
		FilesWithGaps:  len(report.Entries),
		UncoveredLines: uncovered,
	}, report.Entries)
}

// runID derives a deterministic identifier from the run scope and time.
func runID(req Request, now time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s|%d", req.Repository, req.BaseRef, req.HeadRef, now.UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}

func (o *Orchestrator) logEntry(ctx context.Context, entry domain.GapEntry) {
	if !entry.HasTests {
		o.warn(ctx, "file has no coverage", map[string]interface{}{"path": entry.Path})
		return
	}
	o.warn(ctx, "added lines lack coverage", map[string]interface{}{
		"path":  entry.Path,
		"lines": entry.All,
	})
}

func (o *Orchestrator) info(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) warn(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
	}
}
