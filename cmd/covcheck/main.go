package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/covcheck/internal/adapter/artifact"
	"github.com/bkyoung/covcheck/internal/adapter/cli"
	"github.com/bkyoung/covcheck/internal/adapter/git"
	"github.com/bkyoung/covcheck/internal/adapter/observability"
	"github.com/bkyoung/covcheck/internal/adapter/output/annotations"
	"github.com/bkyoung/covcheck/internal/adapter/output/json"
	"github.com/bkyoung/covcheck/internal/adapter/output/markdown"
	storeAdapter "github.com/bkyoung/covcheck/internal/adapter/store"
	"github.com/bkyoung/covcheck/internal/adapter/store/sqlite"
	"github.com/bkyoung/covcheck/internal/config"
	"github.com/bkyoung/covcheck/internal/filter"
	"github.com/bkyoung/covcheck/internal/usecase/check"
	"github.com/bkyoung/covcheck/internal/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrGapsFound) {
			os.Exit(1)
		}
		// Redact credentials from URLs in error messages before logging
		log.Println(artifact.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "covcheck",
		EnvPrefix:   "COVCHECK",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}

	repoName := repositoryName(repoDir)
	gitEngine := git.NewEngine(repoDir)

	coverageSource := buildCoverageSource(cfg.Coverage)

	pathFilter, err := filter.New(cfg.Filter.Include, cfg.Filter.Ignore)
	if err != nil {
		return fmt.Errorf("invalid filter configuration: %w", err)
	}

	// Timestamp function for deterministic output file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	jsonWriter := json.NewWriter(nowFunc)
	markdownWriter := markdown.NewWriter(nowFunc)
	annotationWriter := annotations.NewWriter(os.Stdout)

	var logger check.Logger
	if cfg.Observability.Logging.Enabled {
		logger = observability.NewLogger(
			observability.ParseLevel(cfg.Observability.Logging.Level),
			observability.ParseFormat(cfg.Observability.Logging.Format),
			cfg.Observability.Logging.RedactTokens,
		)
	}

	var runStore check.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				runStore = storeAdapter.NewBridge(sqliteStore)
				defer runStore.Close()
			}
		}
	}

	coverageRoot := cfg.Coverage.Root
	if coverageRoot == "" {
		if abs, err := filepath.Abs(repoDir); err == nil {
			coverageRoot = abs
		}
	}

	orchestrator := check.NewOrchestrator(check.OrchestratorDeps{
		Git:         gitEngine,
		Coverage:    coverageSource,
		Filter:      pathFilter,
		JSON:        jsonWriter,
		Markdown:    markdownWriter,
		Annotations: annotationWriter,
		Store:       runStore,
		Logger:      logger,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: orchestrator,
		Defaults: cli.Defaults{
			BaseRef:      cfg.Git.BaseRef,
			OutputDir:    cfg.Output.Directory,
			Repository:   repoName,
			CoverageRoot: coverageRoot,
			JSON:         cfg.Output.JSON,
			Markdown:     cfg.Output.Markdown,
			Annotations:  cfg.Output.Annotations,
		},
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrGapsFound) {
			return err
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildCoverageSource prefers a local report file over an artifact URL.
func buildCoverageSource(cfg config.CoverageConfig) check.CoverageSource {
	if cfg.Path != "" || cfg.URL == "" {
		path := cfg.Path
		if path == "" {
			path = filepath.Join("coverage", "coverage-final.json")
		}
		return artifact.NewFileSource(path)
	}

	retry := artifact.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	if d := parseDurationOrZero(cfg.InitialBackoff); d > 0 {
		retry.InitialBackoff = d
	}
	if d := parseDurationOrZero(cfg.MaxBackoff); d > 0 {
		retry.MaxBackoff = d
	}
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}

	return artifact.NewHTTPSource(artifact.HTTPOptions{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Timeout: parseDurationOrZero(cfg.Timeout),
		Retry:   retry,
	})
}

func parseDurationOrZero(value string) time.Duration {
	if value == "" {
		return 0
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration %q, using default", value)
		return 0
	}
	return parsed
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "covcheck"))
	}
	return paths
}

// Compile-time interface compliance checks
var _ check.GitEngine = (*git.Engine)(nil)
var _ check.CoverageSource = (*artifact.FileSource)(nil)
var _ check.CoverageSource = (*artifact.HTTPSource)(nil)
var _ check.PathFilter = (*filter.PathFilter)(nil)
var _ check.JSONWriter = (*json.Writer)(nil)
var _ check.MarkdownWriter = (*markdown.Writer)(nil)
var _ check.AnnotationWriter = (*annotations.Writer)(nil)
var _ check.Store = (*storeAdapter.Bridge)(nil)
var _ check.Logger = (*observability.Logger)(nil)
var _ cli.GapChecker = (*check.Orchestrator)(nil)
