package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/covcheck/internal/usecase/check"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrGapsFound indicates the check completed and found coverage gaps;
// the process should exit non-zero without printing a stack of wrapping.
var ErrGapsFound = errors.New("coverage gaps found")

// GapChecker defines the dependency required to run the check command.
type GapChecker interface {
	Run(ctx context.Context, req check.Request) (check.Result, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Defaults holds default check settings resolved from config.
type Defaults struct {
	BaseRef      string
	OutputDir    string
	Repository   string
	CoverageRoot string
	JSON         bool
	Markdown     bool
	Annotations  bool
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	GapChecker GapChecker
	Args       Arguments
	Defaults   Defaults
	Version    string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "covcheck",
		Short: "Check added lines for missing test coverage",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(checkCommand(deps.GapChecker, deps.Defaults))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func checkCommand(checker GapChecker, defaults Defaults) *cobra.Command {
	var baseRef string
	var headRef string
	var outputDir string
	var repository string
	var coverageRoot string
	var includeUncommitted bool
	var detectHead bool
	var noJSON bool
	var markdown bool
	var noAnnotations bool

	cmd := &cobra.Command{
		Use:   "check [head]",
		Short: "Check a head ref against a base ref for uncovered added lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				headRef = args[0]
			}
			ctx := cmd.Context()
			if headRef == "" && detectHead {
				resolved, err := checker.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect head branch: %w", err)
				}
				headRef = resolved
			}
			if headRef == "" {
				return fmt.Errorf("head ref not specified; pass as an argument, use --head, or disable --detect-head")
			}

			writeJSON := defaults.JSON
			if cmd.Flags().Changed("no-json") {
				writeJSON = !noJSON
			}
			writeMarkdown := defaults.Markdown
			if cmd.Flags().Changed("markdown") {
				writeMarkdown = markdown
			}
			writeAnnotations := defaults.Annotations
			if cmd.Flags().Changed("no-annotations") {
				writeAnnotations = !noAnnotations
			}
			// Annotations are CI furniture; keep terminal output readable.
			if writeAnnotations && check.IsOutputTerminal() {
				writeAnnotations = false
			}

			result, err := checker.Run(ctx, check.Request{
				BaseRef:            baseRef,
				HeadRef:            headRef,
				Repository:         repository,
				OutputDir:          outputDir,
				CoverageRoot:       coverageRoot,
				IncludeUncommitted: includeUncommitted,
				WriteJSON:          writeJSON,
				WriteMarkdown:      writeMarkdown,
				WriteAnnotations:   writeAnnotations,
			})
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), result)

			if result.Report.Failed() {
				return ErrGapsFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", defaults.BaseRef, "Base reference to diff against")
	cmd.Flags().StringVar(&headRef, "head", "", "Head ref to check (overrides positional)")
	if defaults.OutputDir == "" {
		defaults.OutputDir = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", defaults.OutputDir, "Directory to write report artifacts")
	cmd.Flags().StringVar(&repository, "repository", defaults.Repository, "Optional repository name override")
	cmd.Flags().StringVar(&coverageRoot, "coverage-root", defaults.CoverageRoot, "Directory the coverage tool ran in; joined with diff paths to form report keys")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted changes on the head branch")
	cmd.Flags().BoolVar(&detectHead, "detect-head", true, "Automatically detect the checked out branch when no head is provided")
	cmd.Flags().BoolVar(&noJSON, "no-json", false, "Skip the JSON report artifact")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Write a Markdown report artifact")
	cmd.Flags().BoolVar(&noAnnotations, "no-annotations", false, "Skip CI annotations")

	return cmd
}

func printSummary(out io.Writer, result check.Result) {
	if !result.Report.Failed() {
		_, _ = fmt.Fprintf(out, "checked %d files: all added lines covered\n", result.FilesChecked)
		return
	}

	_, _ = fmt.Fprintf(out, "checked %d files: %d with coverage gaps\n", result.FilesChecked, len(result.Report.Entries))
	for _, entry := range result.Report.Entries {
		if !entry.HasTests {
			_, _ = fmt.Fprintf(out, "  %s: file has no coverage\n", entry.Path)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s: lines %v lack coverage\n", entry.Path, entry.All)
	}
}
