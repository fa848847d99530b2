package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/covcheck/internal/domain"
)

type clock func() string

// Writer renders gap reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk.
func (w *Writer) Write(ctx context.Context, artifact domain.MarkdownArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(artifact.Repository),
		sanitise(artifact.HeadRef),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact domain.MarkdownArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)
	builder.WriteString("# Coverage Gap Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", artifact.Repository))
	builder.WriteString(fmt.Sprintf("- Base: %s\n", artifact.BaseRef))
	builder.WriteString(fmt.Sprintf("- Head: %s\n\n", artifact.HeadRef))

	if len(artifact.Report.Entries) == 0 {
		builder.WriteString("All added lines are covered.\n")
		return builder.String()
	}

	builder.WriteString("## Files\n\n")
	for _, entry := range artifact.Report.Entries {
		builder.WriteString(fmt.Sprintf("### %s\n", entry.Path))
		if !entry.HasTests {
			builder.WriteString("- File has no coverage record; no test touches it.\n\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("- Uncovered added lines: %s\n", joinLines(entry.All)))
		for _, category := range []struct {
			name  string
			lines []int
		}{
			{"statements", entry.Statements},
			{"functions", entry.Functions},
			{"ifs", entry.Ifs},
			{"elses", entry.Elses},
		} {
			if len(category.lines) == 0 {
				continue
			}
			builder.WriteString(fmt.Sprintf("- %s: %s\n", caser.String(category.name), joinLines(category.lines)))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = fmt.Sprintf("%d", line)
	}
	return strings.Join(parts, ", ")
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	replacer := strings.NewReplacer("/", "-", " ", "_", ":", "-")
	return replacer.Replace(value)
}
