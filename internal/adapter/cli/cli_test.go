package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bkyoung/covcheck/internal/adapter/cli"
	"github.com/bkyoung/covcheck/internal/domain"
	"github.com/bkyoung/covcheck/internal/usecase/check"
)

// The real orchestrator must satisfy the CLI's checker port, including
// the branch detection used when no head ref is given.
var _ cli.GapChecker = (*check.Orchestrator)(nil)

type checkerStub struct {
	request check.Request
	result  check.Result
	err     error
	current string
}

func (c *checkerStub) Run(ctx context.Context, req check.Request) (check.Result, error) {
	c.request = req
	return c.result, c.err
}

func (c *checkerStub) CurrentBranch(ctx context.Context) (string, error) {
	if c.current == "" {
		return "", errors.New("no branch")
	}
	return c.current, nil
}

func cleanResult() check.Result {
	return check.Result{
		Report:       domain.GapReport{Entries: []domain.GapEntry{}},
		FilesChecked: 2,
	}
}

func TestCheckCommandInvokesUseCase(t *testing.T) {
	stub := &checkerStub{result: cleanResult()}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Defaults:   cli.Defaults{BaseRef: "main", OutputDir: "build", Repository: "demo", JSON: true},
		Version:    "v1.2.3",
	})

	root.SetArgs([]string{"check", "feature", "--base", "master", "--include-uncommitted"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.HeadRef != "feature" {
		t.Fatalf("expected head ref feature, got %s", stub.request.HeadRef)
	}

	if stub.request.BaseRef != "master" {
		t.Fatalf("expected base ref master, got %s", stub.request.BaseRef)
	}

	if stub.request.OutputDir != "build" {
		t.Fatalf("expected default output dir build, got %s", stub.request.OutputDir)
	}

	if !stub.request.IncludeUncommitted {
		t.Fatalf("expected include uncommitted to be true")
	}

	if !stub.request.WriteJSON {
		t.Fatalf("expected JSON output enabled by default")
	}
}

func TestCheckCommandDetectsHead(t *testing.T) {
	stub := &checkerStub{result: cleanResult(), current: "detected"}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Defaults:   cli.Defaults{BaseRef: "main"},
		Version:    "v1.2.3",
	})

	root.SetArgs([]string{"check"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.HeadRef != "detected" {
		t.Fatalf("expected head ref detected, got %s", stub.request.HeadRef)
	}
}

func TestCheckCommandGapsProduceSentinel(t *testing.T) {
	stub := &checkerStub{result: check.Result{
		Report: domain.GapReport{Entries: []domain.GapEntry{
			{Path: "src/app.js", HasTests: true, All: []int{12, 13}},
		}},
		FilesChecked: 1,
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:    "v1.0.0",
	})

	root.SetArgs([]string{"check", "feature"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrGapsFound) {
		t.Fatalf("expected gaps sentinel, got %v", err)
	}
	if !strings.Contains(buf.String(), "src/app.js") {
		t.Fatalf("expected summary to name the gappy file: %q", buf.String())
	}
}

func TestCheckCommandNoJSONDisables(t *testing.T) {
	stub := &checkerStub{result: cleanResult()}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Defaults:   cli.Defaults{JSON: true},
		Version:    "v1.0.0",
	})

	root.SetArgs([]string{"check", "feature", "--no-json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.WriteJSON {
		t.Error("expected WriteJSON=false when --no-json is set")
	}
}

func TestCheckCommandMarkdownEnables(t *testing.T) {
	stub := &checkerStub{result: cleanResult()}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		Defaults:   cli.Defaults{Markdown: false},
		Version:    "v1.0.0",
	})

	root.SetArgs([]string{"check", "feature", "--markdown"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !stub.request.WriteMarkdown {
		t.Error("expected WriteMarkdown=true when --markdown is set")
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	stub := &checkerStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		GapChecker: stub,
		Args:       cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version:    "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
