// Package artifact retrieves the coverage report the check run consumes:
// either a local coverage-final.json or a prior build's artifact fetched
// over HTTP with retry and backoff.
package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/bkyoung/covcheck/internal/coverage"
)

// FileSource loads a coverage report from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource constructs a source for a local coverage-final.json.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and decodes the report.
func (s *FileSource) Load(ctx context.Context) (coverage.Report, error) {
	return coverage.Load(s.path)
}

// HTTPSource downloads a coverage report from a build artifact URL.
type HTTPSource struct {
	url    string
	token  string
	client *http.Client
	retry  RetryConfig
}

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	URL     string
	Token   string
	Timeout time.Duration
	Retry   RetryConfig
}

// NewHTTPSource constructs a source that downloads the report with
// exponential backoff on retryable failures.
func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.InitialBackoff == 0 {
		retry = DefaultRetryConfig()
	}
	return &HTTPSource{
		url:    opts.URL,
		token:  opts.Token,
		client: &http.Client{Timeout: timeout},
		retry:  retry,
	}
}

// Load downloads and decodes the report.
func (s *HTTPSource) Load(ctx context.Context) (coverage.Report, error) {
	var report coverage.Report

	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		fetched, err := s.fetch(ctx)
		if err != nil {
			return err
		}
		report = fetched
		return nil
	}, s.retry)

	if err != nil {
		return nil, fmt.Errorf("download coverage artifact %s: %w", RedactURLSecrets(s.url), err)
	}
	return report, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (coverage.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Type: ErrTypeServiceUnavailable, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	return coverage.Decode(resp.Body)
}

var secretParamPattern = regexp.MustCompile(`(token|access_token|key|apiKey|api_key)=([^&"\s]+)`)

// RedactURLSecrets redacts credential query parameters from artifact
// URLs so they can appear in error messages and logs.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	return secretParamPattern.ReplaceAllString(text, "$1=[REDACTED]")
}
