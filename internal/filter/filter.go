// Package filter narrows a change set to the paths a check run cares
// about, using compiled regular-expression allow and ignore lists.
package filter

import (
	"fmt"
	"regexp"
)

// PathFilter decides whether a repository-relative path participates in
// a check run. A path is checked when it matches at least one include
// pattern (an empty include list includes everything) and no ignore
// pattern.
type PathFilter struct {
	include []*regexp.Regexp
	ignore  []*regexp.Regexp
}

// New compiles the include and ignore pattern lists. Invalid patterns
// are a configuration error.
func New(include, ignore []string) (*PathFilter, error) {
	compiledInclude, err := compileAll(include)
	if err != nil {
		return nil, fmt.Errorf("include pattern: %w", err)
	}
	compiledIgnore, err := compileAll(ignore)
	if err != nil {
		return nil, fmt.Errorf("ignore pattern: %w", err)
	}
	return &PathFilter{include: compiledInclude, ignore: compiledIgnore}, nil
}

// Match reports whether the path should be checked.
func (f *PathFilter) Match(path string) bool {
	if len(f.include) > 0 && !anyMatch(f.include, path) {
		return false
	}
	return !anyMatch(f.ignore, path)
}

func anyMatch(patterns []*regexp.Regexp, path string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
