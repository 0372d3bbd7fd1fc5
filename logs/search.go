package logs

import (
	"fmt"
	"regexp"
	"strings"
)

// Bounds on search parameters. Requests beyond them are clamped.
const (
	MaxSearchMatches = 1000
	MaxContextLines  = 10
)

// ErrInvalidPattern wraps a regex compilation failure. It is a local
// input-validation error, not a network error.
type ErrInvalidPattern struct {
	Pattern string
	cause   error
}

func (e *ErrInvalidPattern) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %v", e.Pattern, e.cause)
}

func (e *ErrInvalidPattern) Unwrap() error { return e.cause }

// SearchOptions control one search pass over a log.
type SearchOptions struct {
	// UseRegex treats the pattern as a regular expression; otherwise it is
	// matched as a literal substring.
	UseRegex bool
	// IgnoreCase makes matching case-insensitive in either mode.
	IgnoreCase bool
	// MaxMatches caps how many matches are returned (default and ceiling
	// MaxSearchMatches). The true match count is always reported.
	MaxMatches int
	// ContextLines is the number of lines returned before and after each
	// match, clipped at the log boundaries (ceiling MaxContextLines).
	ContextLines int
}

// Match is one matching line with its surrounding context. LineNumber is
// 1-indexed. Before and After are clipped at the log boundaries, never
// padded.
type Match struct {
	LineNumber int      `json:"lineNumber"`
	Line       string   `json:"line"`
	Before     []string `json:"contextBefore,omitempty"`
	After      []string `json:"contextAfter,omitempty"`
}

// SearchResult reports all matches of a pattern. MatchCount is the true
// total over the whole log; Matches holds at most MaxMatches entries.
type SearchResult struct {
	MatchCount     int     `json:"matchCount"`
	Matches        []Match `json:"matches"`
	HasMoreMatches bool    `json:"hasMoreMatches"`
}

// Search scans the log in order from the first line and returns every line
// matching the pattern, bounded by opts.MaxMatches but counting all matches.
// An invalid regular expression fails with *ErrInvalidPattern.
func Search(text, pattern string, opts SearchOptions) (*SearchResult, error) {
	matcher, err := buildMatcher(pattern, opts)
	if err != nil {
		return nil, err
	}

	maxMatches := opts.MaxMatches
	if maxMatches <= 0 || maxMatches > MaxSearchMatches {
		maxMatches = MaxSearchMatches
	}
	contextLines := opts.ContextLines
	if contextLines < 0 {
		contextLines = 0
	}
	if contextLines > MaxContextLines {
		contextLines = MaxContextLines
	}

	lines := SplitLines(text)
	result := &SearchResult{}
	for i, line := range lines {
		if !matcher(line) {
			continue
		}
		result.MatchCount++
		if len(result.Matches) >= maxMatches {
			continue
		}

		before := i - contextLines
		if before < 0 {
			before = 0
		}
		after := i + 1 + contextLines
		if after > len(lines) {
			after = len(lines)
		}
		result.Matches = append(result.Matches, Match{
			LineNumber: i + 1,
			Line:       line,
			Before:     lines[before:i],
			After:      lines[i+1 : after],
		})
	}
	result.HasMoreMatches = result.MatchCount > len(result.Matches)
	return result, nil
}

// buildMatcher compiles the per-line predicate for a search. Literal
// patterns use substring matching; regex patterns get a (?i) flag when
// case-insensitive.
func buildMatcher(pattern string, opts SearchOptions) (func(string) bool, error) {
	if opts.UseRegex {
		expr := pattern
		if opts.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &ErrInvalidPattern{Pattern: pattern, cause: err}
		}
		return re.MatchString, nil
	}

	if opts.IgnoreCase {
		lowered := strings.ToLower(pattern)
		return func(line string) bool {
			return strings.Contains(strings.ToLower(line), lowered)
		}, nil
	}
	return func(line string) bool {
		return strings.Contains(line, pattern)
	}, nil
}
