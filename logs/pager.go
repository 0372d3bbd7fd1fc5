// Package logs slices and searches build console logs. All operations work
// on the full log text, are deterministic, and hold no state between calls,
// so multi-megabyte logs can be paged and searched without the caller ever
// re-fetching more than once.
package logs

import "strings"

// MaxWindowLines caps how many lines one window may return.
const MaxWindowLines = 10000

// Window is a bounded, offset-addressable slice of a log.
// EndLine is exclusive; HasMoreContent is true exactly when lines exist
// beyond EndLine.
type Window struct {
	Lines          []string `json:"lines"`
	TotalLines     int      `json:"totalLines"`
	StartLine      int      `json:"startLine"`
	EndLine        int      `json:"endLine"`
	HasMoreContent bool     `json:"hasMoreContent"`
}

// SplitLines splits log text on newlines, dropping the single empty line a
// trailing newline produces. Legitimate empty lines elsewhere are kept.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Page returns the window of a log addressed by skip and limit. A negative
// skip addresses from the end of the log: skip=-k ends the window at the
// last line and starts it up to limit lines earlier. A skip past the end of
// the log yields an empty window.
func Page(text string, skip, limit int) Window {
	lines := SplitLines(text)
	total := len(lines)

	if limit < 0 {
		limit = -limit
	}
	if limit > MaxWindowLines {
		limit = MaxWindowLines
	}

	var start, end int
	if skip < 0 {
		// Tail window: skip=-k addresses the last k lines, further bounded
		// by limit, always ending at the true end of the log.
		fromEnd := -skip
		if fromEnd < 0 || fromEnd > total {
			fromEnd = total
		}
		if limit < fromEnd {
			fromEnd = limit
		}
		end = total
		start = total - fromEnd
	} else {
		start = skip
		if start > total {
			start = total
		}
		end = start + limit
		if end > total {
			end = total
		}
	}

	return Window{
		Lines:          lines[start:end],
		TotalLines:     total,
		StartLine:      start,
		EndLine:        end,
		HasMoreContent: end < total,
	}
}
