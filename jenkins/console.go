package jenkins

import (
	"context"
	"net/url"
	"strconv"
)

// GetConsoleText fetches the full console log of a build as plain text.
func (c *Client) GetConsoleText(ctx context.Context, job, buildRef string) (string, error) {
	path := jobPath(job) + "/" + NormalizeBuildRef(buildRef) + "/consoleText"
	return c.GetText(ctx, path, nil)
}

// ProgressiveChunk is one increment of a build log fetched by byte offset.
// NextStart is the offset to pass on the next poll (X-Text-Size); HasMore is
// the server's signal that the build is still producing output (X-More-Data).
type ProgressiveChunk struct {
	Text      string `json:"text"`
	NextStart int64  `json:"nextStart"`
	HasMore   bool   `json:"hasMore"`
}

// GetProgressiveLog fetches the build log from the given byte offset using
// the progressiveText endpoint. Callers poll until HasMore is false, passing
// each chunk's NextStart as the next start offset.
func (c *Client) GetProgressiveLog(ctx context.Context, job, buildRef string, start int64) (*ProgressiveChunk, error) {
	if start < 0 {
		start = 0
	}
	path := jobPath(job) + "/" + NormalizeBuildRef(buildRef) + "/logText/progressiveText"
	params := url.Values{"start": {strconv.FormatInt(start, 10)}}
	text, headers, err := c.GetTextWithHeaders(ctx, path, params)
	if err != nil {
		return nil, err
	}

	chunk := &ProgressiveChunk{Text: text, NextStart: start + int64(len(text))}
	if size, perr := strconv.ParseInt(headers.Get("X-Text-Size"), 10, 64); perr == nil {
		chunk.NextStart = size
	}
	chunk.HasMore = headers.Get("X-More-Data") == "true"
	return chunk, nil
}
