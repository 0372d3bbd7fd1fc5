package mcp

import (
	"context"
	"errors"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/buildmind/jenkins-mcp/jenkins"
	"github.com/buildmind/jenkins-mcp/logs"
)

func handleGetBuildLog(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_build_log")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `get_build_log(job="team/app-build", skip=-100)`), nil
		}
		buildRef := buildRefArg(req)
		skip := parseOptionalIntArg(req, "skip", 0)
		limit := parseOptionalIntArg(req, "limit", 100)

		text, err := client.GetConsoleText(ctx, job, buildRef)
		if err != nil {
			Log("get_build_log error: %v", err)
			return clientErrResult(fmt.Sprintf("console log of build %s of job %s", buildRef, job), err), nil
		}

		window := logs.Page(text, skip, limit)
		Log("get_build_log: job=%s build=%s lines %d-%d of %d",
			job, buildRef, window.StartLine, window.EndLine, window.TotalLines)
		return jsonResult(window), nil
	}
}

func handleSearchBuildLog(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: search_build_log")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `search_build_log(job="team/app-build", pattern="ERROR")`), nil
		}
		pattern := req.GetString("pattern", "")
		if pattern == "" {
			return missingParamErr("pattern", `search_build_log(job="team/app-build", pattern="ERROR")`), nil
		}
		buildRef := buildRefArg(req)
		opts := logs.SearchOptions{
			UseRegex:     parseOptionalBoolArg(req, "regex", false),
			IgnoreCase:   parseOptionalBoolArg(req, "ignore_case", false),
			MaxMatches:   parseOptionalIntArg(req, "max_matches", 100),
			ContextLines: parseOptionalIntArg(req, "context_lines", 2),
		}

		text, err := client.GetConsoleText(ctx, job, buildRef)
		if err != nil {
			Log("search_build_log error: %v", err)
			return clientErrResult(fmt.Sprintf("console log of build %s of job %s", buildRef, job), err), nil
		}

		result, err := logs.Search(text, pattern, opts)
		if err != nil {
			var invalid *logs.ErrInvalidPattern
			if errors.As(err, &invalid) {
				return gomcp.NewToolResultError(
					invalid.Error() + `. Use regex=false for a literal search.`), nil
			}
			return gomcp.NewToolResultError(err.Error()), nil
		}
		Log("search_build_log: job=%s build=%s pattern=%q matches=%d",
			job, buildRef, pattern, result.MatchCount)
		return jsonResult(result), nil
	}
}

func handleGetProgressiveLog(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_progressive_log")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `get_progressive_log(job="team/app-build", start=0)`), nil
		}
		buildRef := buildRefArg(req)
		start := parseOptionalIntArg(req, "start", 0)

		chunk, err := client.GetProgressiveLog(ctx, job, buildRef, int64(start))
		if err != nil {
			Log("get_progressive_log error: %v", err)
			return clientErrResult(fmt.Sprintf("progressive log of build %s of job %s", buildRef, job), err), nil
		}
		Log("get_progressive_log: job=%s build=%s start=%d next=%d more=%t text=%s",
			job, buildRef, start, chunk.NextStart, chunk.HasMore, truncateForLog(chunk.Text, 80))
		return jsonResult(chunk), nil
	}
}
