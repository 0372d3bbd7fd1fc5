package mcp

import (
	"context"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/buildmind/jenkins-mcp/jenkins"
)

func handleListJobs(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: list_jobs")
		depth := parseOptionalIntArg(req, "depth", 3)

		jobs, err := client.ListJobs(ctx, depth)
		if err != nil {
			Log("list_jobs error: %v", err)
			return clientErrResult("job listing", err), nil
		}
		Log("list_jobs: %d leaf jobs", len(jobs))
		return jsonResult(jobs), nil
	}
}

func handleGetJob(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_job")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `get_job(job="team/app-build")`), nil
		}
		tree := req.GetString("tree", "")

		detail, err := client.GetJob(ctx, job, tree)
		if err != nil {
			Log("get_job error: %v", err)
			return clientErrResult("job "+job, err), nil
		}
		return jsonResult(detail), nil
	}
}

func handleJobExists(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: job_exists")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `job_exists(job="team/app-build")`), nil
		}

		exists, err := client.JobExists(ctx, job)
		if err != nil {
			Log("job_exists error: %v", err)
			return clientErrResult("job "+job, err), nil
		}
		return jsonResult(map[string]any{"job": job, "exists": exists}), nil
	}
}

func handleFindJobsByRepo(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: find_jobs_by_repo")
		repoURL := req.GetString("repo_url", "")
		if repoURL == "" {
			return missingParamErr("repo_url", `find_jobs_by_repo(repo_url="git@github.com:org/repo.git")`), nil
		}
		branch := req.GetString("branch", "")
		depth := parseOptionalIntArg(req, "depth", 3)

		matches, err := client.FindJobsByRepo(ctx, repoURL, branch, depth)
		if err != nil {
			Log("find_jobs_by_repo error: %v", err)
			return clientErrResult("job listing", err), nil
		}
		Log("find_jobs_by_repo: %d matches for %s", len(matches), repoURL)
		if len(matches) == 0 {
			return gomcp.NewToolResultText("no jobs found for repository " + repoURL), nil
		}
		return jsonResult(matches), nil
	}
}
