// Package mcp declares the Jenkins tools and serves them over the MCP stdio
// transport. Handlers receive validated scalar arguments, call into the
// jenkins/logs/scm packages, and render results as JSON tool output.
package mcp

import (
	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/buildmind/jenkins-mcp/jenkins"
)

const serverInstructions = "This server exposes a Jenkins instance as tools. " +
	"Job names are full paths with folders separated by '/', e.g. \"team/app-build\". " +
	"Build references are integer build numbers or \"last\". " +
	"For large console logs, page with get_build_log (negative skip reads from the end), " +
	"search with search_build_log, or poll a running build with get_progressive_log."

// JenkinsMCPServer wraps an MCP server bound to one Jenkins client.
type JenkinsMCPServer struct {
	server *mcpserver.MCPServer
	client *jenkins.Client
}

// NewJenkinsMCPServer creates the MCP server and registers all tools.
func NewJenkinsMCPServer(client *jenkins.Client, version string) *JenkinsMCPServer {
	s := mcpserver.NewMCPServer(
		"jenkins-mcp",
		version,
		mcpserver.WithInstructions(serverInstructions),
	)

	j := &JenkinsMCPServer{server: s, client: client}
	j.registerJobTools()
	j.registerBuildTools()
	j.registerLogTools()

	Log("server created: jenkins=%s", client.BaseURL())
	return j
}

// Serve starts the MCP server using stdio transport.
func (j *JenkinsMCPServer) Serve() error {
	return mcpserver.ServeStdio(j.server)
}

func (j *JenkinsMCPServer) registerJobTools() {
	listJobs := gomcp.NewTool("list_jobs",
		gomcp.WithDescription(
			"List all buildable jobs on the Jenkins server, recursing into folders. "+
				"Returns flattened leaf jobs with name, full path, URL, and status color.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithNumber("depth",
			gomcp.Description("Folder recursion depth (default 3)."),
		),
	)
	j.server.AddTool(listJobs, handleListJobs(j.client))

	getJob := gomcp.NewTool("get_job",
		gomcp.WithDescription("Get the detail document of one job."),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("tree",
			gomcp.Description("Optional Jenkins tree expression to limit returned fields."),
		),
	)
	j.server.AddTool(getJob, handleGetJob(j.client))

	jobExists := gomcp.NewTool("job_exists",
		gomcp.WithDescription("Check whether a job exists without fetching its detail."),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
	)
	j.server.AddTool(jobExists, handleJobExists(j.client))

	findByRepo := gomcp.NewTool("find_jobs_by_repo",
		gomcp.WithDescription(
			"Find jobs whose source-control configuration points at a repository URL. "+
				"URL comparison is normalized: git@host:org/repo.git and "+
				"https://host/org/repo match each other.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("repo_url",
			gomcp.Required(),
			gomcp.Description("Repository URL in any common form (https, ssh, git@host:path)."),
		),
		gomcp.WithString("branch",
			gomcp.Description("Optional branch name; only jobs whose branch spec matches are returned."),
		),
		gomcp.WithNumber("depth",
			gomcp.Description("Folder recursion depth for the job listing (default 3)."),
		),
	)
	j.server.AddTool(findByRepo, handleFindJobsByRepo(j.client))
}

func (j *JenkinsMCPServer) registerBuildTools() {
	getBuild := gomcp.NewTool("get_build",
		gomcp.WithDescription("Get one build of a job: status, result, timing."),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("build",
			gomcp.Description(`Build number or "last" (default "last").`),
		),
	)
	j.server.AddTool(getBuild, handleGetBuild(j.client))

	trigger := gomcp.NewTool("trigger_build",
		gomcp.WithDescription(
			"Trigger a new build of a job. Returns the queue item URL; poll it "+
				"with get_queue_item to learn the assigned build number.",
		),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("parameters",
			gomcp.Description(`Optional build parameters as a JSON object, e.g. {"BRANCH":"main"}.`),
		),
	)
	j.server.AddTool(trigger, handleTriggerBuild(j.client))

	queueItem := gomcp.NewTool("get_queue_item",
		gomcp.WithDescription("Get a pending queue item by ID, including the build number once assigned."),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithNumber("id",
			gomcp.Required(),
			gomcp.Description("Queue item ID (the trailing number of the queue item URL)."),
		),
	)
	j.server.AddTool(queueItem, handleGetQueueItem(j.client))

	status := gomcp.NewTool("get_server_status",
		gomcp.WithDescription("Get overall Jenkins status: mode, executor usage, queue length."),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	j.server.AddTool(status, handleGetServerStatus(j.client))
}

func (j *JenkinsMCPServer) registerLogTools() {
	getLog := gomcp.NewTool("get_build_log",
		gomcp.WithDescription(
			"Get a window of a build's console log. Use skip/limit to page; "+
				"a negative skip reads from the end (skip=-100 returns the last 100 lines).",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("build",
			gomcp.Description(`Build number or "last" (default "last").`),
		),
		gomcp.WithNumber("skip",
			gomcp.Description("Lines to skip from the start, or negative to address from the end (default 0)."),
		),
		gomcp.WithNumber("limit",
			gomcp.Description("Maximum lines to return (default 100, capped at 10000)."),
		),
	)
	j.server.AddTool(getLog, handleGetBuildLog(j.client))

	searchLog := gomcp.NewTool("search_build_log",
		gomcp.WithDescription(
			"Search a build's console log for a pattern and return matching lines "+
				"with surrounding context. Reports the true total match count even "+
				"when results are capped.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("build",
			gomcp.Description(`Build number or "last" (default "last").`),
		),
		gomcp.WithString("pattern",
			gomcp.Required(),
			gomcp.Description("Text or regular expression to search for."),
		),
		gomcp.WithBoolean("regex",
			gomcp.Description("Treat pattern as a regular expression (default false: literal substring)."),
		),
		gomcp.WithBoolean("ignore_case",
			gomcp.Description("Case-insensitive matching (default false)."),
		),
		gomcp.WithNumber("max_matches",
			gomcp.Description("Maximum matches to return (default 100, capped at 1000)."),
		),
		gomcp.WithNumber("context_lines",
			gomcp.Description("Context lines before and after each match (default 2, capped at 10)."),
		),
	)
	j.server.AddTool(searchLog, handleSearchBuildLog(j.client))

	progressive := gomcp.NewTool("get_progressive_log",
		gomcp.WithDescription(
			"Incrementally fetch a running build's log by byte offset. Returns the "+
				"new text, the next offset to poll from, and whether more output is expected.",
		),
		gomcp.WithReadOnlyHintAnnotation(true),
		gomcp.WithString("job",
			gomcp.Required(),
			gomcp.Description(`Full job path, folders separated by "/".`),
		),
		gomcp.WithString("build",
			gomcp.Description(`Build number or "last" (default "last").`),
		),
		gomcp.WithNumber("start",
			gomcp.Description("Byte offset to read from (default 0; pass the previous call's nextStart)."),
		),
	)
	j.server.AddTool(progressive, handleGetProgressiveLog(j.client))
}
