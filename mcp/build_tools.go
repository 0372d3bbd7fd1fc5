package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/buildmind/jenkins-mcp/jenkins"
)

func handleGetBuild(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_build")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `get_build(job="team/app-build", build="42")`), nil
		}
		buildRef := buildRefArg(req)

		build, err := client.GetBuild(ctx, job, buildRef)
		if err != nil {
			Log("get_build error: %v", err)
			return clientErrResult(fmt.Sprintf("build %s of job %s", buildRef, job), err), nil
		}
		return jsonResult(build), nil
	}
}

func handleTriggerBuild(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: trigger_build")
		job := req.GetString("job", "")
		if job == "" {
			return missingParamErr("job", `trigger_build(job="team/app-build")`), nil
		}

		params, errResult := parseBuildParameters(req.GetString("parameters", ""))
		if errResult != nil {
			return errResult, nil
		}

		queueURL, err := client.TriggerBuild(ctx, job, params)
		if err != nil {
			Log("trigger_build error: %v", err)
			return clientErrResult("job "+job, err), nil
		}
		Log("trigger_build: job=%s queued at %s", job, queueURL)
		return jsonResult(map[string]any{
			"job":          job,
			"queueItemUrl": queueURL,
		}), nil
	}
}

// parseBuildParameters decodes the optional parameters argument, a JSON
// object whose values are coerced to strings (Jenkins build parameters are
// form fields).
func parseBuildParameters(raw string) (map[string]string, *gomcp.CallToolResult) {
	if raw == "" {
		return nil, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, gomcp.NewToolResultError(
			`parameters must be a JSON object, e.g. {"BRANCH":"main"}: ` + err.Error())
	}
	params := make(map[string]string, len(decoded))
	for k, v := range decoded {
		switch val := v.(type) {
		case string:
			params[k] = val
		case bool:
			params[k] = fmt.Sprintf("%t", val)
		case float64:
			params[k] = formatJSONNumber(val)
		default:
			return nil, gomcp.NewToolResultError(
				fmt.Sprintf("parameter %q must be a string, number, or boolean", k))
		}
	}
	return params, nil
}

// formatJSONNumber renders a JSON number without a spurious decimal point
// for integral values.
func formatJSONNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func handleGetQueueItem(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_queue_item")
		id := parseOptionalIntArg(req, "id", -1)
		if id < 0 {
			return missingParamErr("id", `get_queue_item(id=123)`), nil
		}

		item, err := client.GetQueueItem(ctx, int64(id))
		if err != nil {
			Log("get_queue_item error: %v", err)
			return clientErrResult(fmt.Sprintf("queue item %d", id), err), nil
		}
		return jsonResult(item), nil
	}
}

func handleGetServerStatus(client *jenkins.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		Log("tool call: get_server_status")
		status, err := client.GetServerStatus(ctx)
		if err != nil {
			Log("get_server_status error: %v", err)
			return clientErrResult("server status", err), nil
		}
		return jsonResult(status), nil
	}
}
