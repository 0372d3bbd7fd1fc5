package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/buildmind/jenkins-mcp/jenkins"
)

func parseOptionalIntArg(req gomcp.CallToolRequest, key string, fallback int) int {
	if args := req.GetArguments(); args != nil {
		if v, ok := args[key].(float64); ok {
			return int(v)
		}
	}
	return fallback
}

func parseOptionalBoolArg(req gomcp.CallToolRequest, key string, fallback bool) bool {
	if args := req.GetArguments(); args != nil {
		if v, ok := args[key].(bool); ok {
			return v
		}
	}
	return fallback
}

func missingParamErr(param, example string) *gomcp.CallToolResult {
	msg := "missing required parameter: " + param
	if strings.TrimSpace(example) != "" {
		msg += ". Example: " + example
	}
	return gomcp.NewToolResultError(msg)
}

// jsonResult renders a value as indented JSON tool output.
func jsonResult(v any) *gomcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return gomcp.NewToolResultError("failed to encode result: " + err.Error())
	}
	return gomcp.NewToolResultText(string(data))
}

// clientErrResult translates a typed client error into tool output. A
// missing resource is a plain "not found" message rather than an error so
// callers can handle it as an empty result; everything else is an error
// with a remediation hint where one helps.
func clientErrResult(what string, err error) *gomcp.CallToolResult {
	var ce *jenkins.ClientError
	if !errors.As(err, &ce) {
		return gomcp.NewToolResultError(err.Error())
	}
	switch ce.Kind {
	case jenkins.ErrKindNotFound:
		return gomcp.NewToolResultText(what + " not found")
	case jenkins.ErrKindAuth:
		return gomcp.NewToolResultError(
			ce.Message + ". Verify the credentials have permission for this resource.")
	case jenkins.ErrKindTimeout:
		return gomcp.NewToolResultError(
			ce.Error() + ". The Jenkins server may be slow; consider raising JENKINS_TIMEOUT_MS.")
	case jenkins.ErrKindServer:
		msg := ce.Error()
		if body := strings.TrimSpace(ce.Body); body != "" {
			if len(body) > 500 {
				body = body[:500] + "..."
			}
			msg += "\nResponse body: " + body
		}
		return gomcp.NewToolResultError(msg)
	default:
		return gomcp.NewToolResultError(
			ce.Error() + ". Check JENKINS_URL and network connectivity.")
	}
}

func buildRefArg(req gomcp.CallToolRequest) string {
	return jenkins.NormalizeBuildRef(req.GetString("build", "last"))
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes total)", s[:max], len(s))
}
