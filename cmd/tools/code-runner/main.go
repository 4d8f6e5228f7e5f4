package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/michaelbrown/codemaster/internal/config"
	"github.com/michaelbrown/codemaster/internal/runner"
)

var svc *runner.Service

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return
	}
	svc = runner.NewService(cfg.RunnerOptions())

	s := server.NewMCPServer("codemaster-code-runner", "0.1.0")

	var langs []string
	for _, lang := range svc.Languages() {
		langs = append(langs, string(lang))
	}

	s.AddTool(mcp.Tool{
		Name:        "code_run",
		Description: fmt.Sprintf("Execute a code snippet in an isolated workspace with a wall-clock timeout. Supported languages: %s.", strings.Join(langs, ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"language": map[string]any{
					"type":        "string",
					"description": "Snippet language (python, javascript)",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to execute",
				},
				"timeout_seconds": map[string]any{
					"type":        "number",
					"description": fmt.Sprintf("Wall-clock timeout, 1-%d seconds (optional, default %d)", runner.MaxTimeoutSeconds, runner.DefaultTimeoutSeconds),
				},
			},
			Required: []string{"language", "code"},
		},
	}, handleCodeRun)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func handleCodeRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	language, _ := args["language"].(string)
	code, _ := args["code"].(string)
	timeout, _ := args["timeout_seconds"].(float64)

	if language == "" || code == "" {
		return errResult("error: 'language' and 'code' are required"), nil
	}

	result, err := svc.Execute(ctx, runner.Request{
		Language:       runner.Language(language),
		Source:         code,
		TimeoutSeconds: int(timeout),
	})
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	var output strings.Builder
	if result.Stdout != "" {
		output.WriteString(result.Stdout)
		if result.StdoutTruncated {
			output.WriteString("\n... (stdout truncated)")
		}
	}
	if result.Stderr != "" {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString("STDERR:\n" + result.Stderr)
		if result.StderrTruncated {
			output.WriteString("\n... (stderr truncated)")
		}
	}
	switch {
	case result.TimedOut:
		output.WriteString(fmt.Sprintf("\n(timed out after %dms)", result.Duration.Milliseconds()))
	case result.ExitCode != nil && *result.ExitCode != 0:
		output.WriteString(fmt.Sprintf("\nexit code: %d", *result.ExitCode))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: output.String()}},
		IsError: result.TimedOut || (result.ExitCode != nil && *result.ExitCode != 0),
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
