// Package mcptool adapts a remote MCP (Model Context Protocol) server's
// tools into first-class content.Action registrations: Connect lists the
// server's tools once, at connect time, and returns one *content.Action per
// tool whose handler forwards the planner's step params as the MCP call's
// arguments. Limited to the stdio transport: the core has no HTTP client of
// its own to reuse for sse/streamable-http.
package mcptool

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/relaywire/agentcore/pkg/content"
)

// Config configures a connection to one MCP server.
type Config struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
	// Filter, if non-empty, limits which of the server's tools are exposed
	// as actions.
	Filter []string
}

// Toolset owns one MCP client connection and the actions derived from it.
type Toolset struct {
	cfg    Config
	client *client.Client
}

// Connect starts the MCP server subprocess, performs the protocol
// handshake, lists its tools, and returns one content.Action per tool
// (filtered by cfg.Filter if set). The caller registers the returned
// actions the same way it would any plugin-contributed action.
func Connect(ctx context.Context, cfg Config) (*Toolset, []*content.Action, error) {
	if cfg.Command == "" {
		return nil, nil, fmt.Errorf("mcptool: command is required")
	}

	c, err := client.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return nil, nil, fmt.Errorf("mcptool: create client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("mcptool: start: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "agentcore", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("mcptool: initialize: %w", err)
	}

	listResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("mcptool: list tools: %w", err)
	}

	var filter map[string]bool
	if len(cfg.Filter) > 0 {
		filter = make(map[string]bool, len(cfg.Filter))
		for _, name := range cfg.Filter {
			filter[name] = true
		}
	}

	ts := &Toolset{cfg: cfg, client: c}

	actions := make([]*content.Action, 0, len(listResp.Tools))
	for _, t := range listResp.Tools {
		if filter != nil && !filter[t.Name] {
			continue
		}
		actions = append(actions, ts.actionFor(t.Name, t.Description))
	}
	return ts, actions, nil
}

// Close shuts down the underlying MCP client.
func (t *Toolset) Close() error {
	return t.client.Close()
}

func (t *Toolset) actionFor(toolName, description string) *content.Action {
	return &content.Action{
		Name:        mcpActionName(t.cfg.Name, toolName),
		Description: description,
		Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actionCtx content.ActionContext) (*content.ActionResult, error) {
			var args map[string]any
			if actionCtx != nil {
				if v, ok := actionCtx.GetPreviousResult(actionCtx.StepID()); ok {
					args, _ = v.Values["args"].(map[string]any)
				}
			}
			result, err := t.call(ctx, toolName, args)
			if err != nil {
				return &content.ActionResult{Success: false, Error: err.Error()}, nil
			}
			return &content.ActionResult{Success: true, Values: result}, nil
		},
	}
}

func (t *Toolset) call(ctx context.Context, toolName string, args map[string]any) (map[string]any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	resp, err := t.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcptool: call %q: %w", toolName, err)
	}
	return parseResult(resp)
}

func parseResult(resp *mcp.CallToolResult) (map[string]any, error) {
	result := make(map[string]any)
	if resp.IsError {
		for _, c := range resp.Content {
			if tc, ok := c.(mcp.TextContent); ok {
				return nil, fmt.Errorf("mcptool: tool error: %s", tc.Text)
			}
		}
		return nil, fmt.Errorf("mcptool: tool returned an unspecified error")
	}

	var texts []string
	for _, c := range resp.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	switch len(texts) {
	case 0:
	case 1:
		result["result"] = texts[0]
	default:
		result["results"] = texts
	}
	return result, nil
}

func mcpActionName(toolsetName, toolName string) string {
	return toolsetName + "." + toolName
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
