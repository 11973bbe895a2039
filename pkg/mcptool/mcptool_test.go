package mcptool

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestParseResult_SingleTextContent(t *testing.T) {
	resp := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "42"}},
	}
	result, err := parseResult(resp)
	require.NoError(t, err)
	require.Equal(t, "42", result["result"])
}

func TestParseResult_MultipleTextContent(t *testing.T) {
	resp := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "a"},
			mcp.TextContent{Type: "text", Text: "b"},
		},
	}
	result, err := parseResult(resp)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, result["results"])
}

func TestParseResult_ErrorContent(t *testing.T) {
	resp := &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "boom"}},
	}
	_, err := parseResult(resp)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestMCPActionName(t *testing.T) {
	require.Equal(t, "github.search_issues", mcpActionName("github", "search_issues"))
}
