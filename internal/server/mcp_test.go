package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

var testMCPImpl = &mcp.Implementation{Name: "medreport-test", Version: "0.1.0"}

func mcpSession(t *testing.T, p Pipeline) *mcp.ClientSession {
	t.Helper()
	srv := NewMCPServer(p, "test", nil)
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (*mcp.CallToolResult, string) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return result, tc.Text
}

func TestMCP_ExtractText(t *testing.T) {
	session := mcpSession(t, &fakePipeline{})

	result, text := callTool(t, session, ToolExtractText, map[string]any{"text": reportText})
	require.NoError(t, result.GetError())
	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Len(t, res.Extraction.Metrics, 2)

	result, _ = callTool(t, session, ToolExtractText, map[string]any{"text": ""})
	assert.True(t, result.IsError)
}

func TestMCP_ExtractFile(t *testing.T) {
	session := mcpSession(t, &fakePipeline{})

	result, text := callTool(t, session, ToolExtractFile, map[string]any{"path": writeReport(t)})
	require.NoError(t, result.GetError())
	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.True(t, res.Success)

	result, text = callTool(t, session, ToolExtractFile, map[string]any{"path": "/nope/report.txt"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "file not found")
}

func TestMCP_ListsTools(t *testing.T) {
	session := mcpSession(t, &fakePipeline{})
	tools, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolExtractText, ToolExtractFile}, names)
}
