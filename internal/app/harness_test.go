package app

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpHarness connects an in-process MCP client to a built App.
type mcpHarness struct {
	t      *testing.T
	app    *App
	client *client.Client
}

func newMCPHarness(t *testing.T, market *fakeMarket) *mcpHarness {
	t.Helper()

	a := newTestApp(t, market)

	c, err := client.NewInProcessClient(a.MCPServer)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "alin-test", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		t.Fatalf("Failed to initialize MCP: %v", err)
	}

	t.Cleanup(func() { c.Close() })
	return &mcpHarness{t: t, app: a, client: c}
}

func (h *mcpHarness) callTool(name string, args map[string]any) *mcp.CallToolResult {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := h.client.CallTool(context.Background(), req)
	require.NoError(h.t, err)
	return result
}

func (h *mcpHarness) text(result *mcp.CallToolResult) string {
	h.t.Helper()
	require.NotEmpty(h.t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(h.t, ok, "content is %T", result.Content[0])
	return tc.Text
}

func TestMCP_ListTools(t *testing.T) {
	h := newMCPHarness(t, &fakeMarket{})

	tools, err := h.client.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"get_etf_history", "get_portfolio_insights", "get_metric_history", "list_collections"} {
		assert.True(t, names[want], want)
	}
}

func TestMCP_CallTools(t *testing.T) {
	h := newMCPHarness(t, &fakeMarket{})

	result := h.callTool("get_etf_history", map[string]any{"from": "2025-01-02", "to": "2025-01-31"})
	assert.False(t, result.IsError)
	assert.Contains(t, h.text(result), "# $ALIN 2025-01-02 to 2025-01-31")

	result = h.callTool("get_metric_history", map[string]any{"ticker": "nvda"})
	assert.False(t, result.IsError)
	assert.Contains(t, h.text(result), "NVDA")

	result = h.callTool("get_portfolio_insights", nil)
	assert.False(t, result.IsError)
	assert.Contains(t, h.text(result), "**Health:**")
}

func TestMCP_ToolErrorsAreResults(t *testing.T) {
	h := newMCPHarness(t, &fakeMarket{})

	result := h.callTool("get_portfolio_insights", map[string]any{"portfolio_id": "ghost"})
	assert.True(t, result.IsError)

	result = h.callTool("get_etf_history", map[string]any{"from": "January"})
	assert.True(t, result.IsError)
}
