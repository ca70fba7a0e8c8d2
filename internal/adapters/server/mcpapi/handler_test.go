package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/chantab/internal/adapters/server/common"
	"github.com/evanschultz/chantab/internal/domain"
)

// stubChannelReader provides deterministic channel responses for MCP tool tests.
type stubChannelReader struct {
	channels []domain.Channel
	err      error
	lastID   string
}

// ListChannels returns the configured channels.
func (s *stubChannelReader) ListChannels(context.Context) ([]domain.Channel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return domain.CloneChannels(s.channels), nil
}

// GetChannel records the id and returns the matching channel.
func (s *stubChannelReader) GetChannel(_ context.Context, id string) (domain.Channel, error) {
	s.lastID = id
	if s.err != nil {
		return domain.Channel{}, s.err
	}
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return domain.Channel{}, common.ErrNotFound
}

// State returns a summary over the configured channels.
func (s *stubChannelReader) State(context.Context) (common.StoreState, error) {
	if s.err != nil {
		return common.StoreState{}, s.err
	}
	return common.StoreState{
		Source:    "ambient",
		Counter:   100,
		Count:     len(s.channels),
		StateHash: "abc123",
		Channels:  domain.CloneChannels(s.channels),
	}, nil
}

func newStubReader() *stubChannelReader {
	return &stubChannelReader{channels: []domain.Channel{
		{ID: "1", DisplayNumber: "7", SecondaryID: "480-201"},
		{ID: "2", DisplayNumber: "9", SecondaryID: "812-660"},
	}}
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "chantab-test",
				"version": "1.0.0",
			},
		},
	}
}

// newTestServer starts one MCP server over the reader.
func newTestServer(t *testing.T, reader common.ChannelReader) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, reader)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, newStubReader())
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestNewHandlerRequiresReader verifies construction fails without a reader.
func TestNewHandlerRequiresReader(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error without channel reader")
	}
}

// TestHandlerRegistersChannelTools verifies tool discovery.
func TestHandlerRegistersChannelTools(t *testing.T) {
	server := newTestServer(t, newStubReader())
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{"chantab.list_channels", "chantab.get_channel", "chantab.store_state"} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %s: %#v", required, toolNames)
		}
	}
}

// TestListChannelsTool verifies the structured list payload.
func TestListChannelsTool(t *testing.T) {
	server := newTestServer(t, newStubReader())
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "chantab.list_channels", map[string]any{}))

	structured := toolResultStructured(t, resp.Result)
	list, ok := structured["channels"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("unexpected channels payload %#v", structured)
	}
	first, _ := list[0].(map[string]any)
	if first["id"] != "1" || first["displayNumber"] != "7" {
		t.Fatalf("unexpected first channel %#v", first)
	}
}

// TestGetChannelTool verifies lookups and coded errors.
func TestGetChannelTool(t *testing.T) {
	reader := newStubReader()
	server := newTestServer(t, reader)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "chantab.get_channel", map[string]any{"id": "2"}))
	structured := toolResultStructured(t, resp.Result)
	if structured["secondaryId"] != "812-660" {
		t.Fatalf("unexpected channel %#v", structured)
	}
	if reader.lastID != "2" {
		t.Fatalf("expected id 2, got %q", reader.lastID)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "chantab.get_channel", map[string]any{"id": "404"}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected tool error, got %#v", resp.Result)
	}
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "not_found:") {
		t.Fatalf("expected not_found prefix, got %q", text)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "chantab.get_channel", map[string]any{}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected missing id to fail, got %#v", resp.Result)
	}
}

// TestStoreStateTool verifies the summary payload.
func TestStoreStateTool(t *testing.T) {
	server := newTestServer(t, newStubReader())
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(7, "chantab.store_state", map[string]any{}))

	structured := toolResultStructured(t, resp.Result)
	if structured["source"] != "ambient" || structured["state_hash"] != "abc123" {
		t.Fatalf("unexpected state %#v", structured)
	}
	if count, _ := structured["count"].(float64); count != 2 {
		t.Fatalf("expected count 2, got %#v", structured["count"])
	}
}

// TestToolResultFromError verifies error code prefixes.
func TestToolResultFromError(t *testing.T) {
	cases := map[string]error{
		"invalid_request:":     common.ErrInvalidRequest,
		"not_found:":           common.ErrNotFound,
		"service_unavailable:": common.ErrUnavailable,
		"internal_error:":      errors.New("boom"),
		"unknown error":        nil,
	}
	for prefix, err := range cases {
		result := toolResultFromError(err)
		if !result.IsError {
			t.Fatalf("%s: expected error result", prefix)
		}
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok {
			t.Fatalf("content[0] has unexpected type %T", result.Content[0])
		}
		if !strings.HasPrefix(text.Text, prefix) {
			t.Fatalf("expected prefix %q, got %q", prefix, text.Text)
		}
	}
}
