// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
)

// caller is the transport-specific half of a client: send one request,
// return its result payload or the RPC error.
type caller interface {
	call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Client is an MCP client that talks JSON-RPC 2.0 over HTTP POST.
type Client struct {
	httpClient *http.Client
	serverURL  string
	token      string
	clientInfo Implementation
	sessionID  string
	nextID     atomic.Int64
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken sets the Authorization header on every request.
func WithBearerToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithClientInfo sets the implementation name sent during initialize.
func WithClientInfo(info Implementation) ClientOption {
	return func(c *Client) { c.clientInfo = info }
}

// NewClient creates a new MCP client targeting the given server URL.
func NewClient(serverURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		serverURL:  serverURL,
		clientInfo: Implementation{Name: "beebot-inspect", Version: "0.1.0"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize performs the initialize handshake and stores the session ID.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	raw, headers, err := c.callWithHeaders(ctx, MethodInitialize, initializeParams(c.clientInfo))
	if err != nil {
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}
	if sid := headers.Get("Mcp-Session-Id"); sid != "" {
		c.sessionID = sid
	}
	return decodeResult[InitializeResult](raw, MethodInitialize)
}

// ListTools returns the tools exposed by the MCP server.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	return listTools(ctx, c)
}

// CallTool invokes a tool on the MCP server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	return callTool(ctx, c, name, args)
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, _, err := c.callWithHeaders(ctx, method, params)
	return raw, err
}

// callWithHeaders sends a JSON-RPC request and returns the result along with response headers.
func (c *Client) callWithHeaders(ctx context.Context, method string, params any) (json.RawMessage, http.Header, error) {
	body, err := encodeRequest(c.nextID.Add(1), method, params)
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, nil, fmt.Errorf("http status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Streamable-HTTP servers may wrap the envelope in a single SSE event.
	var respBody []byte
	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		respBody, err = extractSSEData(httpResp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("parse SSE response: %w", err)
		}
	} else {
		respBody, err = io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("read response: %w", err)
		}
	}

	raw, err := decodeResponse(respBody)
	if err != nil {
		return nil, nil, err
	}
	return raw, httpResp.Header, nil
}

// extractSSEData returns the payload of the first "data:" line of an SSE stream.
func extractSSEData(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			return []byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no data line found in SSE stream")
}

func initializeParams(info Implementation) InitializeParams {
	return InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      info,
		Capabilities:    map[string]any{},
	}
}

func listTools(ctx context.Context, c caller) ([]ToolInfo, error) {
	raw, err := c.call(ctx, MethodToolsList, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list: %w", err)
	}
	result, err := decodeResult[ToolsListResult](raw, MethodToolsList)
	if err != nil {
		return nil, err
	}
	return result.Tools, nil
}

func callTool(ctx context.Context, c caller, name string, args map[string]any) (*ToolCallResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := c.call(ctx, MethodToolsCall, ToolCallParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp tools/call %s: %w", name, err)
	}
	return decodeResult[ToolCallResult](raw, MethodToolsCall+" "+name)
}

func encodeRequest(id int64, method string, params any) ([]byte, error) {
	req := JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      json.RawMessage(strconv.FormatInt(id, 10)),
		Method:  method,
	}
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = p
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// decodeResponse unwraps an envelope, turning an RPC error into a
// *JSONRPCError so callers can match it with errors.As.
func decodeResponse(body []byte) (json.RawMessage, error) {
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

func decodeResult[T any](raw json.RawMessage, what string) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcp %s: unmarshal result: %w", what, err)
	}
	return &out, nil
}
