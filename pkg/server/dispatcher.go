// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the JSON-RPC request dispatcher that drives
// the tool registry.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
)

// DefaultToolTimeout bounds a tools/call when Options.ToolTimeout is unset.
const DefaultToolTimeout = 45 * time.Second

// Options configures a Dispatcher.
type Options struct {
	Info        mcp.Implementation
	ToolTimeout time.Duration
	Logger      *logging.Logger
}

// Dispatcher turns JSON-RPC messages into registry lookups and handler
// invocations. It owns framing and error envelopes; handlers never see the
// output stream.
type Dispatcher struct {
	registry    *toolkit.Registry
	info        mcp.Implementation
	toolTimeout time.Duration
	logger      *logging.Logger
}

// New creates a Dispatcher over registry.
func New(registry *toolkit.Registry, opts Options) *Dispatcher {
	if opts.Info.Name == "" {
		opts.Info = mcp.Implementation{Name: "beebot-mcp", Version: "dev"}
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Dispatcher{
		registry:    registry,
		info:        opts.Info,
		toolTimeout: opts.ToolTimeout,
		logger:      opts.Logger.Component("dispatcher"),
	}
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *toolkit.Registry {
	return d.registry
}

// Serve reads newline-delimited requests from r and writes one response
// line to w per non-blank request, in order, flushing after each. It
// freezes the registry first. A clean end of input returns nil.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	d.registry.Freeze()

	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			if resp, ok := d.HandleMessage(ctx, line); ok {
				if err := writeResponse(writer, resp); err != nil {
					return fmt.Errorf("write response: %w", err)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				d.logger.Debug("input closed")
				return nil
			}
			return fmt.Errorf("read request: %w", readErr)
		}
	}
}

func writeResponse(w *bufio.Writer, resp *mcp.JSONRPCResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

// HandleMessage processes one raw message. The boolean is false when the
// message is blank and no response must be sent.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg []byte) (resp *mcp.JSONRPCResponse, ok bool) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil, false
	}

	var id json.RawMessage
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling request", "panic", r, "stack", string(debug.Stack()))
			resp, ok = mcp.NewError(id, mcp.CodeServerError, fmt.Sprintf("internal error: %v", r)), true
		}
	}()

	start := time.Now()
	req, perr := parseRequest(msg)
	if perr != nil {
		d.logger.Warn("rejected request", "code", perr.code, "error", perr.message)
		return mcp.NewError(perr.id, perr.code, perr.message), true
	}
	id = req.ID

	resp = d.dispatch(ctx, req)
	if resp.Error != nil {
		d.logger.Warn("request failed",
			"method", req.Method, "id", string(resp.ID),
			"code", resp.Error.Code, "error", resp.Error.Message,
			"duration", time.Since(start))
	} else {
		d.logger.Debug("request handled",
			"method", req.Method, "id", string(resp.ID),
			"duration", time.Since(start))
	}
	return resp, true
}

type requestError struct {
	id      json.RawMessage
	code    int
	message string
}

// parseRequest separates framing errors (-32700) from envelopes that are
// valid JSON but not a usable request (-32600).
func parseRequest(msg []byte) (*mcp.JSONRPCRequest, *requestError) {
	if !utf8.Valid(msg) || !json.Valid(msg) {
		return nil, &requestError{code: mcp.CodeParseError, message: "parse error"}
	}
	if msg[0] != '{' {
		return nil, &requestError{code: mcp.CodeInvalidRequest, message: "invalid request: expected a JSON object"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return nil, &requestError{code: mcp.CodeInvalidRequest, message: "invalid request: " + err.Error()}
	}

	id := fields["id"]
	if !validID(id) {
		return nil, &requestError{code: mcp.CodeInvalidRequest, message: "invalid request: id must be a string, number or null"}
	}

	if v, ok := fields["jsonrpc"]; ok {
		var version string
		if err := json.Unmarshal(v, &version); err != nil || version != mcp.JSONRPCVersion {
			return nil, &requestError{id: id, code: mcp.CodeInvalidRequest, message: `invalid request: jsonrpc must be "2.0"`}
		}
	}

	var method string
	if err := json.Unmarshal(fields["method"], &method); err != nil || method == "" {
		return nil, &requestError{id: id, code: mcp.CodeInvalidRequest, message: "invalid request: method is required"}
	}

	return &mcp.JSONRPCRequest{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  fields["params"],
	}, nil
}

func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return true
	}
	switch id[0] {
	case '"', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	default:
		return false
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, req *mcp.JSONRPCRequest) *mcp.JSONRPCResponse {
	switch {
	case req.Method == mcp.MethodInitialize:
		return d.result(req.ID, mcp.InitializeResult{
			ProtocolVersion: mcp.ProtocolVersion,
			ServerInfo:      d.info,
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case req.Method == mcp.MethodPing:
		return d.result(req.ID, struct{}{})
	case req.Method == mcp.MethodToolsList:
		return d.result(req.ID, toolsListResult{Tools: d.registry.List()})
	case req.Method == mcp.MethodToolsCall:
		return d.callTool(ctx, req)
	case strings.HasPrefix(req.Method, "notifications/"):
		return d.result(req.ID, struct{}{})
	default:
		return mcp.NewError(req.ID, mcp.CodeMethodNotFound, "unknown method: "+req.Method)
	}
}

type toolsListResult struct {
	Tools []toolkit.Descriptor `json:"tools"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) callTool(ctx context.Context, req *mcp.JSONRPCRequest) *mcp.JSONRPCResponse {
	var params toolCallParams
	if len(req.Params) > 0 && string(req.Params) != "null" {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return mcp.NewError(req.ID, mcp.CodeInvalidParams, "invalid params: "+err.Error())
		}
	}
	if params.Name == "" {
		return mcp.NewError(req.ID, mcp.CodeMethodNotFound, "missing tool name")
	}

	tool, err := d.registry.Resolve(params.Name)
	if err != nil {
		return mcp.NewError(req.ID, mcp.CodeMethodNotFound, "unknown tool: "+params.Name)
	}

	raw := map[string]any{}
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &raw); err != nil {
			return mcp.NewError(req.ID, mcp.CodeInvalidParams, "invalid params: arguments must be an object")
		}
	}
	args, err := tool.InputSchema.Validate(raw)
	if err != nil {
		return mcp.NewError(req.ID, mcp.CodeInvalidParams, err.Error())
	}

	result, err := d.invoke(ctx, tool, args)
	if err != nil {
		return mcp.NewError(req.ID, mcp.CodeServerError, err.Error())
	}
	if result.IsError {
		d.logger.Warn("tool reported an error", "tool", tool.Name, "message", result.Text())
	}
	return d.result(req.ID, result)
}

// invoke runs a handler under the per-call deadline and converts a panic
// into an error.
func (d *Dispatcher) invoke(ctx context.Context, tool toolkit.Tool, args toolkit.Arguments) (result *mcp.ToolCallResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.toolTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", tool.Name, "panic", r, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("tool %s failed: %v", tool.Name, r)
		}
	}()

	result, err = tool.Handler(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s failed: %w", tool.Name, err)
	}
	if result == nil {
		return nil, fmt.Errorf("tool %s returned no result", tool.Name)
	}
	if result.Content == nil {
		result.Content = []mcp.ContentBlock{}
	}
	return result, nil
}

func (d *Dispatcher) result(id json.RawMessage, v any) *mcp.JSONRPCResponse {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewError(id, mcp.CodeServerError, "encode result: "+err.Error())
	}
	return mcp.NewResult(id, data)
}
