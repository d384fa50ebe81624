// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrClientClosed is returned once a StdioClient can no longer be used.
var ErrClientClosed = errors.New("mcp: stdio client closed")

// StdioClient speaks newline-delimited JSON-RPC with a server over a pair
// of streams, usually the stdin/stdout of a child process. Calls are
// serialised: the server answers in request order.
type StdioClient struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	nextID atomic.Int64
	broken bool
	closer func() error
	info   Implementation
}

// NewStdioClient wraps a reader (server output) and writer (server input).
func NewStdioClient(r io.Reader, w io.Writer) *StdioClient {
	return &StdioClient{
		w:    w,
		r:    bufio.NewReader(r),
		info: Implementation{Name: "beebot-inspect", Version: "0.1.0"},
	}
}

// StartProcess launches a server command and connects to its stdio.
// The child's stderr is forwarded to ours.
func StartProcess(ctx context.Context, name string, args ...string) (*StdioClient, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	c := NewStdioClient(stdout, stdin)
	c.closer = func() error {
		// Closing stdin delivers EOF, which is the server's clean shutdown signal.
		_ = stdin.Close()
		return cmd.Wait()
	}
	return c, nil
}

// Initialize performs the initialize handshake.
func (c *StdioClient) Initialize(ctx context.Context) (*InitializeResult, error) {
	raw, err := c.call(ctx, MethodInitialize, initializeParams(c.info))
	if err != nil {
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}
	return decodeResult[InitializeResult](raw, MethodInitialize)
}

// ListTools returns the tools exposed by the server.
func (c *StdioClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	return listTools(ctx, c)
}

// CallTool invokes a tool on the server.
func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	return callTool(ctx, c, name, args)
}

// Close shuts the connection down and, for spawned servers, waits for exit.
func (c *StdioClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broken = true
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

func (c *StdioClient) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, ErrClientClosed
	}

	id := c.nextID.Add(1)
	body, err := encodeRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	if _, err := c.w.Write(append(body, '\n')); err != nil {
		c.broken = true
		return nil, fmt.Errorf("write request: %w", err)
	}

	type readResult struct {
		line []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		line, err := c.readLine()
		done <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		// The pending read would hand us a stale reply later; give up on the stream.
		c.broken = true
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			c.broken = true
			return nil, fmt.Errorf("read response: %w", res.err)
		}
		var envelope struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(res.line, &envelope); err == nil {
			if got := string(bytes.TrimSpace(envelope.ID)); got != strconv.FormatInt(id, 10) && got != "null" {
				c.broken = true
				return nil, fmt.Errorf("response id %s does not match request id %d", got, id)
			}
		}
		return decodeResponse(res.line)
	}
}

// readLine returns the next non-blank line from the server.
func (c *StdioClient) readLine() ([]byte, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
