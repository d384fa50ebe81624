// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Command inspect connects to an MCP server, lists its tools and
// optionally calls one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leseb/beebot-mcp/pkg/mcp"
)

// session is the part of an MCP client the inspector needs.
type session interface {
	Initialize(ctx context.Context) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context) ([]mcp.ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolCallResult, error)
}

func main() {
	serverURL := flag.String("url", "", "MCP HTTP endpoint, e.g. http://localhost:8080/mcp")
	command := flag.String("cmd", "", "Server command to spawn over stdio, e.g. \"beebot-mcp -toolset weather\"")
	token := flag.String("token", os.Getenv("MCP_TOKEN"), "Bearer token for the HTTP endpoint")
	tool := flag.String("tool", "", "Tool to call after listing")
	rawArgs := flag.String("args", "{}", "Tool arguments as a JSON object")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, os.Stdout, *serverURL, *command, *token, *tool, *rawArgs); err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, serverURL, command, token, tool, rawArgs string) error {
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Errorf("-args must be a JSON object: %w", err)
	}

	switch {
	case serverURL != "" && command != "":
		return errors.New("use either -url or -cmd, not both")
	case serverURL != "":
		var opts []mcp.ClientOption
		if token != "" {
			opts = append(opts, mcp.WithBearerToken(token))
		}
		return inspect(ctx, out, mcp.NewClient(serverURL, opts...), tool, args)
	case strings.TrimSpace(command) != "":
		fields := strings.Fields(command)
		client, err := mcp.StartProcess(ctx, fields[0], fields[1:]...)
		if err != nil {
			return err
		}
		defer client.Close()
		return inspect(ctx, out, client, tool, args)
	default:
		return errors.New("one of -url or -cmd is required")
	}
}

func inspect(ctx context.Context, out io.Writer, s session, tool string, args map[string]any) error {
	info, err := s.Initialize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s %s (protocol %s)\n\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)

	tools, err := s.ListTools(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Tools (%d):\n", len(tools))
	for _, t := range tools {
		fmt.Fprintf(out, "  %-24s %s\n", t.Name, t.Description)
	}

	if tool == "" {
		return nil
	}
	res, err := s.CallTool(ctx, tool, args)
	if err != nil {
		return err
	}
	status := "ok"
	if res.IsError {
		status = "tool error"
	}
	fmt.Fprintf(out, "\nCall %s (%s):\n%s\n", tool, status, res.Text())
	return nil
}
