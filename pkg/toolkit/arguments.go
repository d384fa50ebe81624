// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package toolkit

import (
	"fmt"

	"github.com/leseb/beebot-mcp/pkg/mcp"
)

// Arguments are the validated arguments of a tool call.
type Arguments map[string]any

// String returns the named string argument, or "" if absent.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Float returns the named numeric argument, or 0 if absent.
func (a Arguments) Float(name string) float64 {
	f, _ := toFloat(a[name])
	return f
}

// Int returns the named numeric argument truncated to int.
func (a Arguments) Int(name string) int {
	return int(a.Float(name))
}

// TextResult wraps text blocks in a successful tool result.
func TextResult(texts ...string) *mcp.ToolCallResult {
	content := make([]mcp.ContentBlock, 0, len(texts))
	for _, t := range texts {
		content = append(content, mcp.ContentBlock{Type: "text", Text: t})
	}
	return &mcp.ToolCallResult{Content: content}
}

// ErrorResult builds a domain failure result carrying a readable message.
func ErrorResult(format string, args ...any) *mcp.ToolCallResult {
	return &mcp.ToolCallResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
