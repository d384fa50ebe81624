// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm asks an OpenAI-compatible chat completion endpoint to
// condense research findings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "deepseek-chat"

// DefaultBaseURL is the DeepSeek OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

const systemPrompt = "You are a research assistant. Write a concise synthesis of the findings you are given: " +
	"three to six short paragraphs, neutral tone, no preamble. Only use facts present in the findings."

// Source is one finding passed to the model.
type Source struct {
	Title   string
	URL     string
	Summary string
}

// Options configures a Synthesizer.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	HTTPClient  *http.Client
}

// Synthesizer wraps the OpenAI SDK client.
type Synthesizer struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// New creates a Synthesizer for an OpenAI-compatible backend.
func New(opts Options) *Synthesizer {
	reqOpts := []option.RequestOption{}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	reqOpts = append(reqOpts, option.WithBaseURL(baseURL))

	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	} else {
		// Local backends accept any key.
		reqOpts = append(reqOpts, option.WithAPIKey("dummy"))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	// Tool calls have their own deadline; do not multiply it with retries.
	reqOpts = append(reqOpts, option.WithMaxRetries(0))

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	return &Synthesizer{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
	}
}

// Synthesize returns a short synthesis of sources for topic and focus.
func (s *Synthesizer) Synthesize(ctx context.Context, topic, focus string, sources []Source) (string, error) {
	if len(sources) == 0 {
		return "", errors.New("synthesize: no sources")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(topic, focus, sources)),
		},
		MaxTokens:   openai.Int(s.maxTokens),
		Temperature: openai.Float(s.temperature),
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return text, nil
}

func buildPrompt(topic, focus string, sources []Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nFocus: %s\n\nFindings:\n", topic, focus)
	for i, src := range sources {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, src.Title, src.URL, src.Summary)
	}
	return b.String()
}
