package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextGeneratorValidation(t *testing.T) {
	_, err := NewTextGenerator(TextGeneratorConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewTextGenerator(TextGeneratorConfig{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)

	gen, err := NewTextGenerator(TextGeneratorConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAITextGenerator{}, gen)

	gen, err = NewTextGenerator(TextGeneratorConfig{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicTextGenerator{}, gen)
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", normalizeOpenAIBaseURL(" "))
	assert.Equal(t, "https://llm.example.com/v1", normalizeOpenAIBaseURL("https://llm.example.com"))
	assert.Equal(t, "https://llm.example.com/v1", normalizeOpenAIBaseURL("https://llm.example.com/v1/"))
	assert.Equal(t, "https://llm.example.com/proxy/v1", normalizeOpenAIBaseURL("https://llm.example.com/proxy"))
}

func TestOpenAITextGenerator(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/chat/completions"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Weekly recap  "}}]}`)
	}))
	defer srv.Close()

	gen, err := NewTextGenerator(TextGeneratorConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), TextRequest{
		Prompt:    "Summarise the week",
		IssueDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly recap", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Contains(t, string(mustJSON(t, body["messages"])), "Issue date: 2026-03-02")
}

func TestAnthropicTextGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5-20251001",
			"content":[{"type":"text","text":"Editor's note"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	gen, err := NewTextGenerator(TextGeneratorConfig{Provider: "anthropic", APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), TextRequest{Prompt: "Write a note"})
	require.NoError(t, err)
	assert.Equal(t, "Editor's note", text)
}

func TestOpenAITextGeneratorEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cmpl-2","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	gen, err := NewTextGenerator(TextGeneratorConfig{APIKey: "k", Endpoint: srv.URL, Model: "m"})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), TextRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyGeneration)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
