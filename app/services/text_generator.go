package services

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

const (
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultAnthropicModel  = "claude-haiku-4-5-20251001"
	defaultGenerationLimit = 1024
	generationSystemPrompt = "You write one short newsletter section in markdown. Return only the section body."
)

// TextRequest describes the text box to generate
type TextRequest struct {
	Prompt        string
	PublicationID uuid.UUID
	IssueDate     time.Time
}

// TextGenerator produces the body of a generated text box
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

// TextGeneratorConfig selects and configures the provider
type TextGeneratorConfig struct {
	Provider  string
	APIKey    string
	Endpoint  string
	Model     string
	MaxTokens int
}

var ErrEmptyGeneration = errors.New("text generator returned no content")

// NewTextGenerator builds the provider named by cfg.Provider ("openai" or "anthropic")
func NewTextGenerator(cfg TextGeneratorConfig) (TextGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("text generator api key is empty")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultGenerationLimit
	}
	model := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic":
		if model == "" {
			model = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		return &AnthropicTextGenerator{
			client:    anthropicclient.NewClient(opts...),
			model:     model,
			maxTokens: int64(maxTokens),
		}, nil
	case "", "openai":
		if model == "" {
			model = defaultOpenAIModel
		}
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}
		return &OpenAITextGenerator{
			client:    openaiclient.NewClient(opts...),
			model:     model,
			maxTokens: int64(maxTokens),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported text generator provider: %s", cfg.Provider)
	}
}

func userPrompt(req TextRequest) string {
	prompt := strings.TrimSpace(req.Prompt)
	if req.IssueDate.IsZero() {
		return prompt
	}
	return fmt.Sprintf("%s\n\nIssue date: %s", prompt, req.IssueDate.UTC().Format(time.DateOnly))
}

// OpenAITextGenerator talks to OpenAI or any OpenAI-compatible endpoint
type OpenAITextGenerator struct {
	client    openaiclient.Client
	model     string
	maxTokens int64
}

func (g *OpenAITextGenerator) Generate(ctx context.Context, req TextRequest) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(g.model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(generationSystemPrompt),
			openaiclient.UserMessage(userPrompt(req)),
		},
		MaxCompletionTokens: openaiclient.Int(g.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyGeneration
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

// AnthropicTextGenerator talks to the Anthropic messages API
type AnthropicTextGenerator struct {
	client    anthropicclient.Client
	model     string
	maxTokens int64
}

func (g *AnthropicTextGenerator) Generate(ctx context.Context, req TextRequest) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:     anthropicclient.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropicclient.TextBlockParam{{Text: generationSystemPrompt}},
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message failed: %w", err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

// normalizeOpenAIBaseURL makes sure a custom endpoint ends with /v1
func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
