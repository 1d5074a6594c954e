// Package ai wraps the OpenAI API behind small interfaces so the chat
// core can be tested with fakes and swapped to compatible gateways.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CallOptions tune a single completion call.
type CallOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// StructuredSchema names a JSON schema the completion must conform to.
type StructuredSchema struct {
	Name       string
	Definition *jsonschema.Definition
}

// CompletionClient is the completion surface the core depends on.
type CompletionClient interface {
	// Complete returns the raw text of a plain chat completion.
	Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error)
	// CompleteStructured returns JSON guaranteed by the API to match the schema.
	CompleteStructured(ctx context.Context, system string, history []Message, schema StructuredSchema, opts CallOptions) (json.RawMessage, error)
}

// EmbeddingClient generates one vector per input text, order-preserving.
type EmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client implements CompletionClient and EmbeddingClient over the OpenAI API.
type Client struct {
	api            *openai.Client
	defaultModel   string
	embeddingModel string
	logger         *zap.Logger
}

// ClientConfig configures the OpenAI-backed client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	DefaultModel   string
	EmbeddingModel string
}

// NewClient creates an OpenAI-backed AI client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		defaultModel:   cfg.DefaultModel,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger,
	}
}

// Complete runs a plain chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model(opts),
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStructured runs a completion constrained to the given JSON schema
// and returns the raw JSON payload. The schema is enforced server-side, so
// callers unmarshal without repair logic.
func (c *Client) CompleteStructured(ctx context.Context, system string, history []Message, schema StructuredSchema, opts CallOptions) (json.RawMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, toOpenAIMessages(history)...)

	req := openai.ChatCompletionRequest{
		Model:       c.model(opts),
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: schema.Definition,
				Strict: true,
			},
		},
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("structured completion %q: %w", schema.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("structured completion %q: empty response", schema.Name)
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// Embed generates embeddings for the given texts, one vector per input.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (c *Client) model(opts CallOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.defaultModel
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
