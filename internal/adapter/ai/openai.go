package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arturoeanton/storyline/internal/port"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for completions and chat.
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings.
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
}

// OpenAIProvider implements port.AIProvider on top of go-openai.
type OpenAIProvider struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxTokens      int
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	p := &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		maxTokens:      cfg.MaxTokens,
	}
	if p.chatModel == "" {
		p.chatModel = DefaultChatModel
	}
	if p.embeddingModel == "" {
		p.embeddingModel = DefaultEmbeddingModel
	}
	if p.maxTokens == 0 {
		p.maxTokens = 1000
	}
	return p, nil
}

// ModelName returns the chat model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.chatModel
}

// Embed generates an embedding with the configured model.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: p.embeddingModel,
	})
	if err != nil {
		return nil, upstream("embed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &port.UpstreamError{Provider: "openai", Op: "embed", Malformed: true, Err: errors.New("no embeddings returned")}
	}
	return resp.Data[0].Embedding, nil
}

// Complete runs one instruction + input completion at low temperature.
func (p *OpenAIProvider) Complete(ctx context.Context, instructions, input string) (string, error) {
	return p.chatCompletion(ctx, "complete", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: instructions},
		{Role: openai.ChatMessageRoleUser, Content: input},
	}, 0.3)
}

// Chat continues a conversation.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []port.ChatTurn) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return p.chatCompletion(ctx, "chat", msgs, 0.7)
}

func (p *OpenAIProvider) chatCompletion(ctx context.Context, op string, msgs []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Messages:    msgs,
		MaxTokens:   p.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", upstream(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &port.UpstreamError{Provider: "openai", Op: op, Malformed: true, Err: errors.New("no completion choices returned")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// upstream wraps a go-openai error, keeping the HTTP status when there is one.
func upstream(op string, err error) error {
	ue := &port.UpstreamError{Provider: "openai", Op: op, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ue.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		ue.StatusCode = reqErr.HTTPStatusCode
	}
	return ue
}
