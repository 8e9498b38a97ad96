package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/licitai/internal/domain/ai"
	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
	"github.com/bryanwahyu/licitai/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client adapts the OpenAI API to the domain Judge port and provides the
// embedding function for the retrieval store.
type Client struct {
	*openai.Client
	Model      string
	EmbedModel string
}

func NewClient(apiKey, model, embedModel string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, EmbedModel: embedModel}
}

// AssessCategory implements ai.Judge with a JSON-object response format.
func (c *Client) AssessCategory(ctx context.Context, category evaluation.Category, document string, snippets []evaluation.Snippet) (string, error) {
	return c.completeJSON(ctx, prompt.ValidatorSystem(category), prompt.ValidatorUser(category, document, snippets), 0.2)
}

// JudgeRelatedness implements ai.Judge.
func (c *Client) JudgeRelatedness(ctx context.Context, actividad, razon, objeto string) (string, error) {
	return c.completeJSON(ctx, prompt.RelatednessSystem, prompt.RelatednessUser(actividad, razon, objeto), 0.2)
}

// Justify implements ai.Judge with plain prose output.
func (c *Client) Justify(ctx context.Context, in domai.JustifyInput) (string, error) {
	req := c.baseRequest(prompt.JustifySystem, prompt.JustifyUser(in), 0.3)
	return c.complete(ctx, req)
}

// Chat implements ai.Judge with plain prose output.
func (c *Client) Chat(ctx context.Context, question, contextText string) (string, error) {
	req := c.baseRequest(prompt.ChatSystem, prompt.ChatUser(question, contextText), 0.2)
	return c.complete(ctx, req)
}

// Embed returns the embedding vector for one text, in the shape chromem
// expects.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.EmbedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", mapErr(err))
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) completeJSON(ctx context.Context, system, user string, temperature float32) (string, error) {
	req := c.baseRequest(system, user, temperature)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return c.complete(ctx, req)
}

func (c *Client) baseRequest(system, user string, temperature float32) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", mapErr(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// mapErr surfaces quota exhaustion as the domain sentinel so the HTTP layer
// can answer 429.
func mapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
	}
	return err
}
