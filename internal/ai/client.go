package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ChitterSync/SynisterChat/internal/config"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the API answers without content.
var ErrEmptyResponse = errors.New("empty response from model")

const titlePrompt = "Summarize the user's message as a short chat title of at most six words. Reply with the title only, without quotes or trailing punctuation."

// Client talks to an OpenAI-compatible API. The default base URL is the
// GitHub Models inference endpoint authenticated with a GitHub token.
type Client struct {
	api *openai.Client
	cfg config.AIConfig
}

// New creates a Client from cfg.
func New(cfg config.AIConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("AI token is required")
	}

	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		api: openai.NewClientWithConfig(clientCfg),
		cfg: cfg,
	}, nil
}

// Complete sends a transcript and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, msgs []session.TranscriptEntry) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    convertMessages(msgs),
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize returns a short title for a first message.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.TitleModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titlePrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: 24,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("title completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	title := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'`)
	if title == "" {
		return "", ErrEmptyResponse
	}
	return title, nil
}

// GenerateImage renders prompt and returns the PNG bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	resp, err := c.api.CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Transcribe returns the text spoken in audio.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req := openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		FilePath: "audio.webm",
		Reader:   bytes.NewReader(audio),
	}

	resp, err := c.api.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}

// Embed returns one vector per text. It satisfies memory.Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func convertMessages(msgs []session.TranscriptEntry) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
