package assistant

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

const extractionTemperature = 0.1

// Client wraps the OpenAI API for intent extraction and voice transcription.
type Client struct {
	api                *openai.Client
	model              string
	transcriptionModel string
}

// NewClient creates an assistant client from config.
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	transcriptionModel := cfg.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = openai.Whisper1
	}

	return &Client{
		api:                openai.NewClientWithConfig(clientCfg),
		model:              model,
		transcriptionModel: transcriptionModel,
	}
}

// Extract asks the model to pull a structured payment intent out of the
// utterance. The raw assistant reply is returned as-is; normalization is
// the caller's concern.
func (c *Client) Extract(ctx context.Context, utterance string, history []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: ExtractionSystemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: utterance,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: extractionTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("assistant: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("assistant: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts a voice recording to text via the Whisper API.
// filename carries the extension the API uses to sniff the audio format.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("assistant: transcription failed: %w", err)
	}
	return resp.Text, nil
}
