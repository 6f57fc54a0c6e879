package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-relay/model"
)

// SystemInstructions is the fixed instruction seeding every completion.
const SystemInstructions = "You are a helpful voice assistant on a phone call. " +
	"Answer clearly and briefly; the reply will be spoken aloud."

// OpenAIClient wraps the OpenAI chat completion API for streamed replies.
type OpenAIClient struct {
	client             *openai.Client
	model              string
	systemInstructions string
}

// NewOpenAIClient builds a client for the given model.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	return &OpenAIClient{
		client:             openai.NewClient(apiKey),
		model:              model,
		systemInstructions: SystemInstructions,
	}, nil
}

// NewOpenAIClientWithConfig is like NewOpenAIClient but with a custom API
// base URL, used to point the client at a test server.
func NewOpenAIClientWithConfig(apiKey, model, baseURL string) (*OpenAIClient, error) {
	c, err := NewOpenAIClient(apiKey, model)
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	c.client = openai.NewClientWithConfig(cfg)
	return c, nil
}

// Complete requests a streamed chat completion seeded with the system
// instructions plus the given conversation turns, and concatenates the
// streamed content fragments in arrival order into a single reply.
func (c *OpenAIClient) Complete(ctx context.Context, turns []model.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.systemInstructions,
	})
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		reply.WriteString(resp.Choices[0].Delta.Content)
	}
	return strings.TrimSpace(reply.String()), nil
}
