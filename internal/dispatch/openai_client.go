package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openaiChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAILLMClient implements LLMClient using OpenAI chat completions.
type OpenAILLMClient struct {
	api openaiChatAPI
}

// NewOpenAILLMClient creates an OpenAI-backed LLM client.
func NewOpenAILLMClient(apiKey string) (*OpenAILLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("dispatch: openai api key is required")
	}
	return &OpenAILLMClient{api: openai.NewClient(apiKey)}, nil
}

func newOpenAILLMClientWithAPI(api openaiChatAPI) *OpenAILLMClient {
	return &OpenAILLMClient{api: api}
}

// Complete sends a completion request to OpenAI and returns the reply text
// with total token usage.
func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		return LLMResponse{}, errors.New("dispatch: openai model is required")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: block,
		})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		case ChatRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		if msg.ImageURL != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role: role,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: msg.Content},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: msg.ImageURL},
					},
				},
			})
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("dispatch: openai requires at least one message")
	}

	apiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		apiReq.Temperature = req.Temperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("dispatch: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("dispatch: openai returned no choices")
	}

	return LLMResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		StopReason: string(resp.Choices[0].FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}
