package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAICompat provides an implementation of the LLM interface for interacting with OpenAI-compatible API services.
// It manages connections to any OpenAI-compatible server instance and handles chat completions.
type OpenAICompat struct {
	BaseURL string
	model   string
	params  Parameters

	client *goopenai.Client
	logger *slog.Logger
}

// NewOpenAICompat creates a new OpenAICompat instance with the specified host URL and model name.
// The host parameter should be a valid URL pointing to an OpenAI-compatible API server.
func NewOpenAICompat(host, apiKey, model string, params Parameters, logger *slog.Logger) OpenAICompat {
	baseURL := strings.TrimSuffix(host, "/")

	config := goopenai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	client := goopenai.NewClientWithConfig(config)

	return OpenAICompat{
		BaseURL: baseURL,
		model:   model,
		params:  params,
		client:  client,
		logger:  logger.With(slog.String("module", "openaicompat")),
	}
}

// Chat sends a chat message to the OpenAI-compatible API. Rate-limit and
// server-overload failures are returned as transient errors; reasoning tags
// are stripped from the response, since many local servers emit them.
func (o OpenAICompat) Chat(ctx context.Context, messages []string) (string, error) {
	msgs := make([]goopenai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		if i%2 == 1 {
			role = goopenai.ChatMessageRoleAssistant
		}
		msgs[i] = goopenai.ChatCompletionMessage{
			Role:    role,
			Content: msg,
		}
	}

	req := o.chatRequest(msgs)

	ctx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", classifyErr(fmt.Errorf("error sending request: %w", err), apiErr.HTTPStatusCode)
		}
		return "", classifyErr(fmt.Errorf("error sending request: %w", err), 0)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return RemoveThinkTags(resp.Choices[0].Message.Content), nil
}

func (o OpenAICompat) chatRequest(messages []goopenai.ChatCompletionMessage) goopenai.ChatCompletionRequest {
	req := goopenai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}

	if o.params.Temperature != nil {
		req.Temperature = *o.params.Temperature
	}
	if o.params.TopP != nil {
		req.TopP = *o.params.TopP
	}
	if o.params.Stop != nil {
		req.Stop = o.params.Stop
	}
	if o.params.PresencePenalty != nil {
		req.PresencePenalty = *o.params.PresencePenalty
	}
	if o.params.Seed != nil {
		req.Seed = o.params.Seed
	}
	if o.params.FrequencyPenalty != nil {
		req.FrequencyPenalty = *o.params.FrequencyPenalty
	}
	if o.params.LogitBias != nil {
		req.LogitBias = o.params.LogitBias
	}
	if o.params.Logprobs != nil {
		req.LogProbs = *o.params.Logprobs
	}
	if o.params.TopLogprobs != nil {
		req.TopLogProbs = *o.params.TopLogprobs
	}
	if o.params.MaxTokens != nil {
		req.MaxTokens = *o.params.MaxTokens
	}

	return req
}
