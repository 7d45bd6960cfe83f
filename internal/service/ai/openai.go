package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIService generates replies with the OpenAI chat completions API.
type OpenAIService struct {
	client      chatClient
	model       string
	maxTokens   int
	temperature float32
	opts        Options
}

var _ Generator = (*OpenAIService)(nil)

// NewOpenAIService returns an OpenAI-backed Generator.
func NewOpenAIService(client chatClient, cfg config.AIConfig, opts Options) *OpenAIService {
	if client == nil {
		panic("ai: chat client cannot be nil")
	}

	svc := &OpenAIService{
		client:      client,
		model:       cfg.Model,
		maxTokens:   500,
		temperature: 0.7,
		opts:        opts,
	}
	if svc.model == "" {
		svc.model = "gpt-4o-mini"
	}
	if cfg.MaxTokens != nil {
		svc.maxTokens = *cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		svc.temperature = float32(*cfg.Temperature)
	}
	if svc.opts.Timeout == 0 {
		svc.opts.Timeout = cfg.Timeout
	}
	return svc
}

// GenerateReply sends the system prompt and message as a single completion.
func (s *OpenAIService) GenerateReply(ctx context.Context, message string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	start := time.Now()
	reply, err := s.complete(ctx, req)
	s.opts.Metrics.ObserveLLM(config.ProviderOpenAI, err == nil, time.Since(start).Seconds())
	if err != nil {
		s.opts.logger().Error("openai completion failed", zap.String("model", s.model), zap.Error(err))
		return "", err
	}
	return reply, nil
}

func (s *OpenAIService) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ai: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai: openai returned no choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
