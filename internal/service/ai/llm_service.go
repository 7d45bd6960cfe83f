package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
	"github.com/campuscare/support-chat/backend/internal/observability/metrics"
)

var (
	// ErrUnavailable means no language model is configured.
	ErrUnavailable = errors.New("ai: generator unavailable")
	// ErrEmptyReply means the model answered with no text.
	ErrEmptyReply = errors.New("ai: model returned an empty reply")
)

// Generator produces a supportive reply for a single user message.
type Generator interface {
	GenerateReply(ctx context.Context, message string) (string, error)
}

// Options carries the dependencies shared by every provider.
type Options struct {
	Timeout time.Duration
	Metrics *metrics.ChatMetrics
	Logger  *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// New builds the Generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.AIConfig, opts Options) (Generator, error) {
	if !cfg.Enabled() {
		return nil, ErrUnavailable
	}
	if opts.Timeout == 0 {
		opts.Timeout = cfg.Timeout
	}

	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("ai: failed to create chat model: %w", err)
		}
		svc, err := NewService(ctx, chatModel, config.ProviderArk, opts)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.ProviderOpenAI:
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		return NewOpenAIService(openai.NewClientWithConfig(clientCfg), cfg, opts), nil
	default:
		return nil, fmt.Errorf("ai: unsupported provider %q", cfg.Provider)
	}
}

// Service generates replies through an eino prompt + chat model chain.
type Service struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	provider string
	opts     Options
}

var _ Generator = (*Service)(nil)

// NewService compiles the reply chain around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel, provider string, opts Options) (*Service, error) {
	if chatModel == nil {
		return nil, ErrUnavailable
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("ai: failed to compile reply chain: %w", err)
	}

	return &Service{chain: runnable, provider: provider, opts: opts}, nil
}

// GenerateReply runs the chain once for message.
func (s *Service) GenerateReply(ctx context.Context, message string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": SystemPrompt,
		"query":  message,
	})
	if err == nil && (response == nil || strings.TrimSpace(response.Content) == "") {
		err = ErrEmptyReply
	}
	s.opts.Metrics.ObserveLLM(s.provider, err == nil, time.Since(start).Seconds())
	if err != nil {
		s.opts.logger().Error("reply chain failed", zap.String("provider", s.provider), zap.Error(err))
		return "", fmt.Errorf("ai: failed to run reply chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	s.opts.logger().Debug("generated reply", zap.String("provider", s.provider), zap.Int("length", len(reply)))
	return reply, nil
}
