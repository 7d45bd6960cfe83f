// Package chat runs the message intake pipeline: safety screening, reply
// generation, emotion tagging and persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/analysis/emotion"
	"github.com/campuscare/support-chat/backend/internal/analysis/safety"
	"github.com/campuscare/support-chat/backend/internal/model/chat"
	"github.com/campuscare/support-chat/backend/internal/observability/metrics"
	"github.com/campuscare/support-chat/backend/internal/service/ai"
	"github.com/campuscare/support-chat/backend/internal/store"
)

// CrisisReply is returned instead of a generated reply when the safety filter trips.
const CrisisReply = "I'm really sorry you're feeling this way. Please consider reaching out to a trusted person or a professional counselor immediately."

// Adapter operations reported by AdapterError.
const (
	OpGenerate       = "generate"
	OpPersistChat    = "persist_chat"
	OpPersistFlagged = "persist_flagged"
)

// ValidationError reports a malformed request. No adapter has been called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AdapterError reports a failure of the language model or the store.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("chat: %s failed: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Request is the inbound chat payload.
type Request struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Response is returned to the caller for both the normal and the crisis path.
type Response struct {
	Reply     string        `json:"reply"`
	Emotion   emotion.Label `json:"emotion"`
	Timestamp time.Time     `json:"timestamp"`
}

// Service wires the pipeline stages together.
type Service struct {
	generator ai.Generator
	store     store.Store
	metrics   *metrics.ChatMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewService builds the pipeline. A nil generator is allowed: crisis messages
// are still handled and every other message fails with ai.ErrUnavailable.
func NewService(generator ai.Generator, st store.Store, m *metrics.ChatMetrics, logger *zap.Logger) *Service {
	if st == nil {
		panic("chat: store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		store:     st,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes one message. On success exactly one record has been
// written: a flagged record for crisis messages, a chat record otherwise.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validate(req); err != nil {
		s.metrics.ObserveRequest(metrics.OutcomeInvalid)
		return Response{}, err
	}

	resp, err := s.handle(ctx, req)
	if err != nil {
		var adapterErr *AdapterError
		if errors.As(err, &adapterErr) {
			s.logger.Error("chat pipeline failed",
				zap.String("op", adapterErr.Op),
				zap.String("user_id", req.UserID),
				zap.Error(adapterErr.Err),
			)
		}
		s.metrics.ObserveRequest(metrics.OutcomeFailed)
		return Response{}, err
	}
	return resp, nil
}

func (s *Service) handle(ctx context.Context, req Request) (Response, error) {
	if verdict := safety.Check(req.Message); verdict.Flagged {
		return s.handleFlagged(ctx, req, verdict)
	}

	if s.generator == nil {
		return Response{}, &AdapterError{Op: OpGenerate, Err: ai.ErrUnavailable}
	}

	reply, err := s.generator.GenerateReply(ctx, req.Message)
	if err != nil {
		return Response{}, &AdapterError{Op: OpGenerate, Err: err}
	}

	label := emotion.Detect(req.Message)
	record := chat.Message{
		UserID:    req.UserID,
		Message:   req.Message,
		Reply:     reply,
		Emotion:   label,
		Timestamp: s.now(),
	}
	if err := s.store.WriteChat(ctx, record); err != nil {
		return Response{}, &AdapterError{Op: OpPersistChat, Err: err}
	}

	s.metrics.ObserveRequest(metrics.OutcomeReplied)
	s.metrics.ObserveEmotion(string(label))
	return Response{Reply: reply, Emotion: label, Timestamp: record.Timestamp}, nil
}

func (s *Service) handleFlagged(ctx context.Context, req Request, verdict safety.Verdict) (Response, error) {
	record := chat.FlaggedMessage{
		UserID:    req.UserID,
		Message:   req.Message,
		Timestamp: s.now(),
		Reason:    safety.Reason,
	}
	if err := s.store.WriteFlagged(ctx, record); err != nil {
		return Response{}, &AdapterError{Op: OpPersistFlagged, Err: err}
	}

	s.logger.Warn("message flagged for review",
		zap.String("user_id", req.UserID),
		zap.String("keyword", verdict.Keyword),
	)
	s.metrics.ObserveRequest(metrics.OutcomeFlagged)
	return Response{Reply: CrisisReply, Emotion: emotion.Neutral, Timestamp: record.Timestamp}, nil
}

const requiredFieldsMessage = "userId and message are required"

func validate(req Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "userId", Message: requiredFieldsMessage}
	}
	if strings.TrimSpace(req.Message) == "" {
		return &ValidationError{Field: "message", Message: requiredFieldsMessage}
	}
	return nil
}
