package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/middleware"
	chatservice "github.com/campuscare/support-chat/backend/internal/service/chat"
	"github.com/campuscare/support-chat/backend/pkg/utils"
)

const internalErrorMessage = "Internal server error"

var errUserMismatch = errors.New("userId does not match the signed-in user")

// Service is the pipeline the handler drives.
type Service interface {
	Handle(ctx context.Context, req chatservice.Request) (chatservice.Response, error)
}

// Handler exposes the chat pipeline over HTTP and WebSocket.
type Handler struct {
	svc      Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a chat handler.
func New(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/ws", h.handleWebSocket)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatservice.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.process(r.Context(), req)
	if err != nil {
		status, message := h.statusFor(err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// process enforces caller identity and runs the pipeline.
func (h *Handler) process(ctx context.Context, req chatservice.Request) (chatservice.Response, error) {
	if claims, ok := middleware.ClaimsFromContext(ctx); ok {
		if userID := strings.TrimSpace(req.UserID); userID != "" && userID != claims.Subject {
			return chatservice.Response{}, errUserMismatch
		}
	}
	return h.svc.Handle(ctx, req)
}

func (h *Handler) statusFor(err error) (int, string) {
	var validationErr *chatservice.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, errUserMismatch):
		return http.StatusForbidden, err.Error()
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		return http.StatusInternalServerError, internalErrorMessage
	}
}
