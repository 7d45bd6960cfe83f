package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/auth"
	"github.com/campuscare/support-chat/backend/internal/validation"
	"github.com/campuscare/support-chat/backend/pkg/utils"
)

// RememberedEmailCookie holds the email of a user who ticked "remember me".
// It never carries the password.
const RememberedEmailCookie = "remembered_email"

const rememberFor = 30 * 24 * time.Hour

// Authenticator is the identity provider used by the handler.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignInWithIdp(ctx context.Context, cred auth.IdpCredential) (*auth.Session, error)
}

// Handler serves the sign-in and registration routes.
type Handler struct {
	client Authenticator
	logger *zap.Logger
}

// New creates an auth handler. A nil client disables provider calls but
// keeps validation and error translation available.
func New(client Authenticator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger}
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Get("/login/prefill", h.handlePrefill)
	r.Post("/register", h.handleRegister)
	r.Post("/federated", h.handleFederated)
	r.Get("/errors/*", h.handleTranslate)
}

type validationResponse struct {
	Error  string                      `json:"error"`
	Fields map[validation.Field]string `json:"fields"`
}

type noticeResponse struct {
	Error  string      `json:"error"`
	Notice auth.Notice `json:"notice"`
}

type sessionResponse struct {
	Session *auth.Session `json:"session"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload validation.LoginRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if fields := validation.CheckLogin(&payload); fields != nil {
		respondInvalid(w, fields)
		return
	}

	session, ok := h.signIn(r.Context(), w, func(ctx context.Context) (*auth.Session, error) {
		return h.client.SignInWithPassword(ctx, payload.Email, payload.Password)
	})
	if !ok {
		return
	}

	if payload.RememberMe {
		rememberEmail(w, r, payload.Email)
	} else {
		forgetEmail(w, r)
	}
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: session})
}

func (h *Handler) handlePrefill(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Email      string             `json:"email"`
		RememberMe bool               `json:"rememberMe"`
		Validation *validation.Result `json:"validation,omitempty"`
	}{}

	if email := rememberedEmail(r); email != "" {
		form := validation.NewLoginForm()
		form.Input(validation.FieldEmail, email)
		result := form.Result(validation.FieldEmail)
		resp.Email = email
		resp.RememberMe = true
		resp.Validation = &result
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload validation.RegisterRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if fields := validation.CheckRegister(&payload); fields != nil {
		respondInvalid(w, fields)
		return
	}

	session, ok := h.signIn(r.Context(), w, func(ctx context.Context) (*auth.Session, error) {
		return h.client.SignUp(ctx, payload.Email, payload.Password)
	})
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session})
}

func (h *Handler) handleFederated(w http.ResponseWriter, r *http.Request) {
	var cred auth.IdpCredential
	if err := utils.DecodeJSON(r, &cred); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, ok := h.signIn(r.Context(), w, func(ctx context.Context) (*auth.Session, error) {
		return h.client.SignInWithIdp(ctx, cred)
	})
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: session})
}

// handleTranslate maps a client-side provider code to its notice. Pop-up
// flows fail in the browser, so the front end asks here what to show.
func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	notice := auth.Translate(chi.URLParam(r, "*"))
	utils.RespondJSON(w, http.StatusOK, notice)
}

func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, call func(context.Context) (*auth.Session, error)) (*auth.Session, bool) {
	if h.client == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return nil, false
	}

	session, err := call(ctx)
	if err == nil {
		return session, true
	}

	var authErr *auth.Error
	switch {
	case errors.As(err, &authErr):
		notice := authErr.Notice()
		utils.RespondJSON(w, auth.StatusFor(authErr.Code), noticeResponse{Error: notice.Message, Notice: notice})
	case errors.Is(err, auth.ErrNotConfigured):
		utils.RespondError(w, http.StatusServiceUnavailable, "sign-in is not configured")
	default:
		h.logger.Error("sign-in failed", zap.Error(err))
		notice := auth.NoticeFor(auth.CodeUnknown)
		utils.RespondJSON(w, http.StatusBadGateway, noticeResponse{Error: notice.Message, Notice: notice})
	}
	return nil, false
}

func respondInvalid(w http.ResponseWriter, fields map[validation.Field]string) {
	utils.RespondJSON(w, http.StatusBadRequest, validationResponse{
		Error:  "Please correct the highlighted fields",
		Fields: fields,
	})
}

func rememberEmail(w http.ResponseWriter, r *http.Request, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberedEmailCookie,
		Value:    url.QueryEscape(email),
		Path:     "/",
		MaxAge:   int(rememberFor.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func forgetEmail(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberedEmailCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func rememberedEmail(r *http.Request) string {
	cookie, err := r.Cookie(RememberedEmailCookie)
	if err != nil {
		return ""
	}
	email, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(email)
}
