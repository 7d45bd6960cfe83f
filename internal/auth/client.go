package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
)

// ProviderPassword names email/password sign-in in Error.Provider.
const ProviderPassword = "password"

// ErrNotConfigured is returned when no Firebase API key is set.
var ErrNotConfigured = errors.New("auth: identity provider not configured")

// Session is a signed-in Firebase user.
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName,omitempty"`
	ProviderID   string `json:"providerId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	IsNewUser    bool   `json:"isNewUser"`
}

// IdpCredential is the provider credential produced by a client-side pop-up.
type IdpCredential struct {
	ProviderID  string `json:"providerId"`
	IDToken     string `json:"idToken"`
	AccessToken string `json:"accessToken"`
	RequestURI  string `json:"requestUri"`
}

// Client calls the Firebase Identity Toolkit REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client. A nil httpClient gets a 15s timeout.
func NewClient(cfg config.AuthConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.IdentityBaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type identityResponse struct {
	LocalID          string `json:"localId"`
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	ProviderID       string `json:"providerId"`
	IDToken          string `json:"idToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	Registered       bool   `json:"registered"`
	IsNewUser        bool   `json:"isNewUser"`
	NeedConfirmation bool   `json:"needConfirmation"`
	ErrorMessage     string `json:"errorMessage"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword signs in an existing email/password account.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]interface{}{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}
	return c.call(ctx, "accounts:signInWithPassword", ProviderPassword, body)
}

// SignUp creates an email/password account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]interface{}{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}
	session, err := c.call(ctx, "accounts:signUp", ProviderPassword, body)
	if err != nil {
		return nil, err
	}
	session.IsNewUser = true
	return session, nil
}

// SignInWithIdp exchanges a federated provider credential for a Firebase session.
func (c *Client) SignInWithIdp(ctx context.Context, cred IdpCredential) (*Session, error) {
	if cred.ProviderID == "" || (cred.IDToken == "" && cred.AccessToken == "") {
		return nil, &Error{Code: CodeInvalidCredential, Provider: cred.ProviderID, Err: errors.New("provider id and a token are required")}
	}

	post := url.Values{}
	post.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		post.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		post.Set("access_token", cred.AccessToken)
	}

	requestURI := cred.RequestURI
	if requestURI == "" {
		requestURI = "http://localhost"
	}

	body := map[string]interface{}{
		"postBody":            post.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	return c.call(ctx, "accounts:signInWithIdp", cred.ProviderID, body)
}

func (c *Client) call(ctx context.Context, method, provider string, payload interface{}) (*Session, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("auth: marshal %s request failed: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("auth: build %s request failed: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("identity request failed", zap.String("method", method), zap.Error(err))
		return nil, &Error{Code: CodeNetwork, Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: CodeNetwork, Provider: provider, Err: err}
	}

	if resp.StatusCode >= 300 {
		var parsed errorResponse
		if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Error.Message == "" {
			return nil, &Error{Code: CodeUnknown, Provider: provider, Err: fmt.Errorf("identity response status %d", resp.StatusCode)}
		}
		code := ParseCode(parsed.Error.Message)
		c.logger.Info("identity provider rejected request",
			zap.String("method", method),
			zap.String("provider_code", parsed.Error.Message),
			zap.String("code", string(code)),
		)
		return nil, &Error{Code: code, Provider: provider, Err: errors.New(parsed.Error.Message)}
	}

	var parsed identityResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Code: CodeUnknown, Provider: provider, Err: fmt.Errorf("parse identity response failed: %w", err)}
	}
	if parsed.NeedConfirmation {
		return nil, &Error{Code: CodeAccountExists, Provider: provider}
	}
	if parsed.ErrorMessage != "" {
		return nil, &Error{Code: ParseCode(parsed.ErrorMessage), Provider: provider, Err: errors.New(parsed.ErrorMessage)}
	}

	providerID := parsed.ProviderID
	if providerID == "" {
		providerID = provider
	}
	return &Session{
		UserID:       parsed.LocalID,
		Email:        parsed.Email,
		DisplayName:  parsed.DisplayName,
		ProviderID:   providerID,
		IDToken:      parsed.IDToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    parsed.ExpiresIn,
		IsNewUser:    parsed.IsNewUser,
	}, nil
}
