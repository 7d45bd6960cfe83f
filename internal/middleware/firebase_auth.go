package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/campuscare/support-chat/backend/pkg/utils"
)

type contextKey string

const firebaseClaimsKey contextKey = "firebaseClaims"

const (
	jwksTTL = time.Hour
	// Minimum gap between key set downloads triggered by unknown key ids.
	jwksRefreshCooldown = time.Minute
)

var (
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks.
	ErrInvalidToken = errors.New("auth: invalid id token")
)

// FirebaseClaims holds the claims of a Firebase Authentication ID token.
type FirebaseClaims struct {
	jwt.RegisteredClaims
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	UserID        string   `json:"user_id"`
	AuthTime      int64    `json:"auth_time"`
	Firebase      Firebase `json:"firebase"`
}

// Firebase is the provider block embedded in every ID token.
type Firebase struct {
	SignInProvider string `json:"sign_in_provider"`
}

// TokenVerifier validates Firebase ID tokens against the securetoken JWKS.
type TokenVerifier struct {
	projectID string
	issuer    string
	jwksURL   string
	client    *http.Client

	group singleflight.Group
	now   func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expires   time.Time
	attempted time.Time
}

// NewTokenVerifier returns a verifier for tokens issued to projectID.
func NewTokenVerifier(projectID, jwksURL string, client *http.Client) *TokenVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		jwksURL:   jwksURL,
		client:    client,
		now:       time.Now,
	}
}

// Verify parses tokenString and checks signature, issuer, audience, expiry and subject.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*FirebaseClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &FirebaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("missing key id in token")
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims, nil
}

func (v *TokenVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := v.now()
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := now.Before(v.expires)
	cooling := !v.attempted.IsZero() && now.Sub(v.attempted) < jwksRefreshCooldown
	v.mu.RUnlock()

	if ok && (fresh || cooling) {
		return key, nil
	}
	if cooling {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}

	// Concurrent misses share one download, detached from caller cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	_, err, _ := v.group.Do("jwks", func() (interface{}, error) {
		v.mu.Lock()
		if !v.attempted.IsZero() && v.now().Sub(v.attempted) < jwksRefreshCooldown {
			v.mu.Unlock()
			return nil, nil
		}
		v.attempted = v.now()
		v.mu.Unlock()

		keys, err := v.fetchJWKS(fetchCtx)
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.keys = keys
		v.expires = v.now().Add(jwksTTL)
		v.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *TokenVerifier) fetchJWKS(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWKS request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed with status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pubKey
	}

	if len(keys) == 0 {
		return nil, errors.New("no valid RSA keys found in JWKS")
	}
	return keys, nil
}

// parseRSAPublicKey parses RSA public key components from base64url-encoded strings.
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("empty exponent")
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}

// FirebaseAuth verifies the bearer ID token when one is sent. With required
// set, requests without a token are rejected; otherwise they pass through
// anonymously. A token that is present but invalid is always rejected.
func FirebaseAuth(verifier *TokenVerifier, required bool, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if required {
					utils.RespondError(w, http.StatusUnauthorized, "missing authorization header")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				utils.RespondError(w, http.StatusUnauthorized, "id token verification not configured")
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				logger.Info("rejected id token", zap.Error(err))
				utils.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// ClaimsFromContext retrieves verified Firebase claims from the request context.
func ClaimsFromContext(ctx context.Context) (*FirebaseClaims, bool) {
	claims, ok := ctx.Value(firebaseClaimsKey).(*FirebaseClaims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *FirebaseClaims) context.Context {
	return context.WithValue(ctx, firebaseClaimsKey, claims)
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// WebSocket handshakes, so upgrades may carry the token as ?token= instead.
func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}
