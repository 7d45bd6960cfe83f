package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT",
		"OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_BASE_URL", "ARK_REGION",
		"STORE_BACKEND", "AWS_REGION", "DYNAMODB_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"DYNAMODB_CHATS_TABLE", "DYNAMODB_FLAGGED_TABLE",
		"FIREBASE_PROJECT_ID", "FIREBASE_API_KEY", "FIREBASE_IDENTITY_BASE_URL", "FIREBASE_JWKS_URL",
		"FIREBASE_REQUIRE_ID_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.7, *cfg.AI.Temperature, 1e-9)
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 500, *cfg.AI.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.False(t, cfg.AI.Enabled())

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "chats", cfg.Store.ChatsTable)
	assert.Equal(t, "flagged_messages", cfg.Store.FlaggedTable)

	assert.False(t, cfg.Auth.Enabled())
	assert.False(t, cfg.Auth.RequireToken)
}

func TestLoadServerAddrVariants(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("PORT", "80 80")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.edu, ,https://b.example.edu")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.Server.AllowedOrigins)
}

func TestLoadArkProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "ARK")
	t.Setenv("LLM_MODEL", "ep-123")
	t.Setenv("ARK_ACCESS_KEY", "ak")
	t.Setenv("ARK_SECRET_KEY", "sk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, "cn-beijing", cfg.AI.Region)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadOpenAIEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"provider":    {"LLM_PROVIDER", "claude"},
		"temperature": {"LLM_TEMPERATURE", "warm"},
		"max tokens":  {"LLM_MAX_TOKENS", "lots"},
		"timeout":     {"LLM_TIMEOUT", "-1s"},
		"backend":     {"STORE_BACKEND", "postgres"},
		"require id":  {"FIREBASE_REQUIRE_ID_TOKEN", "maybe"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequireTokenNeedsProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_REQUIRE_ID_TOKEN", "true")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("FIREBASE_PROJECT_ID", "campus-care")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.RequireToken)
	assert.Equal(t, "campus-care", cfg.Auth.ProjectID)
}

func TestLoadDynamoStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "dynamodb")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("DYNAMODB_CHATS_TABLE", "support_chats")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.Store.Backend)
	assert.Equal(t, "http://localhost:8000", cfg.Store.Endpoint)
	assert.Equal(t, "support_chats", cfg.Store.ChatsTable)
	assert.Equal(t, "flagged_messages", cfg.Store.FlaggedTable)
}
