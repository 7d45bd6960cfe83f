package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/auth"
	"github.com/campuscare/support-chat/backend/internal/config"
	"github.com/campuscare/support-chat/backend/internal/handler"
	authhandler "github.com/campuscare/support-chat/backend/internal/handler/auth"
	"github.com/campuscare/support-chat/backend/internal/middleware"
	"github.com/campuscare/support-chat/backend/internal/observability/metrics"
	"github.com/campuscare/support-chat/backend/internal/service/ai"
	"github.com/campuscare/support-chat/backend/internal/service/chat"
	"github.com/campuscare/support-chat/backend/internal/store"
	"github.com/campuscare/support-chat/backend/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Fatal("failed to load configuration", zap.Error(err))
	}

	logger := logging.New(cfg.Log.Level)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	st, err := store.New(ctx, cfg.Store, logger.Named("store"))
	if err != nil {
		logger.Warn("document store unavailable, falling back to in-memory store", zap.Error(err))
		st = store.NewMemoryStore()
	}
	if _, ok := st.(*store.MemoryStore); ok {
		logger.Warn("records are kept in memory only and are lost on restart")
	}

	generator, err := ai.New(ctx, cfg.AI, ai.Options{Metrics: chatMetrics, Logger: logger.Named("ai")})
	if err != nil {
		logger.Warn("language model unavailable, only crisis replies will succeed",
			zap.String("provider", cfg.AI.Provider),
			zap.Error(err),
		)
	} else {
		logger.Info("language model initialized", zap.String("provider", cfg.AI.Provider), zap.String("model", cfg.AI.Model))
	}

	chatService := chat.NewService(generator, st, chatMetrics, logger.Named("chat"))

	var authClient authhandler.Authenticator
	if cfg.Auth.Enabled() {
		authClient = auth.NewClient(cfg.Auth, nil, logger.Named("auth"))
	} else {
		logger.Info("FIREBASE_API_KEY not set, sign-in routes will return 503")
	}

	var verifier *middleware.TokenVerifier
	if cfg.Auth.ProjectID != "" {
		verifier = middleware.NewTokenVerifier(cfg.Auth.ProjectID, cfg.Auth.JWKSURL, nil)
	}

	router := handler.NewRouter(handler.Deps{
		Chat:           chatService,
		Auth:           authClient,
		Verifier:       verifier,
		RequireToken:   cfg.Auth.RequireToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("support chat backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
