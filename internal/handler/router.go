package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	authhandler "github.com/campuscare/support-chat/backend/internal/handler/auth"
	chathandler "github.com/campuscare/support-chat/backend/internal/handler/chat"
	"github.com/campuscare/support-chat/backend/internal/middleware"
	"github.com/campuscare/support-chat/backend/pkg/utils"
)

// Deps are the services the router exposes.
type Deps struct {
	Chat           chathandler.Service
	Auth           authhandler.Authenticator
	Verifier       *middleware.TokenVerifier
	RequireToken   bool
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			authhandler.New(deps.Auth, logger.Named("auth")).RegisterRoutes(ar)
		})

		api.Group(func(cr chi.Router) {
			if deps.Verifier != nil || deps.RequireToken {
				cr.Use(middleware.FirebaseAuth(deps.Verifier, deps.RequireToken, logger.Named("token")))
			}
			chathandler.New(deps.Chat, logger.Named("chat")).RegisterRoutes(cr)
		})
	})

	return r
}
