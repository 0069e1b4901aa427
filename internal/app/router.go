package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/analytics"
	"github.com/gymtrack/gymtrack/internal/observability"
	"github.com/gymtrack/gymtrack/internal/workouts"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config           *Config
	AccountHandler   *account.Handler
	WorkoutsHandler  *workouts.Handler
	AnalyticsHandler *analytics.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with GymTrack defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	authLimit := 10
	authWindow := time.Minute
	if params.Config != nil {
		if params.Config.AuthRateLimit > 0 {
			authLimit = params.Config.AuthRateLimit
		}
		if params.Config.AuthRateLimitWindow > 0 {
			authWindow = params.Config.AuthRateLimitWindow
		}
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(authLimit, authWindow))
		params.AccountHandler.MountAuthRoutes(r)
	})
	r.Route("/users", params.AccountHandler.MountUserRoutes)
	r.Route("/workouts", params.WorkoutsHandler.MountRoutes)
	r.Route("/analytics", params.AnalyticsHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
