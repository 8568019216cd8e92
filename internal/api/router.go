package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/driveagent/driveagent/internal/api/handlers"
	"github.com/driveagent/driveagent/internal/api/middleware"
	"github.com/driveagent/driveagent/internal/config"
	"github.com/driveagent/driveagent/internal/vectorstore"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router: health/version plus the single
// POST /agent/task operation named in spec §4.7.
func NewRouter(cfg *config.Config, h *handlers.Handlers, vectorRegistry *vectorstore.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)

	corsOrigins := parseCORSOrigins()
	isWildcard := len(corsOrigins) == 1 && corsOrigins[0] == "*"
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !isWildcard,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(vectorRegistry))
	r.Get("/version", versionHandler)

	r.Route("/agent", func(r chi.Router) {
		r.Post("/task", h.ExecuteTask)
	})

	return r
}

// parseCORSOrigins reads allowed CORS origins from the environment.
// Default: wildcard (open access, no credentials).
func parseCORSOrigins() []string {
	originsEnv := os.Getenv("DRIVEAGENT_CORS_ORIGINS")
	if originsEnv == "" {
		return []string{"*"}
	}

	var origins []string
	for _, o := range strings.Split(originsEnv, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// healthHandler reports process liveness plus a per-driver vector store
// health check (spec §4.1's GetStats used as a readiness probe).
func healthHandler(vectorRegistry *vectorstore.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := vectorRegistry.HealthCheckAll(r.Context())
		status := "healthy"
		stores := make(map[string]string, len(checks))
		for name, err := range checks {
			if err != nil {
				status = "degraded"
				stores[name] = err.Error()
			} else {
				stores[name] = "ok"
			}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       status,
			"service":      "driveagent",
			"vectorStores": stores,
		})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"service": "driveagent",
	})
}
