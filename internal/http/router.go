// Package httpapi assembles the HTTP surface: domain handlers, platform
// middleware, health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "gatehouse/internal/auth/handler"
	"gatehouse/internal/jwttoken"
	usershandler "gatehouse/internal/users/handler"
	"gatehouse/pkg/platform/httputil"
	authmw "gatehouse/pkg/platform/middleware/auth"
	request "gatehouse/pkg/platform/middleware/request"
)

// tokenValidator adapts the JWT service to the auth middleware contract so the
// middleware package stays free of token implementation details.
type tokenValidator struct {
	tokens *jwttoken.JWTService
}

func (v tokenValidator) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: claims.UserID, JTI: claims.ID}, nil
}

// HealthChecker reports liveness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// New wires all public endpoints onto a single router. Any supplied health
// checkers gate the /healthz response.
func New(
	authHandler *authhandler.Handler,
	usersHandler *usershandler.Handler,
	tokens *jwttoken.JWTService,
	logger *slog.Logger,
	checks ...HealthChecker,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.RequestID)

	r.Get("/healthz", handleHealth(logger, checks))
	r.Handle("/metrics", promhttp.Handler())

	authHandler.Register(r)
	usersHandler.Register(r, authmw.RequireAuth(tokenValidator{tokens: tokens}, logger))

	return r
}

func handleHealth(logger *slog.Logger, checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
