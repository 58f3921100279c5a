package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"gatehouse/internal/auth/service"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	request "gatehouse/pkg/platform/middleware/request"
)

// Service defines the interface for auth operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// Handler wires auth endpoints to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auth handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req loginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validateLoginRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Unauthorized is routine; anything else is worth a warning.
		if !dErrors.Is(err, dErrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "login failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func validateLoginRequest(req loginRequest) error {
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if req.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	return nil
}
