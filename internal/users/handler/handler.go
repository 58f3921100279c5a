package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"gatehouse/internal/users/models"
	"gatehouse/internal/users/service"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	request "gatehouse/pkg/platform/middleware/request"
)

// Service defines the interface for user operations.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler wires user endpoints to the users service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a users handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts user endpoints on the router. Reads require a valid bearer
// token; registration is open.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/users", h.HandleCreate)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/users/{id}", h.HandleGet)
	})
}

type createUserRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HandleCreate handles POST /users requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req createUserRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validateCreateUserRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Register(ctx, service.RegisterRequest{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user created",
		"request_id", requestID,
		"user_id", user.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleGet handles GET /users/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	user, svcErr := h.service.FindByID(ctx, id)
	if svcErr != nil {
		httputil.WriteError(w, svcErr)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func validateCreateUserRequest(req createUserRequest) error {
	if !govalidator.StringLength(req.Name, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid name")
	}
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	// bcrypt truncates beyond 72 bytes; reject rather than silently truncate
	if !govalidator.StringLength(req.Password, "1", "72") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid password")
	}
	if !govalidator.InRangeFloat64(req.Latitude, -90, 90) {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude out of range")
	}
	if !govalidator.InRangeFloat64(req.Longitude, -180, 180) {
		return dErrors.New(dErrors.CodeInvalidInput, "longitude out of range")
	}
	return nil
}
