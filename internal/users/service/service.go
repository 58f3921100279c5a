package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"

	"gatehouse/internal/geocode"
	"gatehouse/internal/users/metrics"
	"gatehouse/internal/users/models"
	dErrors "gatehouse/pkg/domain-errors"
	audit "gatehouse/pkg/platform/audit"
	request "gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/platform/sentinel"
)

// eligibleCountry is the only resolved country accepted for registration.
const eligibleCountry = "United States"

// Client-visible messages. Everything else surfaces as a fixed internal
// error so infrastructure detail never leaks.
const (
	msgRegionGate   = "address must be within the United States"
	msgCreateFailed = "an error occurred while creating the user"
	msgLookupFailed = "failed to find user"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Geocoder resolves coordinates to a structured address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*geocode.Address, error)
}

// AuditPublisher records domain events; emission must never fail the request.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RegisterRequest carries validated registration input into the service.
type RegisterRequest struct {
	Name      string
	Email     string
	Password  string
	Latitude  float64
	Longitude float64
}

// Service orchestrates user registration and lookup. Storage, geocoding, and
// auditing are injected so the flow stays testable.
type Service struct {
	store    Store
	geocoder Geocoder
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, geocoder Geocoder, auditor AuditPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		geocoder: geocoder,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
	}
}

// Register creates a new user: resolve the claimed coordinates, apply the
// country gate, then hash the password and persist. The returned record has
// its password stripped. A single pass, no retries: the gate is a business
// rule, not a transient fault.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	requestID := request.GetRequestID(ctx)
	email := models.NormalizeEmail(req.Email)

	addr, err := s.geocoder.ReverseGeocode(ctx, req.Latitude, req.Longitude)
	if err != nil {
		s.logger.ErrorContext(ctx, "address resolution failed",
			"request_id", requestID,
			"error", err,
		)
		s.metrics.IncrementRegistrationsRejected("geocode")
		s.emit(ctx, audit.Event{
			Email:     email,
			Action:    string(audit.EventRegistrationRejected),
			Reason:    "address_resolution_failed",
			RequestID: requestID,
		})
		return nil, dErrors.New(dErrors.CodeInternal, msgCreateFailed)
	}

	if addr.Country != eligibleCountry {
		s.logger.InfoContext(ctx, "registration rejected by region gate",
			"request_id", requestID,
			"country", addr.Country,
		)
		s.metrics.IncrementRegistrationsRejected("region")
		s.emit(ctx, audit.Event{
			Email:     email,
			Action:    string(audit.EventRegistrationRejected),
			Reason:    "ineligible_region",
			RequestID: requestID,
		})
		return nil, dErrors.New(dErrors.CodeBadRequest, msgRegionGate)
	}

	user := &models.User{
		Name:  req.Name,
		Email: email,
		City:  addr.City,
		State: addr.State,
	}

	// Hash exactly once, immediately before the durable write.
	if err := user.SetPassword(req.Password); err != nil {
		s.logger.ErrorContext(ctx, "password hashing failed",
			"request_id", requestID,
			"error", err,
		)
		s.metrics.IncrementRegistrationsRejected("internal")
		return nil, dErrors.New(dErrors.CodeInternal, msgCreateFailed)
	}

	if err := s.store.Create(ctx, user); err != nil {
		reason := "internal"
		if errors.Is(err, sentinel.ErrConflict) {
			reason = "conflict"
		}
		s.logger.ErrorContext(ctx, "user creation failed",
			"request_id", requestID,
			"reason", reason,
			"error", err,
		)
		s.metrics.IncrementRegistrationsRejected(reason)
		s.emit(ctx, audit.Event{
			Email:     email,
			Action:    string(audit.EventRegistrationRejected),
			Reason:    reason,
			RequestID: requestID,
		})
		return nil, dErrors.New(dErrors.CodeInternal, msgCreateFailed)
	}

	s.metrics.IncrementUsersRegistered()
	s.emit(ctx, audit.Event{
		UserID:    user.ID,
		Email:     email,
		Action:    string(audit.EventUserCreated),
		RequestID: requestID,
	})
	s.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"user_id", user.ID,
		"city", user.City,
		"state", user.State,
	)

	return user.Sanitized(), nil
}

// FindByID returns a user with the password stripped. This is the read path
// for authenticated callers. An unknown id surfaces as the same generic
// lookup failure as a store fault; ids are not probeable.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "user lookup failed",
				"request_id", request.GetRequestID(ctx),
				"user_id", id,
				"error", err,
			)
		}
		return nil, dErrors.New(dErrors.CodeInternal, msgLookupFailed)
	}
	return user.Sanitized(), nil
}

// FindByEmail returns the full record including the password hash. It exists
// to feed credential comparison and must never cross a trust boundary.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "user lookup by email failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeInternal, msgLookupFailed)
	}
	return user, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	_ = s.auditor.Emit(ctx, event)
}
