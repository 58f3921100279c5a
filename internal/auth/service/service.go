package service

import (
	"context"
	"errors"
	"log/slog"

	"gatehouse/internal/auth/metrics"
	"gatehouse/internal/users/models"
	dErrors "gatehouse/pkg/domain-errors"
	audit "gatehouse/pkg/platform/audit"
	request "gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/platform/sentinel"
)

// UserFinder supplies full credential records for comparison. Backed by the
// users service; never exposed over HTTP.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID int64) (string, error)
}

// AuditPublisher records auth events; emission must never fail the request.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LoginResult wraps the issued bearer token.
type LoginResult struct {
	AccessToken string `json:"access_token"`
}

// Service validates credentials and issues tokens. Stateless: no session
// table, no login bookkeeping beyond metrics and audit.
type Service struct {
	users   UserFinder
	tokens  TokenIssuer
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(users UserFinder, tokens TokenIssuer, auditor AuditPublisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// ValidateCredentials returns the matching record for a valid email/password
// pair. Unknown email and wrong password are deliberately indistinguishable:
// both fail with the same unauthorized error. The returned record still
// carries its password hash; callers must sanitize before exposure.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "credential lookup failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "failed to find user")
	}

	if user == nil || !user.ComparePassword(password) {
		s.metrics.LoginsFailed.Inc()
		_ = s.auditor.Emit(ctx, audit.Event{
			Email:     models.NormalizeEmail(email),
			Action:    string(audit.EventAuthFailed),
			Reason:    "invalid_credentials",
			RequestID: request.GetRequestID(ctx),
		})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	return user, nil
}

// Login authenticates and mints a bearer token carrying the user's id.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "token issuance failed",
			"request_id", request.GetRequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.LoginsSucceeded.Inc()
	_ = s.auditor.Emit(ctx, audit.Event{
		UserID:    user.ID,
		Email:     user.Email,
		Action:    string(audit.EventLoginSucceeded),
		RequestID: request.GetRequestID(ctx),
	})

	return &LoginResult{AccessToken: token}, nil
}
