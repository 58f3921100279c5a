package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"gatehouse/internal/auth/service"
	dErrors "gatehouse/pkg/domain-errors"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (*service.LoginResult, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

type AuthHandlerSuite struct {
	suite.Suite

	stub   *stubAuthService
	router chi.Router
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	s.stub = &stubAuthService{
		loginFn: func(context.Context, string, string) (*service.LoginResult, error) {
			return &service.LoginResult{AccessToken: "tok"}, nil
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.stub, logger).Register(s.router)
}

func (s *AuthHandlerSuite) postLogin(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *AuthHandlerSuite) TestLoginSuccess() {
	var gotEmail, gotPassword string
	s.stub.loginFn = func(_ context.Context, email, password string) (*service.LoginResult, error) {
		gotEmail, gotPassword = email, password
		return &service.LoginResult{AccessToken: "signed.jwt.here"}, nil
	}

	rec := s.postLogin(`{"email":"ada@example.com","password":"secret"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ada@example.com", gotEmail)
	s.Equal("secret", gotPassword)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("signed.jwt.here", body["access_token"])
}

func (s *AuthHandlerSuite) TestLoginValidation() {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"password":"secret"}`},
		{"not an email", `{"email":"not-an-email","password":"secret"}`},
		{"missing password", `{"email":"ada@example.com"}`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			called := false
			s.stub.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
				called = true
				return nil, nil
			}

			rec := s.postLogin(tc.body)

			s.Equal(http.StatusBadRequest, rec.Code)
			s.False(called, "service must not be reached on invalid input")
		})
	}
}

func (s *AuthHandlerSuite) TestLoginUnauthorized() {
	s.stub.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	rec := s.postLogin(`{"email":"ada@example.com","password":"wrong"}`)

	s.Equal(http.StatusUnauthorized, rec.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("invalid email or password", body["error_description"])
}

func (s *AuthHandlerSuite) TestLoginInternalErrorHidesDetail() {
	s.stub.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
		return nil, dErrors.New(dErrors.CodeInternal, "failed to issue token")
	}

	rec := s.postLogin(`{"email":"ada@example.com","password":"secret"}`)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "failed to issue token")
}
