package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	authhandler "gatehouse/internal/auth/handler"
	authmetrics "gatehouse/internal/auth/metrics"
	authservice "gatehouse/internal/auth/service"
	"gatehouse/internal/geocode"
	"gatehouse/internal/jwttoken"
	usershandler "gatehouse/internal/users/handler"
	usersmetrics "gatehouse/internal/users/metrics"
	usersservice "gatehouse/internal/users/service"
	usersstore "gatehouse/internal/users/store"
	"gatehouse/pkg/platform/audit/publisher"
	auditmem "gatehouse/pkg/platform/audit/store/memory"
)

// RouterSuite runs the registration and login flow end to end against the
// assembled router, with only the geocoding upstream faked.
type RouterSuite struct {
	suite.Suite

	upstream *httptest.Server
	country  string
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.country = "United States"
	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{
			"status": "OK",
			"results": [{
				"address_components": [
					{"long_name": "Brooklyn", "types": ["locality", "political"]},
					{"long_name": "New York", "types": ["administrative_area_level_1", "political"]},
					{"long_name": %q, "types": ["country", "political"]}
				]
			}]
		}`, s.country)
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := usersstore.NewInMemory()
	resolver := geocode.NewClient("test-key", s.upstream.URL)
	auditor := publisher.NewPublisher(auditmem.NewInMemoryStore())
	tokens := jwttoken.NewJWTService("router-test-key", "gatehouse", time.Hour)

	usersSvc := usersservice.NewService(store, resolver, auditor, logger, usersmetrics.NewWith(prometheus.NewRegistry()))
	authSvc := authservice.NewService(usersSvc, tokens, auditor, logger, authmetrics.NewWith(prometheus.NewRegistry()))

	s.router = New(
		authhandler.New(authSvc, logger),
		usershandler.New(usersSvc, logger),
		tokens,
		logger,
	)
}

func (s *RouterSuite) TearDownTest() {
	s.upstream.Close()
}

func (s *RouterSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestRegisterLoginFetchFlow() {
	// register
	rec := s.do(http.MethodPost, "/users", "",
		`{"name":"Ada","email":"ada@example.com","password":"secret","latitude":40.6782,"longitude":-73.9442}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID    int64  `json:"id"`
		City  string `json:"city"`
		State string `json:"state"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal("Brooklyn", created.City)
	s.Equal("New York", created.State)

	// login
	rec = s.do(http.MethodPost, "/auth/login", "",
		`{"email":"ada@example.com","password":"secret"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &login))
	s.Require().NotEmpty(login.AccessToken)

	// fetch with the minted token
	rec = s.do(http.MethodGet, fmt.Sprintf("/users/%d", created.ID), login.AccessToken, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), "ada@example.com")
	s.NotContains(rec.Body.String(), "secret")

	// fetch without a token is rejected
	rec = s.do(http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestRegisterOutsideEligibleRegion() {
	s.country = "Canada"

	rec := s.do(http.MethodPost, "/users", "",
		`{"name":"Ada","email":"ada@example.com","password":"secret","latitude":43.6532,"longitude":-79.3832}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "United States")

	// nothing persisted: login must fail
	rec = s.do(http.MethodPost, "/auth/login", "",
		`{"email":"ada@example.com","password":"secret"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestHealthAndMetricsEndpoints() {
	rec := s.do(http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ok")

	rec = s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

type staticHealth struct {
	err error
}

func (c staticHealth) Health(context.Context) error { return c.err }

func (s *RouterSuite) TestHealthReflectsDependencyState() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.NewJWTService("router-test-key", "gatehouse", time.Hour)
	store := usersstore.NewInMemory()
	resolver := geocode.NewClient("test-key", s.upstream.URL)
	auditor := publisher.NewPublisher(auditmem.NewInMemoryStore())
	usersSvc := usersservice.NewService(store, resolver, auditor, logger, usersmetrics.NewWith(prometheus.NewRegistry()))
	authSvc := authservice.NewService(usersSvc, tokens, auditor, logger, authmetrics.NewWith(prometheus.NewRegistry()))

	newRouter := func(checks ...HealthChecker) http.Handler {
		return New(
			authhandler.New(authSvc, logger),
			usershandler.New(usersSvc, logger),
			tokens,
			logger,
			checks...,
		)
	}

	s.Run("healthy dependency", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		newRouter(staticHealth{}).ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("failing dependency flips to unavailable", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		newRouter(staticHealth{err: errors.New("connection refused")}).ServeHTTP(rec, req)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Contains(rec.Body.String(), "unavailable")
	})
}

func (s *RouterSuite) TestTokenFromAnotherKeyIsRejected() {
	rec := s.do(http.MethodPost, "/users", "",
		`{"name":"Ada","email":"ada@example.com","password":"secret","latitude":40.6782,"longitude":-73.9442}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	foreign := jwttoken.NewJWTService("some-other-key", "gatehouse", time.Hour)
	token, err := foreign.GenerateAccessToken(1)
	s.Require().NoError(err)

	rec = s.do(http.MethodGet, "/users/1", token, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}
