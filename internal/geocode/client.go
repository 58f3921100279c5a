// Package geocode resolves coordinate pairs into structured postal addresses
// via the Google Maps Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("gatehouse/internal/geocode")

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "gatehouse_geocode_lookup_duration_ms",
	Help:    "Latency of reverse-geocoding lookups in milliseconds",
	Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
})

// Address is the resolved location for a coordinate pair. It is transient:
// used once during registration and discarded.
type Address struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Error is a failed address resolution. Reason is human-readable and stays
// server-side; callers surface a generic failure to clients.
type Error struct {
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return "geocode: " + e.Reason + ": " + e.cause.Error()
	}
	return "geocode: " + e.Reason
}

func (e *Error) Unwrap() error { return e.cause }

// Resolver is the lookup contract the registration flow depends on. Client
// and CachedResolver both satisfy it.
type Resolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error)
}

// statusOK is the upstream envelope's success marker.
const statusOK = "OK"

// cityComponentTiers is the locality fallback order, most specific first.
// The ordering is part of the contract and must not be rearranged.
var cityComponentTiers = []string{
	"locality",
	"sublocality_level_1",
	"sublocality",
	"administrative_area_level_3",
}

const (
	stateComponent   = "administrative_area_level_1"
	countryComponent = "country"
)

// Upstream response envelope. Only the fields we read are declared; the API
// returns much more.
type envelope struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

type result struct {
	AddressComponents []addressComponent `json:"address_components"`
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

// Client calls the geocoding upstream directly, no cache, no retries. Retry
// policy, if any, belongs to the caller's transport, not here.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a geocoding client. baseURL points at the API's JSON
// endpoint and is overridable for tests and proxies.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ReverseGeocode resolves lat/lng to a city, state, and country. Any network,
// decode, or upstream failure surfaces as *Error; the caller decides how much
// of that to expose.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	ctx, span := tracer.Start(ctx, "geocode.ReverseGeocode")
	span.SetAttributes(
		attribute.Float64("geocode.lat", lat),
		attribute.Float64("geocode.lng", lng),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	query := url.Values{}
	query.Set("latlng", formatCoord(lat)+","+formatCoord(lng))
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &Error{Reason: "build request", cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Reason: "upstream request failed", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Reason: fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Reason: "decode upstream response", cause: err}
	}

	return parseEnvelope(env)
}

func parseEnvelope(env envelope) (*Address, error) {
	if env.Status != statusOK {
		return nil, &Error{Reason: fmt.Sprintf("upstream status %q", env.Status)}
	}
	if len(env.Results) == 0 {
		return nil, &Error{Reason: "empty result set"}
	}

	components := env.Results[0].AddressComponents

	var city string
	for _, tier := range cityComponentTiers {
		if city = findComponent(components, tier); city != "" {
			break
		}
	}
	state := findComponent(components, stateComponent)
	country := findComponent(components, countryComponent)

	if city == "" || state == "" || country == "" {
		return nil, &Error{Reason: "incomplete address data in upstream response"}
	}

	return &Address{City: city, State: state, Country: country}, nil
}

func findComponent(components []addressComponent, typ string) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == typ {
				return c.LongName
			}
		}
	}
	return ""
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
