package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/logger"
	"github.com/wolfeidau/homebrief/internal/models"
	"github.com/wolfeidau/homebrief/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/homebrief/internal/client"

// maxErrorBody caps how much of an error response body is kept for messages.
const maxErrorBody = 512

var (
	// ErrPropertyNotFound is returned when the backend answers 404 for a property id.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvalidPropertyID is returned for an empty property id.
	ErrInvalidPropertyID = errors.New("invalid property id")
)

// StatusError is returned for a non-2xx response the client doesn't map to a sentinel.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Config holds common client configuration
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CacheDir   string
	MaxRetries uint
	Debug      bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://127.0.0.1:8000",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// LoginResult is the backend's answer to a login attempt.
type LoginResult struct {
	OK   bool         `json:"ok"`
	User *models.User `json:"user,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client calls the listing backend REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	maxRetries uint
	newBackOff func() backoff.BackOff
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithBackOff sets the retry schedule used for GET requests.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// New creates a client for the backend at config.BaseURL.
func New(config Config, opts ...Option) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", config.BaseURL)
	}
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/")

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: newCachingTransport(config.CacheDir, logger.NewHTTPRequests(requestLogger(config.Debug), nil)),
		},
		maxRetries: config.MaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// requestLogger logs every request in debug mode and only failed ones otherwise.
func requestLogger(debug bool) zerolog.Logger {
	if debug {
		return log.Logger
	}
	return log.Logger.Level(zerolog.WarnLevel)
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login checks the credentials with the backend.
// A rejected login is reported as LoginResult.OK == false, not as an error.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := c.tracer.Start(ctx, "client.Login")
	defer span.End()

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	var result LoginResult
	err = c.observe(ctx, "login", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("login request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Debug().Int("status", resp.StatusCode).Msg("login rejected")
			result = LoginResult{OK: false}
			return nil
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode login response: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("login.ok", result.OK))
	return &result, nil
}

// ListProperties returns every listing in backend order.
func (c *Client) ListProperties(ctx context.Context) ([]models.PropertySummary, error) {
	ctx, span := c.tracer.Start(ctx, "client.ListProperties")
	defer span.End()

	var properties []models.PropertySummary
	if err := c.getJSON(ctx, "list_properties", "/properties", &properties); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}

	if properties == nil {
		properties = []models.PropertySummary{}
	}
	span.SetAttributes(attribute.Int("properties.count", len(properties)))
	return properties, nil
}

// GetProperty returns one listing, or ErrPropertyNotFound.
func (c *Client) GetProperty(ctx context.Context, propertyID string) (*models.PropertySummary, error) {
	ctx, span := c.tracer.Start(ctx, "client.GetProperty", trace.WithAttributes(attribute.String("property.id", propertyID)))
	defer span.End()

	if propertyID == "" {
		return nil, ErrInvalidPropertyID
	}

	var property models.PropertySummary
	if err := c.getJSON(ctx, "get_property", "/properties/"+url.PathEscape(propertyID), &property); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to fetch property %s: %w", propertyID, propertyNotFound(err))
	}

	return &property, nil
}

// GetPropertyBrief returns the affordability and confidence brief for a listing, or ErrPropertyNotFound.
func (c *Client) GetPropertyBrief(ctx context.Context, propertyID string) (*models.PropertyBrief, error) {
	ctx, span := c.tracer.Start(ctx, "client.GetPropertyBrief", trace.WithAttributes(attribute.String("property.id", propertyID)))
	defer span.End()

	if propertyID == "" {
		return nil, ErrInvalidPropertyID
	}

	var brief models.PropertyBrief
	if err := c.getJSON(ctx, "get_property_brief", "/properties/"+url.PathEscape(propertyID)+"/brief", &brief); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to fetch property brief %s: %w", propertyID, propertyNotFound(err))
	}

	return &brief, nil
}

// Health checks the backend reports status ok.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "client.Health")
	defer span.End()

	var status struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "health", "/health", &status); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("health check failed: %w", err)
	}
	if status.Status != "ok" {
		err := fmt.Errorf("health check failed: status %q", status.Status)
		recordSpanError(span, err)
		return err
	}
	return nil
}

// getJSON issues a GET and decodes the JSON response into out.
// Transport errors, 429 and 5xx responses are retried; everything else is final.
func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	return c.observe(ctx, operation, func() error {
		attempt := func() (struct{}, error) {
			req, err := c.newRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return struct{}{}, backoff.Permanent(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return struct{}{}, err
			}
			defer resp.Body.Close()

			if err := checkStatus(req, resp); err != nil {
				return struct{}{}, err
			}

			if IsCached(resp) {
				log.Debug().Str("path", path).Msg("served from cache")
			}

			// Read to EOF so the cache layer stores the body
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return struct{}{}, err
			}
			if err := json.Unmarshal(data, out); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
			return struct{}{}, nil
		}

		_, err := backoff.Retry(ctx, attempt,
			backoff.WithBackOff(c.newBackOff()),
			backoff.WithMaxTries(c.maxRetries+1),
			backoff.WithNotify(func(err error, next time.Duration) {
				telemetry.GetMetrics().APIRetriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
				log.Debug().Err(err).Str("path", path).Dur("next", next).Msg("retrying request")
			}),
		)
		return err
	})
}

// checkStatus maps non-2xx responses onto errors, marking the ones not worth retrying as permanent.
func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			return backoff.RetryAfter(seconds)
		}
		return statusErr
	case resp.StatusCode >= 500:
		return statusErr
	default:
		return backoff.Permanent(statusErr)
	}
}

// propertyNotFound marks a 404 from a property endpoint with ErrPropertyNotFound.
func propertyNotFound(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrPropertyNotFound, err)
	}
	return err
}

// newRequest builds a request for path, which must already be escaped.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	return req, nil
}

// observe records request count, errors and duration for one logical call.
func (c *Client) observe(ctx context.Context, operation string, fn func() error) error {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	started := time.Now()

	err := fn()

	m.APIRequestsTotal.Add(ctx, 1, attrs)
	m.APIRequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	if err != nil {
		m.APIRequestErrorsTotal.Add(ctx, 1, attrs)
	}
	return err
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
