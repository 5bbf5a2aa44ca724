// Package api is the single outbound path to the bookstore REST API. Every
// request carries the current session token, and any authentication failure
// is routed to one handler no matter which endpoint produced it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bookbuddy/storefront/pkg/config"
	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/bookbuddy/storefront/pkg/metrics"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/google/uuid"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"

	maxResponseBytes = 10 << 20
)

var errBaseURLRequired = errors.New("api base url is required")

// TokenSource supplies the raw session token, empty for guests.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is invoked once for every 401 response.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client issues requests against the bookstore API. It performs no retries,
// caching or coalescing.
type Client struct {
	baseURL        *url.URL
	prefix         string
	userAgent      string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	metrics        *metrics.ClientMetrics
	logg           *logger.Logger
}

func NewClient(cfg config.APIConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errBaseURLRequired
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}
	if logg == nil {
		logg = logger.Nop()
	}

	c := &Client{
		baseURL:   base,
		prefix:    "/" + strings.Trim(cfg.PathPrefix, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logg:      logg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// endpoint names a call for logs and metrics, independent of path parameters.
type endpoint struct {
	name   string
	method string
	path   string
}

// url joins already escaped path segments onto the base and prefix.
func (c *Client) url(p string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + path.Join(c.prefix, p)
}

// send performs one request. Non-2xx responses become coded errors; a 401
// additionally runs the unauthorized handler before returning.
func (c *Client) send(ctx context.Context, ep endpoint, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, c.url(ep.path), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(HeaderAuthorization, token)
		}
	}

	ctx = c.logg.WithRequestID(c.logg.WithEndpoint(ctx, ep.name), requestID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(ep.name, 0, time.Since(start))
		c.logg.Error(ctx, "api.transport_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bookstore api unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(ep.name, resp.StatusCode, elapsed)
	ctx = c.logg.WithCall(ctx, ep.method, resp.StatusCode, elapsed)
	if err != nil {
		c.logg.Error(ctx, "api.read_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading api response")
	}
	if len(raw) > maxResponseBytes {
		tooLarge := pkgerrors.New(pkgerrors.CodeDependency, "api response too large").
			WithDetails(map[string]any{"limit_bytes": maxResponseBytes})
		c.logg.Error(ctx, "api.response_too_large", tooLarge)
		return nil, tooLarge
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logg.Warn(ctx, "api.unauthorized")
		c.metrics.IncAuthFailure()
		if c.onUnauthorized != nil {
			c.onUnauthorized.HandleUnauthorized(ctx)
		}
		return nil, pkgerrors.FromHTTPStatus(resp.StatusCode, errorMessage(raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := pkgerrors.FromHTTPStatus(resp.StatusCode, errorMessage(raw))
		c.logg.Error(ctx, "api.request_failed", apiErr)
		return nil, apiErr
	}

	c.logg.Debug(ctx, "api.request")
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}, nil
}

// do sends payload and decodes a JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, ep endpoint, payload, out any) error {
	resp, err := c.send(ctx, ep, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding %s response", ep.name))
	}
	return nil
}

func errorMessage(body []byte) string {
	var envelope types.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

func segment(v string) string {
	return url.PathEscape(strings.TrimSpace(v))
}
