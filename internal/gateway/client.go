// Package gateway wraps every outbound call to the LeadHunter backend and
// normalizes success and failure into a single Outcome.
package gateway

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

	"github.com/google/uuid"
	"github.com/wolfman30/leadhunter/internal/observability/metrics"
	"github.com/wolfman30/leadhunter/internal/session"
	"github.com/wolfman30/leadhunter/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultUserAgent = "leadhunter-cli/0.1"
	maxResponseBytes = 16 << 20
)

var tracer = otel.Tracer("leadhunter.internal.gateway")

// Endpoints of the backend API.
const (
	EndpointSearch  = "/api/search"
	EndpointHistory = "/api/history"
	EndpointProfile = "/api/profile"
	EndpointContact = "/api/contact"
)

// Request describes one backend call.
type Request struct {
	Endpoint     string
	Method       string
	Body         any
	AuthRequired bool
}

// Config controls how the gateway client behaves.
type Config struct {
	BaseURL string
	Tokens  session.TokenSource
	// Timeout of zero leaves requests unbounded; a hung call ends only when
	// the transport fails or the caller's context is cancelled.
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
	Logger     *logging.Logger
	Metrics    *metrics.ClientMetrics
}

// Caller is the subset of Client used by the view components.
type Caller interface {
	Call(ctx context.Context, req Request) Outcome
}

// Client calls the backend on behalf of the session.
type Client struct {
	baseURL    string
	tokens     session.TokenSource
	httpClient *http.Client
	userAgent  string
	logger     *logging.Logger
	metrics    *metrics.ClientMetrics
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base URL %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = session.StaticToken("")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    base,
		tokens:     tokens,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Call performs req and never returns an error or panics: every fault is
// folded into a *Failure. When AuthRequired is set the bearer token is
// attached if the session has one; making sure it does is the caller's job.
func (c *Client) Call(ctx context.Context, req Request) (out Outcome) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "leadhunter.gateway.call", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("leadhunter.endpoint", req.Endpoint),
		attribute.Bool("leadhunter.auth_required", req.AuthRequired),
	)

	defer func() {
		if r := recover(); r != nil {
			out = &Failure{Message: fmt.Sprintf("unexpected client error: %v", r)}
		}
		c.finish(span, req.Endpoint, method, out, time.Since(start))
	}()

	httpReq, err := c.buildRequest(ctx, method, req)
	if err != nil {
		return &Failure{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Failure{Message: fmt.Sprintf("request cancelled: %v", ctxErr)}
		}
		return &Failure{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Failure{Message: fmt.Sprintf("read response: %v", err), Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp.StatusCode, resp.Status, body)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Ok{Status: resp.StatusCode, Payload: json.RawMessage("null")}
	}
	if !json.Valid(trimmed) {
		return &Failure{
			Message: fmt.Sprintf("invalid response from server (%s)", statusLine(resp.StatusCode, resp.Status)),
			Status:  resp.StatusCode,
		}
	}
	return Ok{Status: resp.StatusCode, Payload: json.RawMessage(trimmed)}
}

func (c *Client) buildRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(req.Endpoint, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.AuthRequired {
		if token, ok := c.tokens.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) finish(span trace.Span, endpoint, method string, out Outcome, elapsed time.Duration) {
	defer span.End()

	switch v := out.(type) {
	case Ok:
		span.SetAttributes(attribute.Int("http.response.status_code", v.Status))
		c.metrics.ObserveRequest(endpoint, method, "ok", v.Status, elapsed.Seconds())
		c.logger.Debug("api call succeeded",
			"method", method,
			"endpoint", endpoint,
			"status", v.Status,
			"duration_ms", elapsed.Milliseconds(),
		)
	case *Failure:
		if v.Status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", v.Status))
		}
		span.SetStatus(codes.Error, v.Message)
		c.metrics.ObserveRequest(endpoint, method, "failure", v.Status, elapsed.Seconds())
		c.logger.Warn("api call failed",
			"method", method,
			"endpoint", endpoint,
			"status", v.Status,
			"error", v.Message,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

// decodeFailure turns a non-2xx response into a Failure. A JSON body with a
// detail field wins; anything else (HTML error pages, empty bodies, JSON
// without detail) falls back to "<status> <statusText>".
func decodeFailure(status int, statusHeader string, body []byte) *Failure {
	if msg := detailMessage(body); msg != "" {
		return &Failure{Message: msg, Status: status}
	}
	return &Failure{Message: statusLine(status, statusHeader), Status: status}
}

func detailMessage(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(parsed.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	// FastAPI validation errors: [{"loc": [...], "msg": "...", "type": "..."}]
	var items []json.RawMessage
	if err := json.Unmarshal(parsed.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var entry struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(item, &entry); err == nil && strings.TrimSpace(entry.Msg) != "" {
			msgs = append(msgs, strings.TrimSpace(entry.Msg))
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil && strings.TrimSpace(s) != "" {
			msgs = append(msgs, strings.TrimSpace(s))
		}
	}
	return strings.Join(msgs, "; ")
}

// statusLine prefers the reason phrase sent by the server and falls back to
// the standard text for the code.
func statusLine(status int, statusHeader string) string {
	code := strconv.Itoa(status)
	if strings.HasPrefix(statusHeader, code+" ") {
		return statusHeader
	}
	if text := http.StatusText(status); text != "" {
		return code + " " + text
	}
	return code
}
