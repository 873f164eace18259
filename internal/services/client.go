package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// RequestIDHeader carries the id shared by an attempt and its retry.
const RequestIDHeader = "X-Request-ID"

// AttemptState is a step of the single-retry state machine:
//
//	Idle -> Sent -> (Succeeded | RetryPending -> Resent -> (Succeeded | Failed))
type AttemptState int

const (
	StateIdle AttemptState = iota
	StateSent
	StateSucceeded
	StateRetryPending
	StateResent
	StateFailed
)

func (s AttemptState) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateSucceeded:
		return "succeeded"
	case StateRetryPending:
		return "retry-pending"
	case StateResent:
		return "resent"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SessionState is the part of session.Session the client drives.
type SessionState interface {
	SetAccessToken(token string)
	Invalidate(reason error) bool
}

// Request describes one logical API call. Body is raw bytes so it can be replayed on retry.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	RequireAuth bool
	// Resource names the resource family for error context, e.g. "movies".
	Resource string
}

// Response is a completed exchange. Only non-401 responses are ever returned.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Trace      []AttemptState
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the body parses as JSON.
func (r *Response) IsJSON() bool {
	return json.Valid(r.Body)
}

// Retried reports whether the request needed a token refresh.
func (r *Response) Retried() bool {
	for _, s := range r.Trace {
		if s == StateResent {
			return true
		}
	}
	return false
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     auth.TokenProvider
	Session    SessionState
	// RateLimit is the maximum requests per second; zero means unlimited.
	RateLimit float64
	Logger    *log.Logger
}

// Client sends requests to the admin API, attaching bearer tokens and retrying exactly once on 401 with a
// forcibly refreshed token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenProvider
	session    SessionState
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a [Client]. Tokens is required.
func NewClient(opts ClientOpts) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		session:    opts.Session,
		logger:     opts.Logger,
	}

	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return c
}

// Send executes req. Responses other than 401 are returned unchanged, whatever their status.
//
// On a first 401 the token is force-refreshed and the request resent once. A second 401, or a refresh that
// yields no token, invalidates the session and returns an [APIError] of kind [shared.ErrSessionExpired].
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	requestID := shared.GenerateID()
	trace := []AttemptState{StateIdle}

	fail := func(kind error, status int, message string, cause error) *APIError {
		trace = append(trace, StateFailed)
		return &APIError{
			Kind:      kind,
			Status:    status,
			Message:   message,
			Method:    req.Method,
			Path:      req.Path,
			Resource:  req.Resource,
			RequestID: requestID,
			Trace:     trace,
			Err:       cause,
		}
	}

	token, err := c.tokens.Token(ctx, false)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			c.logger.Warn("token lookup failed", "path", req.Path, "error", err)
		}
		token = ""
	}

	if token == "" && req.RequireAuth {
		return nil, fail(shared.ErrUnauthenticated, 0, "", err)
	}

	resp, err := c.attempt(ctx, req, token, requestID, 1)
	trace = append(trace, StateSent)
	if err != nil {
		return nil, fail(shared.ErrNetwork, 0, "", err)
	}

	if resp.StatusCode != http.StatusUnauthorized {
		trace = append(trace, StateSucceeded)
		resp.Trace = trace
		return resp, nil
	}

	first := &APIError{
		Kind:      shared.ErrUnauthorized,
		Status:    resp.StatusCode,
		Message:   serverMessage(resp.Body),
		Method:    req.Method,
		Path:      req.Path,
		Resource:  req.Resource,
		RequestID: requestID,
	}

	trace = append(trace, StateRetryPending)
	fresh, err := c.tokens.Token(ctx, true)
	if err != nil || fresh == "" {
		c.logger.Debug("token refresh after 401 failed", "path", req.Path, "request_id", requestID, "error", err)
		return nil, c.expire(fail(shared.ErrSessionExpired, first.Status, first.Message, errors.Join(first, err)))
	}

	resp, err = c.attempt(ctx, req, fresh, requestID, 2)
	trace = append(trace, StateResent)
	if err != nil {
		return nil, fail(shared.ErrNetwork, 0, "", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, c.expire(fail(shared.ErrSessionExpired, resp.StatusCode, serverMessage(resp.Body), first))
	}

	trace = append(trace, StateSucceeded)
	resp.Trace = trace
	return resp, nil
}

func (c *Client) expire(e *APIError) *APIError {
	if c.session != nil && c.session.Invalidate(shared.ErrSessionExpired) {
		c.logger.Warn("session expired", "path", e.Path, "request_id", e.RequestID)
	}
	return e
}

// attempt performs a single HTTP exchange.
func (c *Client) attempt(ctx context.Context, req *Request, token, requestID string, n int) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		if c.session != nil {
			c.session.SetAccessToken(token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.Path, "attempt", n, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("request", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "attempt", n, "request_id", requestID)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

// Do sends req and decodes a 2xx JSON body into out, which may be nil.
// Non-2xx responses become an [APIError] of kind [shared.ErrValidation] or [shared.ErrServer].
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return statusError(req, resp)
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &APIError{
			Kind:      shared.ErrDecode,
			Status:    resp.StatusCode,
			Method:    req.Method,
			Path:      req.Path,
			Resource:  req.Resource,
			RequestID: resp.RequestID,
			Trace:     resp.Trace,
			Err:       err,
		}
	}
	return nil
}

// JSONRequest builds a request with a JSON encoded body.
func JSONRequest(method, path, resource string, payload any) (*Request, error) {
	req := &Request{Method: method, Path: path, Resource: resource, RequireAuth: true}
	if payload == nil {
		return req, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}
