package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second
	// maxNetworkRetries caps transparent retries of transport-level failures.
	maxNetworkRetries = 3
	// retryInitialInterval seeds the exponential backoff between retries.
	retryInitialInterval = 1 * time.Second
)

// RequestOptions configures a single logical call. The zero value is valid.
type RequestOptions struct {
	// Query parameters appended to the URL. Unset keys are simply absent.
	Query url.Values
	// Headers merged into the request after the defaults.
	Headers http.Header
	// Timeout overrides DefaultTimeout for each attempt of this call.
	Timeout time.Duration
	// SkipAuth suppresses the Authorization header and the 401 refresh path.
	SkipAuth bool
	// NoRetry disables transparent network retries. Probes and other
	// point-in-time checks want the first answer, not an eventual one.
	NoRetry bool
}

// Client is the ShotPay backend API client. It attaches the current access
// token to every request, renews it once per concurrent wave of 401s via a
// single-flight refresh, and retries transport-level failures with
// exponential backoff. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenStore
	logger     *slog.Logger

	maxNetworkRetries int
	retryInterval     time.Duration
	defaultTimeout    time.Duration

	refreshGroup singleflight.Group
}

// NewClient creates a client for the given base URL. The token store may be
// shared with other clients; the cookie jar carries ambient session
// credentials in case the backend keeps the refresh token server-side.
func NewClient(baseURL string, tokens *TokenStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = NewTokenStore(nil, logger)
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:           baseURL,
		tokens:            tokens,
		logger:            logger,
		maxNetworkRetries: maxNetworkRetries,
		retryInterval:     retryInitialInterval,
		defaultTimeout:    DefaultTimeout,
		httpClient: &http.Client{
			// Per-attempt deadlines come from the request context, not a
			// client-wide timeout.
			Jar: jar,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Tokens returns the client's token store.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// SetTimeout replaces the per-attempt default timeout. RequestOptions.Timeout
// still overrides it per call.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.defaultTimeout = d
	}
}

// Get issues a GET request and unmarshals the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts *RequestOptions) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, out, opts)
	return err
}

// GetWithMeta is Get for paginated endpoints; it also returns the envelope
// meta block.
func (c *Client) GetWithMeta(ctx context.Context, path string, out any, opts *RequestOptions) (*Meta, error) {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts *RequestOptions) error {
	_, err := c.do(ctx, http.MethodPost, path, body, out, opts)
	return err
}

// Put issues a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts *RequestOptions) error {
	_, err := c.do(ctx, http.MethodPut, path, body, out, opts)
	return err
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts *RequestOptions) error {
	_, err := c.do(ctx, http.MethodPatch, path, body, out, opts)
	return err
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts *RequestOptions) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, out, opts)
	return err
}

// do runs one logical call as a bounded loop over single attempts.
//
// The two retry budgets are independent and never compound: at most one
// refresh-and-retry cycle per call (a second 401 after a successful refresh
// is surfaced as SESSION_EXPIRED), and at most maxNetworkRetries retries of
// transport-level failures. Timeouts take neither path.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts *RequestOptions) (*Meta, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	var bo *backoff.ExponentialBackOff
	networkRetries := 0
	authRetried := false

	for {
		meta, err := c.execute(ctx, method, path, body, out, opts)
		if err == nil {
			return meta, nil
		}

		var apiErr *Error
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusUnauthorized && !opts.SkipAuth {
				if authRetried {
					// The refresh looked successful but the backend still
					// rejects the call. Stop, do not loop.
					return nil, sessionExpiredError()
				}
				newToken, refreshErr := c.refreshAccessToken(ctx)
				if refreshErr != nil || newToken == "" {
					return nil, sessionExpiredError()
				}
				authRetried = true
				continue
			}
			// TIMEOUT and every parsed 4xx/5xx surface immediately.
			return nil, apiErr
		}

		var urlErr *url.Error
		if errors.As(err, &urlErr) && !opts.NoRetry && networkRetries < c.maxNetworkRetries {
			if bo == nil {
				bo = newRetryBackoff(c.retryInterval)
			}
			wait := bo.NextBackOff()
			c.logger.Warn("transient network failure, retrying",
				"method", method,
				"path", path,
				"attempt", networkRetries+1,
				"backoff", wait,
				"error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			networkRetries++
			continue
		}

		return nil, err
	}
}

// execute performs exactly one network attempt.
func (c *Client) execute(ctx context.Context, method, path string, body, out any, opts *RequestOptions) (*Meta, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL, err := c.buildRequestURL(path, opts.Query)
	if err != nil {
		return nil, &Error{Message: err.Error(), Code: CodeUnknown, Status: http.StatusInternalServerError}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("encode request body: %v", err), Code: CodeUnknown, Status: http.StatusInternalServerError}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, reqURL, reader)
	if err != nil {
		return nil, &Error{Message: err.Error(), Code: CodeUnknown, Status: http.StatusInternalServerError}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, values := range opts.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if !opts.SkipAuth {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The caller's context, not the attempt deadline.
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, timeoutError()
		}
		// Transport-level failure (connection refused, DNS, reset);
		// retryable by the caller.
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, timeoutError()
		}
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseErrorResponse(resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil || !env.Success {
		return nil, &Error{Message: "malformed response envelope", Code: CodeUnknown, Status: resp.StatusCode}
	}
	if out != nil {
		if len(env.Data) == 0 {
			return nil, &Error{Message: "response envelope has no data", Code: CodeUnknown, Status: resp.StatusCode}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &Error{Message: fmt.Sprintf("decode response data: %v", err), Code: CodeUnknown, Status: resp.StatusCode}
		}
	}
	return env.Meta, nil
}

// buildRequestURL concatenates the base URL with the endpoint path and
// applies query parameters.
func (c *Client) buildRequestURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", c.baseURL+path, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Set(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// parseErrorResponse maps a non-2xx body to a typed error. Server-declared
// codes pass through verbatim; an unparseable body falls back to the HTTP
// status text.
func parseErrorResponse(status int, body []byte) *Error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		msg := env.Error.Message
		if msg == "" {
			msg = "unknown error"
		}
		code := env.Error.Code
		if code == "" {
			code = CodeUnknown
		}
		return &Error{
			Message:   msg,
			Code:      code,
			Status:    status,
			Details:   env.Error.Details,
			RequestID: env.Error.RequestID,
		}
	}
	return &Error{
		Message: http.StatusText(status),
		Code:    CodeRequestFailed,
		Status:  status,
	}
}

// newRetryBackoff creates the exponential backoff policy for network retries.
func newRetryBackoff(initial time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.Multiplier = 2
	return bo
}
