// Package httpx is the shared JSON client under the remote gateways. It owns
// base-URL joining, auth headers, outbound rate limiting, and the mapping
// from transport/status failures into the pkg/errs taxonomy, so individual
// gateways deal only in typed requests and responses.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

// TokenSource supplies the current bearer token, or "" when the session is
// unauthenticated.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	limiter *rate.Limiter
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Token   TokenSource
	// Rate caps outbound requests per second. Zero disables limiting.
	Rate  float64
	Burst int
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   opts.Token,
		limiter: limiter,
	}
}

// StatusError preserves the remote status code and body so gateways can
// branch on specifics (e.g. a missing PATCH endpoint) after the generic
// category mapping.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d", e.Code)
}

// Do issues a JSON request against path (joined onto the base URL). A nil
// body sends no payload; a non-nil out receives the decoded response body.
// Errors are always tagged with a pkg/errs category.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errs.Wrap(err, errs.CategoryNetwork, "request cancelled")
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, errs.CategoryServer, "encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(err, errs.CategoryServer, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.CategoryNetwork, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(err, errs.CategoryNetwork, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errs.Wrap(err, errs.CategoryServer, "decode response")
		}
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func classify(code int, body []byte) error {
	st := &StatusError{Code: code, Body: body}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.Wrap(st, errs.CategoryAuthentication, "unauthorized")
	case code == http.StatusPaymentRequired:
		return errs.Wrap(st, errs.CategoryPayment, "payment required")
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		e := errs.Validation("request rejected", fieldErrors(body))
		e.Err = st
		return e
	case code == http.StatusTooManyRequests || code >= 500:
		return errs.Wrap(st, errs.CategoryServer, "server error")
	default:
		return errs.Wrap(st, errs.CategoryServer, fmt.Sprintf("unexpected status %d", code))
	}
}

// fieldErrors extracts field-level detail from a validation body. The
// backend emits either {"field": ["msg", ...]} or {"detail": "msg"}.
func fieldErrors(body []byte) map[string]string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}

	fields := make(map[string]string, len(m))
	for key, val := range m {
		switch v := val.(type) {
		case string:
			fields[key] = v
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					fields[key] = s
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
