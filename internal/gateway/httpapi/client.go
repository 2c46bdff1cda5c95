// Package httpapi implements the gateway interfaces over the services' REST APIs.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Option customises a service client.
type Option func(*restClient)

// WithHTTPClient replaces the underlying *http.Client. A nil client keeps the
// default one.
func WithHTTPClient(c *http.Client) Option {
	return func(r *restClient) {
		if c != nil {
			r.http = c
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(r *restClient) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// restClient performs JSON calls against one service base URL.
type restClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func newRESTClient(baseURL string, opts ...Option) restClient {
	r := restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.timeout > 0 && r.http.Timeout != r.timeout {
		c := *r.http
		c.Timeout = r.timeout
		r.http = &c
	}
	return r
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil). Non-2xx answers become *gateway.ServiceError; everything
// that prevents a readable answer becomes *gateway.TransportError.
func (r restClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logger.FromContext(ctx)
	start := time.Now()

	resp, err := r.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Str("url", endpoint).Msg("Service unreachable")
		return &gateway.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &gateway.ServiceError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &gateway.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorDetail pulls the human message out of a service error body. The
// services answer {"status","error","message","path"}; plain text is kept as is.
func errorDetail(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, s := range []string{body.Message, body.Detail, body.Error} {
			if s != "" {
				return s
			}
		}
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func idPath(id int64, suffix ...string) string {
	return fmt.Sprintf("/%d", id) + strings.Join(suffix, "")
}
