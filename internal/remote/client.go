// Package remote implements domain.Records over a REST table API: one
// collection per entity table, equality and inclusion filters on foreign keys,
// and creates that ask the server to echo the stored row. The backend enforces
// no uniqueness, so every create re-reads the tables and runs the same
// validation as the local store before writing. That check is not atomic; two
// clients creating the same number at once can both succeed.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldbook/internal/logging"
	"fieldbook/internal/records"
)

const (
	defaultTimeout = 15 * time.Second
	restPrefix     = "/rest/v1/"
)

// Config locates the backend.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method  string
	Table   string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("remote: %s %s: %d %s", e.Method, e.Table, e.Status, msg)
}

// Client talks to the table API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logging.Logger
	env     records.Env
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, for example with one from
// httptest.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNoop(l) }
}

// WithClock sets the clock used for created and changed timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.env.Now = now
		}
	}
}

// WithIDGenerator sets the id source for created rows.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.env.NewID = fn
		}
	}
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("remote: base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: timeout},
		logger:  logging.Noop{},
		env:     records.DefaultEnv(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// filters is an ordered list of column filters.
type filters []filterClause

type filterClause struct {
	column string
	expr   string
}

func eq(column, value string) filterClause {
	return filterClause{column: column, expr: "eq." + value}
}

func inList(column string, values []string) filterClause {
	return filterClause{column: column, expr: "in.(" + strings.Join(values, ",") + ")"}
}

func (f filters) values(order string) url.Values {
	q := url.Values{}
	for _, c := range f {
		q.Add(c.column, c.expr)
	}
	if order != "" {
		q.Set("order", order)
	}
	return q
}

func (c *Client) endpoint(table string, q url.Values) string {
	u := c.baseURL + restPrefix + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do sends one request and decodes a JSON answer into out when out is not
// nil.
func (c *Client) do(ctx context.Context, method, table string, q url.Values, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode %s: %w", table, err)
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(table, q), payload)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, table, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if out != nil && method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote: request failed", "method", method, "table", table, "error", err)
		return fmt.Errorf("remote: %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: %s %s: read body: %w", method, table, err)
	}
	c.logger.Debug("remote: request", "method", method, "table", table, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Table: table, Status: resp.StatusCode}
		var detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &detail) == nil {
			apiErr.Code, apiErr.Message = detail.Code, detail.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("remote: decode %s: %w", table, err)
	}
	return nil
}

func selectRows[T any](ctx context.Context, c *Client, table string, f filters, order string) ([]T, error) {
	var rows []T
	if err := c.do(ctx, http.MethodGet, table, f.values(order), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// insertRow creates one row and returns the row the server stored.
func insertRow[T any](ctx context.Context, c *Client, table string, row T) (T, error) {
	var echoed []T
	if err := c.do(ctx, http.MethodPost, table, nil, row, &echoed); err != nil {
		var zero T
		return zero, err
	}
	if len(echoed) == 0 {
		var zero T
		return zero, fmt.Errorf("remote: POST %s: server returned no row", table)
	}
	return echoed[0], nil
}

func (c *Client) patchRows(ctx context.Context, table string, f filters, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, table, f.values(""), fields, nil)
}

func (c *Client) deleteRows(ctx context.Context, table string, f filters) error {
	return c.do(ctx, http.MethodDelete, table, f.values(""), nil, nil)
}
