// Package rest talks to the hosted backend over HTTP: rows through the
// PostgREST-style /rest/v1 API and blobs through the /storage/v1 object API.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"summit/internal/backend"
	summiterrors "summit/internal/errors"
	"summit/internal/httpclient"
	"summit/internal/jsonx"
	"summit/internal/logging"
)

const (
	defaultTimeout          = 15 * time.Second
	defaultMaxResponseBytes = 8 << 20
)

// Config describes how to reach the hosted backend.
type Config struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxResponseBytes int64
}

// Client implements backend.Client against the hosted service.
type Client struct {
	baseURL          string
	apiKey           string
	http             *http.Client
	maxResponseBytes int64
	logger           logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// New builds a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("rest backend: %w: base url is empty", backend.ErrNotConfigured)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("rest backend: invalid base url %q: %w", base, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}

	c := &Client{
		baseURL:          base,
		apiKey:           cfg.APIKey,
		maxResponseBytes: maxBytes,
		logger:           logging.NewComponentLogger("RestBackend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.New(timeout, c.logger)
	} else {
		copied := *c.http
		c.http = &copied
	}
	c.http.Transport = httpclient.WrapTransportWithRateLimit(c.http.Transport, cfg.RateLimitRPS, cfg.RateLimitBurst)
	return c, nil
}

// Select issues GET /rest/v1/{table}.
func (c *Client) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	params := url.Values{}
	params.Set("select", "*")
	for _, f := range q.Filters {
		if !backend.ValidColumn(f.Column) {
			return nil, &backend.Error{Op: backend.OpSelect, Target: table, Message: fmt.Sprintf("invalid filter column %q", f.Column)}
		}
		params.Add(f.Column, "eq."+formatValue(f.Value))
	}
	if q.Order != nil {
		if !backend.ValidColumn(q.Order.Column) {
			return nil, &backend.Error{Op: backend.OpSelect, Target: table, Message: fmt.Sprintf("invalid order column %q", q.Order.Column)}
		}
		direction := "desc"
		if q.Order.Ascending {
			direction = "asc"
		}
		params.Set("order", q.Order.Column+"."+direction)
	}

	body, err := c.do(ctx, backend.OpSelect, table, http.MethodGet, c.tableURL(table, params), nil, nil)
	if err != nil {
		return nil, err
	}
	var rows []backend.Row
	if err := jsonx.Unmarshal(body, &rows); err != nil {
		return nil, &backend.Error{Op: backend.OpSelect, Target: table, Message: fmt.Sprintf("decode rows: %v", err), Err: err}
	}
	if rows == nil {
		rows = []backend.Row{}
	}
	return rows, nil
}

// Insert issues POST /rest/v1/{table} with a JSON array.
func (c *Client) Insert(ctx context.Context, table string, rows ...backend.Row) error {
	if len(rows) == 0 {
		return nil
	}
	payload, err := jsonx.Marshal(rows)
	if err != nil {
		return backend.Wrap(backend.OpInsert, table, err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Prefer", "return=minimal")
	_, err = c.do(ctx, backend.OpInsert, table, http.MethodPost, c.tableURL(table, nil), bytes.NewReader(payload), headers)
	return err
}

// Update issues PATCH /rest/v1/{table}?id=eq.{id}.
func (c *Client) Update(ctx context.Context, table string, patch backend.Row, id string) error {
	payload, err := jsonx.Marshal(patch)
	if err != nil {
		return backend.Wrap(backend.OpUpdate, table, err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Prefer", "return=minimal")
	_, err = c.do(ctx, backend.OpUpdate, table, http.MethodPatch, c.tableURL(table, idFilter(id)), bytes.NewReader(payload), headers)
	return err
}

// Delete issues DELETE /rest/v1/{table}?id=eq.{id}.
func (c *Client) Delete(ctx context.Context, table string, id string) error {
	_, err := c.do(ctx, backend.OpDelete, table, http.MethodDelete, c.tableURL(table, idFilter(id)), nil, nil)
	return err
}

// Upload issues POST /storage/v1/object/{bucket}/{key}.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if body == nil {
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Message: "empty upload body"}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	headers.Set("x-upsert", "false")
	_, err := c.do(ctx, backend.OpUpload, bucket, http.MethodPost, c.objectURL(bucket, key), body, headers)
	return err
}

// PublicURL returns the public object address. No request is made.
func (c *Client) PublicURL(bucket, key string) string {
	return backend.PublicObjectURL(c.baseURL, bucket, key)
}

func (c *Client) tableURL(table string, params url.Values) string {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) objectURL(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return c.baseURL + "/storage/v1/object/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, op, target, method, endpoint string, body io.Reader, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, backend.Wrap(op, target, err)
	}
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &backend.Error{Op: op, Target: target, Message: err.Error(), Err: summiterrors.Unavailable(err)}
	}
	defer resp.Body.Close()

	data, err := httpclient.ReadAllWithLimit(resp.Body, c.maxResponseBytes)
	if err != nil {
		return nil, &backend.Error{Op: op, Target: target, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorMessage(data, resp.StatusCode)
		return nil, &backend.Error{
			Op:      op,
			Target:  target,
			Status:  resp.StatusCode,
			Message: message,
			Err:     summiterrors.FromHTTPStatus(resp.StatusCode, message, nil),
		}
	}
	return data, nil
}

type errorBody struct {
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func errorMessage(data []byte, status int) string {
	var body errorBody
	if err := jsonx.Unmarshal(data, &body); err == nil {
		for _, candidate := range []string{body.Message, body.ErrorDescription, body.Msg, body.Error} {
			if strings.TrimSpace(candidate) != "" {
				return candidate
			}
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 512 {
		return text
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

func idFilter(id string) url.Values {
	return url.Values{backend.ColumnID: []string{"eq." + id}}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return backend.FormatTimestamp(value)
	default:
		return backend.FormatID(value)
	}
}
