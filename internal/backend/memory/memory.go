// Package memory is an in-process backend used by tests and the "memory"
// driver. It mimics the hosted backend's observable behaviour: ids and
// creation timestamps are assigned on insert, updates merge, and unknown
// tables or buckets fail with the backend's wording.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"summit/internal/backend"
	"summit/internal/jsonx"
)

type entry struct {
	seq int64
	row backend.Row
}

type blob struct {
	data        []byte
	contentType string
}

// Client is a concurrency-safe in-memory backend.Client.
type Client struct {
	mu       sync.Mutex
	tables   map[string][]*entry
	blobs    map[string]blob
	failures map[string]error
	seq      int64
	baseURL  string
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the address public object URLs are built from.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns an empty backend.
func New(opts ...Option) *Client {
	c := &Client{
		tables:   make(map[string][]*entry),
		blobs:    make(map[string]blob),
		failures: make(map[string]error),
		baseURL:  "http://localhost:8080",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FailWith makes every op on target fail with err until cleared with a nil err.
func (c *Client) FailWith(op, target string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := op + ":" + target
	if err == nil {
		delete(c.failures, key)
		return
	}
	c.failures[key] = err
}

func (c *Client) failure(op, target string) error {
	if err, ok := c.failures[op+":"+target]; ok {
		return &backend.Error{Op: op, Target: target, Message: err.Error(), Err: err}
	}
	return nil
}

func unknownTable(op, table string) error {
	return &backend.Error{Op: op, Target: table, Status: 404, Message: fmt.Sprintf("relation \"public.%s\" does not exist", table)}
}

// Select returns copies of the rows matching q.
func (c *Client) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Wrap(backend.OpSelect, table, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure(backend.OpSelect, table); err != nil {
		return nil, err
	}
	if !backend.KnownTable(table) {
		return nil, unknownTable(backend.OpSelect, table)
	}

	filters := make([]backend.Filter, 0, len(q.Filters))
	for _, f := range q.Filters {
		normalized, err := normalizeValue(f.Value)
		if err != nil {
			return nil, backend.Wrap(backend.OpSelect, table, err)
		}
		filters = append(filters, backend.Filter{Column: f.Column, Value: normalized})
	}

	matched := make([]*entry, 0, len(c.tables[table]))
	for _, e := range c.tables[table] {
		if matches(e.row, filters) {
			matched = append(matched, e)
		}
	}
	if q.Order != nil {
		order := *q.Order
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i].row[order.Column], matched[j].row[order.Column])
			if cmp == 0 {
				cmp = compareSeq(matched[i].seq, matched[j].seq)
			}
			if order.Ascending {
				return cmp < 0
			}
			return cmp > 0
		})
	}

	out := make([]backend.Row, 0, len(matched))
	for _, e := range matched {
		out = append(out, copyRow(e.row))
	}
	return out, nil
}

// Insert stores rows, assigning id and created_at when missing.
func (c *Client) Insert(ctx context.Context, table string, rows ...backend.Row) error {
	if err := ctx.Err(); err != nil {
		return backend.Wrap(backend.OpInsert, table, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure(backend.OpInsert, table); err != nil {
		return err
	}
	if !backend.KnownTable(table) {
		return unknownTable(backend.OpInsert, table)
	}

	prepared := make([]*entry, 0, len(rows))
	for _, row := range rows {
		normalized, err := backend.Normalize(backend.PrepareInsert(row, c.now()))
		if err != nil {
			return backend.Wrap(backend.OpInsert, table, err)
		}
		id := backend.RowID(normalized)
		for _, existing := range c.tables[table] {
			if backend.RowID(existing.row) == id {
				return &backend.Error{Op: backend.OpInsert, Target: table, Status: 409,
					Message: fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", table)}
			}
		}
		c.seq++
		prepared = append(prepared, &entry{seq: c.seq, row: normalized})
	}
	c.tables[table] = append(c.tables[table], prepared...)
	return nil
}

// Update merges patch into the row with id. Unknown ids are a no-op.
func (c *Client) Update(ctx context.Context, table string, patch backend.Row, id string) error {
	if err := ctx.Err(); err != nil {
		return backend.Wrap(backend.OpUpdate, table, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure(backend.OpUpdate, table); err != nil {
		return err
	}
	if !backend.KnownTable(table) {
		return unknownTable(backend.OpUpdate, table)
	}
	normalized, err := backend.Normalize(patch)
	if err != nil {
		return backend.Wrap(backend.OpUpdate, table, err)
	}
	for _, e := range c.tables[table] {
		if backend.RowID(e.row) != id {
			continue
		}
		for k, v := range normalized {
			e.row[k] = v
		}
	}
	return nil
}

// Delete removes the row with id. Unknown ids are a no-op.
func (c *Client) Delete(ctx context.Context, table string, id string) error {
	if err := ctx.Err(); err != nil {
		return backend.Wrap(backend.OpDelete, table, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure(backend.OpDelete, table); err != nil {
		return err
	}
	if !backend.KnownTable(table) {
		return unknownTable(backend.OpDelete, table)
	}
	kept := c.tables[table][:0]
	for _, e := range c.tables[table] {
		if backend.RowID(e.row) != id {
			kept = append(kept, e)
		}
	}
	c.tables[table] = kept
	return nil
}

// Upload stores body under bucket/key. Existing keys are rejected.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	if body == nil {
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 400, Message: "empty upload body"}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure(backend.OpUpload, bucket); err != nil {
		return err
	}
	if !backend.KnownBucket(bucket) {
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 404, Message: "Bucket not found"}
	}
	path := bucket + "/" + key
	if _, exists := c.blobs[path]; exists {
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 409, Message: "The resource already exists"}
	}
	c.blobs[path] = blob{data: data, contentType: contentType}
	return nil
}

// PublicURL builds the unauthenticated address of bucket/key.
func (c *Client) PublicURL(bucket, key string) string {
	return backend.PublicObjectURL(c.baseURL, bucket, key)
}

// Object returns a stored blob for assertions.
func (c *Client) Object(bucket, key string) ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blobs[bucket+"/"+key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(b.data), b.contentType, true
}

// Count returns the number of rows held for table.
func (c *Client) Count(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables[table])
}

func matches(row backend.Row, filters []backend.Filter) bool {
	for _, f := range filters {
		if !valuesEqual(row[f.Column], f.Value) {
			return false
		}
	}
	return true
}

func normalizeValue(v any) (any, error) {
	raw, err := jsonx.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := jsonx.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func valuesEqual(a, b any) bool {
	if text, ok := a.(string); ok && isNumber(b) {
		return text == backend.FormatID(b)
	}
	if text, ok := b.(string); ok && isNumber(a) {
		return text == backend.FormatID(a)
	}
	rawA, errA := jsonx.Marshal(a)
	rawB, errB := jsonx.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(rawA, rawB)
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func compareSeq(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func copyRow(row backend.Row) backend.Row {
	out := make(backend.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// isNumber matches the numeric shapes a filter can be compared against, so
// "eq.1234567" finds a numeric id as it would over the row API.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}
