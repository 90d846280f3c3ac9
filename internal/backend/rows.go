package backend

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"summit/internal/jsonx"
)

// TimestampLayout is fixed-width so lexical and chronological order agree.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTimestamp renders t in UTC with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewRowID returns a fresh row id.
func NewRowID() string {
	return uuid.NewString()
}

// PrepareInsert copies row and fills id and created_at when absent.
func PrepareInsert(row Row, now time.Time) Row {
	prepared := make(Row, len(row)+2)
	for k, v := range row {
		prepared[k] = v
	}
	if id, ok := prepared[ColumnID]; !ok || isBlank(id) {
		prepared[ColumnID] = NewRowID()
	}
	if created, ok := prepared[ColumnCreatedAt]; !ok || isBlank(created) {
		prepared[ColumnCreatedAt] = FormatTimestamp(now)
	}
	return prepared
}

// RowID returns the id column of row as a string.
func RowID(row Row) string {
	return FormatID(row[ColumnID])
}

// FormatID renders an id value the way it appears in a URL filter. Numbers
// are written in plain decimal, never in exponent form.
func FormatID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case jsonx.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Decode converts rows into typed records through their JSON representation.
func Decode[T any](rows []Row) ([]T, error) {
	if len(rows) == 0 {
		return []T{}, nil
	}
	raw, err := jsonx.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	var out []T
	if err := jsonx.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return out, nil
}

// Normalize round-trips row through JSON so values have the shapes a remote
// backend would return (numbers as float64, nested maps as map[string]any).
func Normalize(row Row) (Row, error) {
	raw, err := jsonx.Marshal(row)
	if err != nil {
		return nil, err
	}
	var out Row
	if err := jsonx.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidColumn reports whether name is safe to splice into a query path.
func ValidColumn(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
