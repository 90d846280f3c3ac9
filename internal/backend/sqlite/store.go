// Package sqlite keeps backend rows as JSON documents in a local SQLite file.
// It is meant for development and single-host deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"summit/internal/backend"
	"summit/internal/jsonx"
)

// Store implements backend.Rows on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database at path and prepares the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, backend.ErrNotConfigured
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent admin actions.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates the row table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS backend_rows (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name TEXT NOT NULL,
    id TEXT NOT NULL,
    data TEXT NOT NULL,
    UNIQUE (table_name, id)
);`,
		`CREATE INDEX IF NOT EXISTS idx_backend_rows_table ON backend_rows (table_name, seq);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure backend_rows schema: %w", err)
		}
	}
	return nil
}

// Select returns the documents of table matching q.
func (s *Store) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if err := checkTable(backend.OpSelect, table); err != nil {
		return nil, err
	}

	var query strings.Builder
	query.WriteString(`SELECT data FROM backend_rows WHERE table_name = ?`)
	args := []any{table}

	for _, f := range q.Filters {
		if !backend.ValidColumn(f.Column) {
			return nil, &backend.Error{Op: backend.OpSelect, Target: table, Message: fmt.Sprintf("invalid column %q", f.Column)}
		}
		query.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, "$."+f.Column, sqlValue(f.Value))
	}

	if q.Order != nil {
		if !backend.ValidColumn(q.Order.Column) {
			return nil, &backend.Error{Op: backend.OpSelect, Target: table, Message: fmt.Sprintf("invalid column %q", q.Order.Column)}
		}
		direction := "ASC"
		if !q.Order.Ascending {
			direction = "DESC"
		}
		query.WriteString(` ORDER BY json_extract(data, ?) ` + direction + `, seq ` + direction)
		args = append(args, "$."+q.Order.Column)
	} else {
		query.WriteString(` ORDER BY seq ASC`)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, backend.Wrap(backend.OpSelect, table, err)
	}
	defer rows.Close()

	out := []backend.Row{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, backend.Wrap(backend.OpSelect, table, err)
		}
		var row backend.Row
		if err := jsonx.Unmarshal([]byte(raw), &row); err != nil {
			return nil, backend.Wrap(backend.OpSelect, table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, backend.Wrap(backend.OpSelect, table, err)
	}
	return out, nil
}

// Insert stores rows in one transaction.
func (s *Store) Insert(ctx context.Context, table string, rows ...backend.Row) error {
	if err := checkTable(backend.OpInsert, table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.Wrap(backend.OpInsert, table, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		prepared := backend.PrepareInsert(row, s.now())
		doc, err := jsonx.Marshal(prepared)
		if err != nil {
			return backend.Wrap(backend.OpInsert, table, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO backend_rows (table_name, id, data) VALUES (?, ?, ?)`,
			table, backend.RowID(prepared), string(doc)); err != nil {
			return backend.Wrap(backend.OpInsert, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return backend.Wrap(backend.OpInsert, table, err)
	}
	committed = true
	return nil
}

// Update merges patch into the stored document. The id column is immutable.
func (s *Store) Update(ctx context.Context, table string, patch backend.Row, id string) error {
	if err := checkTable(backend.OpUpdate, table); err != nil {
		return err
	}
	merged := make(backend.Row, len(patch))
	for k, v := range patch {
		if k == backend.ColumnID {
			continue
		}
		merged[k] = v
	}
	doc, err := jsonx.Marshal(merged)
	if err != nil {
		return backend.Wrap(backend.OpUpdate, table, err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE backend_rows SET data = json_patch(data, ?) WHERE table_name = ? AND id = ?`,
		string(doc), table, id)
	if err != nil {
		return backend.Wrap(backend.OpUpdate, table, err)
	}
	return nil
}

// Delete removes the document with id.
func (s *Store) Delete(ctx context.Context, table string, id string) error {
	if err := checkTable(backend.OpDelete, table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM backend_rows WHERE table_name = ? AND id = ?`, table, id); err != nil {
		return backend.Wrap(backend.OpDelete, table, err)
	}
	return nil
}

func checkTable(op, table string) error {
	if backend.KnownTable(table) {
		return nil
	}
	return &backend.Error{Op: op, Target: table, Message: fmt.Sprintf("relation \"public.%s\" does not exist", table)}
}

// sqlValue maps a filter value onto what json_extract yields for it.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case nil:
		return nil
	case string, int, int64, float64:
		return t
	default:
		return fmt.Sprint(t)
	}
}

var _ backend.Rows = (*Store)(nil)

// IsUniqueViolation reports whether err came from a duplicate row id.
func IsUniqueViolation(err error) bool {
	var backendErr *backend.Error
	if !errors.As(err, &backendErr) {
		return false
	}
	return strings.Contains(backendErr.Message, "UNIQUE constraint failed")
}
