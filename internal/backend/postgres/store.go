// Package postgres keeps backend rows as JSONB documents in a single Postgres
// table so the site can run against a self-hosted database instead of the
// hosted service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"summit/internal/backend"
	"summit/internal/jsonx"
)

// pool abstracts the subset of pgxpool.Pool used by the store for easier testing.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store implements backend.Rows on Postgres.
type Store struct {
	pool pool
	now  func() time.Time
}

// New builds a Store backed by the provided connection pool.
func New(pool pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("postgres store requires pool")
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// EnsureSchema creates the row table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS backend_rows (
    seq BIGSERIAL PRIMARY KEY,
    table_name TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL,
    UNIQUE (table_name, id)
);`,
		`CREATE INDEX IF NOT EXISTS idx_backend_rows_table ON backend_rows (table_name, seq);`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
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

	var sql strings.Builder
	sql.WriteString(`SELECT data FROM backend_rows WHERE table_name = $1`)
	args := []any{table}

	if len(q.Filters) > 0 {
		containment := make(backend.Row, len(q.Filters))
		for _, f := range q.Filters {
			containment[f.Column] = f.Value
		}
		doc, err := jsonx.Marshal(containment)
		if err != nil {
			return nil, backend.Wrap(backend.OpSelect, table, err)
		}
		args = append(args, string(doc))
		sql.WriteString(` AND data @> $` + strconv.Itoa(len(args)) + `::jsonb`)
	}

	direction := "ASC"
	if q.Order != nil {
		if !q.Order.Ascending {
			direction = "DESC"
		}
		args = append(args, q.Order.Column)
		sql.WriteString(` ORDER BY data->>$` + strconv.Itoa(len(args)) + ` ` + direction + `, seq ` + direction)
	} else {
		sql.WriteString(` ORDER BY seq ASC`)
	}

	rows, err := s.pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, translate(backend.OpSelect, table, err)
	}
	defer rows.Close()

	out := []backend.Row{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, translate(backend.OpSelect, table, err)
		}
		var row backend.Row
		if err := jsonx.Unmarshal(raw, &row); err != nil {
			return nil, backend.Wrap(backend.OpSelect, table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(backend.OpSelect, table, err)
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

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return translate(backend.OpInsert, table, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, row := range rows {
		prepared := backend.PrepareInsert(row, s.now())
		doc, err := jsonx.Marshal(prepared)
		if err != nil {
			return backend.Wrap(backend.OpInsert, table, err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO backend_rows (table_name, id, data) VALUES ($1, $2, $3::jsonb)`,
			table, backend.RowID(prepared), string(doc))
		if err != nil {
			return translate(backend.OpInsert, table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(backend.OpInsert, table, err)
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
	_, err = s.pool.Exec(ctx, `UPDATE backend_rows SET data = data || $3::jsonb WHERE table_name = $1 AND id = $2`,
		table, id, string(doc))
	return translate(backend.OpUpdate, table, err)
}

// Delete removes the document with id.
func (s *Store) Delete(ctx context.Context, table string, id string) error {
	if err := checkTable(backend.OpDelete, table); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM backend_rows WHERE table_name = $1 AND id = $2`, table, id)
	return translate(backend.OpDelete, table, err)
}

func checkTable(op, table string) error {
	if backend.KnownTable(table) {
		return nil
	}
	return &backend.Error{Op: op, Target: table, Message: fmt.Sprintf("relation \"public.%s\" does not exist", table)}
}

func translate(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.Error{Op: op, Target: table, Message: pgErr.Message, Err: err}
	}
	return backend.Wrap(op, table, err)
}
