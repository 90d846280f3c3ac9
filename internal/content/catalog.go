package content

import (
	"context"
	"errors"
	"fmt"

	"summit/internal/backend"
	"summit/internal/logging"
)

// ErrNotFound is returned when a single record lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Catalog reads site content from the backend.
type Catalog struct {
	rows   backend.Rows
	logger logging.Logger
}

// NewCatalog returns a Catalog reading through rows.
func NewCatalog(rows backend.Rows, logger logging.Logger) *Catalog {
	return &Catalog{rows: rows, logger: logging.OrNop(logger)}
}

// Sponsors lists sponsors, newest first.
func (c *Catalog) Sponsors(ctx context.Context) Listing[Sponsor] {
	return fetch[Sponsor](ctx, c, backend.TableSponsors,
		backend.Query{}.OrderBy(backend.ColumnCreatedAt, false))
}

// ListSponsors lists sponsors, newest first. A failed fetch is logged and
// yields an empty slice, so callers cannot tell it apart from no sponsors.
func (c *Catalog) ListSponsors(ctx context.Context) []Sponsor {
	return c.Sponsors(ctx).OrEmpty()
}

// Speakers lists speakers by name.
func (c *Catalog) Speakers(ctx context.Context) Listing[Speaker] {
	return fetch[Speaker](ctx, c, backend.TableSpeakers,
		backend.Query{}.OrderBy("name", true))
}

// PublishedPosts lists published blog posts, newest first.
func (c *Catalog) PublishedPosts(ctx context.Context) Listing[BlogPost] {
	return fetch[BlogPost](ctx, c, backend.TableBlogPosts,
		backend.Query{}.Eq("published", true).OrderBy(backend.ColumnCreatedAt, false))
}

// Applications lists submissions of kind, newest first.
func (c *Catalog) Applications(ctx context.Context, kind ApplicationKind) Listing[Application] {
	rows, err := c.rows.Select(ctx, kind.Table(), backend.Query{}.OrderBy(backend.ColumnCreatedAt, false))
	if err != nil {
		c.logFetchError(ctx, kind.Table(), err)
		return newListing[Application](nil, err)
	}
	apps := make([]Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, applicationFromRow(row))
	}
	return newListing(apps, nil)
}

// Application returns one submission of kind.
func (c *Catalog) Application(ctx context.Context, kind ApplicationKind, id string) (Application, error) {
	row, err := c.one(ctx, kind.Table(), id)
	if err != nil {
		return Application{}, err
	}
	return applicationFromRow(row), nil
}

// Sponsor returns the sponsor with id.
func (c *Catalog) Sponsor(ctx context.Context, id string) (Sponsor, error) {
	return lookup[Sponsor](ctx, c, backend.TableSponsors, id)
}

// Speaker returns the speaker with id.
func (c *Catalog) Speaker(ctx context.Context, id string) (Speaker, error) {
	return lookup[Speaker](ctx, c, backend.TableSpeakers, id)
}

func fetch[T any](ctx context.Context, c *Catalog, table string, q backend.Query) Listing[T] {
	rows, err := c.rows.Select(ctx, table, q)
	if err != nil {
		c.logFetchError(ctx, table, err)
		return newListing[T](nil, err)
	}
	items, err := backend.Decode[T](rows)
	if err != nil {
		c.logFetchError(ctx, table, err)
		return newListing[T](nil, err)
	}
	return newListing(items, nil)
}

func lookup[T any](ctx context.Context, c *Catalog, table, id string) (T, error) {
	var zero T
	row, err := c.one(ctx, table, id)
	if err != nil {
		return zero, err
	}
	items, err := backend.Decode[T]([]backend.Row{row})
	if err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return items[0], nil
}

func (c *Catalog) one(ctx context.Context, table, id string) (backend.Row, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	rows, err := c.rows.Select(ctx, table, backend.Query{}.Eq(backend.ColumnID, id))
	if err != nil {
		c.logFetchError(ctx, table, err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return rows[0], nil
}

func (c *Catalog) logFetchError(ctx context.Context, table string, err error) {
	logging.FromContext(ctx, c.logger).Warn("Error fetching %s: %s", table, backend.Message(err))
}
