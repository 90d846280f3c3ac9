// Package backend defines the contract the site consumes from its hosted data
// service: table-style row storage and bucket blob storage.
package backend

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Tables consumed by the site.
const (
	TableSpeakers               = "speakers"
	TableSponsors               = "sponsors"
	TableBlogPosts              = "blog_posts"
	TableMentorshipApplications = "mentorship_applications"
	TableAwardNominations       = "award_nominations"
)

// Buckets consumed by the site.
const (
	BucketBlogImages    = "blog-images"
	BucketSpeakerImages = "speaker-images"
	BucketSponsorImages = "sponsor-images"
)

// Column names shared by every table.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Row is one record of a table, keyed by column name.
type Row map[string]any

// Filter matches rows whose Column equals Value.
type Filter struct {
	Column string
	Value  any
}

// Order sorts rows by Column.
type Order struct {
	Column    string
	Ascending bool
}

// Query narrows a Select. The zero value selects every row in backend order.
type Query struct {
	Filters []Filter
	Order   *Order
}

// Eq returns a copy of q with an equality filter appended.
func (q Query) Eq(column string, value any) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// OrderBy returns a copy of q sorted by column.
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = &Order{Column: column, Ascending: ascending}
	return q
}

// Rows is the table half of the backend.
type Rows interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) error
	// Update merges patch into the row with the given id. Columns absent from
	// patch are left untouched.
	Update(ctx context.Context, table string, patch Row, id string) error
	Delete(ctx context.Context, table string, id string) error
}

// Storage is the blob half of the backend.
type Storage interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	PublicURL(bucket, key string) string
}

// Client is the full backend contract.
type Client interface {
	Rows
	Storage
}

type composite struct {
	Rows
	Storage
}

// Compose joins independent row and storage implementations into a Client.
func Compose(rows Rows, storage Storage) Client {
	return composite{Rows: rows, Storage: storage}
}

// KnownTable reports whether table is one the site reads or writes.
func KnownTable(table string) bool {
	switch table {
	case TableSpeakers, TableSponsors, TableBlogPosts, TableMentorshipApplications, TableAwardNominations:
		return true
	}
	return false
}

// KnownBucket reports whether bucket is one the site uploads to.
func KnownBucket(bucket string) bool {
	switch bucket {
	case BucketBlogImages, BucketSpeakerImages, BucketSponsorImages:
		return true
	}
	return false
}

// PublicPathPrefix is the path under which buckets expose public objects.
const PublicPathPrefix = "/storage/v1/object/public/"

// PublicObjectURL joins base with the public path of bucket/key. Key segments
// are escaped individually so nested keys keep their slashes.
func PublicObjectURL(base, bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimRight(base, "/") + PublicPathPrefix + bucket + "/" + strings.Join(segments, "/")
}
