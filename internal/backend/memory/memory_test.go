package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summit/internal/backend"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	c := New(WithClock(fixedClock(now)))
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, backend.TableSponsors, backend.Row{"name": "Acme"}))

	rows, err := c.Select(ctx, backend.TableSponsors, backend.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0]["id"])
	assert.Equal(t, "2025-03-01T09:30:00.000000Z", rows[0]["created_at"])
}

func TestSelectOrdersDescendingWithInsertionTieBreak(t *testing.T) {
	c := New(WithClock(fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, c.Insert(ctx, backend.TableSponsors, backend.Row{"name": name}))
	}

	rows, err := c.Select(ctx, backend.TableSponsors, backend.Query{}.OrderBy(backend.ColumnCreatedAt, false))
	require.NoError(t, err)
	names := []string{}
	for _, row := range rows {
		names = append(names, row["name"].(string))
	}
	assert.Equal(t, []string{"third", "second", "first"}, names)

	rows, err = c.Select(ctx, backend.TableSponsors, backend.Query{}.OrderBy("name", true))
	require.NoError(t, err)
	assert.Equal(t, "first", rows[0]["name"])
	assert.Equal(t, "third", rows[2]["name"])
}

func TestSelectFiltersOnBooleans(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableBlogPosts,
		backend.Row{"title": "draft", "published": false},
		backend.Row{"title": "live", "published": true},
	))

	rows, err := c.Select(ctx, backend.TableBlogPosts, backend.Query{}.Eq("published", true))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "live", rows[0]["title"])
}

func TestUpdateMergesOnlyPatchedColumns(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableMentorshipApplications,
		backend.Row{"id": "42", "status": "pending", "full_name": "Ada"}))

	require.NoError(t, c.Update(ctx, backend.TableMentorshipApplications, backend.Row{"status": "approved"}, "42"))

	rows, err := c.Select(ctx, backend.TableMentorshipApplications, backend.Query{}.Eq("id", "42"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "approved", rows[0]["status"])
	assert.Equal(t, "Ada", rows[0]["full_name"])

	assert.NoError(t, c.Update(ctx, backend.TableMentorshipApplications, backend.Row{"status": "x"}, "missing"))
}

func TestNumericIDsMatchTheirDecimalText(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableMentorshipApplications,
		backend.Row{"id": 1234567, "status": "pending"}))

	rows, err := c.Select(ctx, backend.TableMentorshipApplications, backend.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1234567", backend.RowID(rows[0]))

	require.NoError(t, c.Update(ctx, backend.TableMentorshipApplications, backend.Row{"status": "approved"}, "1234567"))
	rows, err = c.Select(ctx, backend.TableMentorshipApplications, backend.Query{}.Eq(backend.ColumnID, "1234567"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "approved", rows[0]["status"])

	require.NoError(t, c.Delete(ctx, backend.TableMentorshipApplications, "1234567"))
	assert.Equal(t, 0, c.Count(backend.TableMentorshipApplications))
}

func TestSelectReturnsCopies(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableSpeakers, backend.Row{"id": "s1", "name": "Grace"}))

	rows, err := c.Select(ctx, backend.TableSpeakers, backend.Query{})
	require.NoError(t, err)
	rows[0]["name"] = "mutated"

	rows, err = c.Select(ctx, backend.TableSpeakers, backend.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Grace", rows[0]["name"])
}

func TestDeleteRemovesOnlyMatchingRow(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableSponsors, backend.Row{"id": "a"}, backend.Row{"id": "b"}))
	require.NoError(t, c.Delete(ctx, backend.TableSponsors, "a"))
	assert.Equal(t, 1, c.Count(backend.TableSponsors))
	require.NoError(t, c.Delete(ctx, backend.TableSponsors, "zzz"))
	assert.Equal(t, 1, c.Count(backend.TableSponsors))
}

func TestDuplicateIDRejected(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.Insert(ctx, backend.TableSponsors, backend.Row{"id": "a"}))
	err := c.Insert(ctx, backend.TableSponsors, backend.Row{"id": "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestUnknownTableFails(t *testing.T) {
	c := New()
	_, err := c.Select(context.Background(), "attendees", backend.Query{})
	var backendErr *backend.Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, `relation "public.attendees" does not exist`, backendErr.Message)
}

func TestFailWithInjectsBackendErrors(t *testing.T) {
	c := New()
	c.FailWith(backend.OpSelect, backend.TableSponsors, errors.New("JWT expired"))

	_, err := c.Select(context.Background(), backend.TableSponsors, backend.Query{})
	require.Error(t, err)
	assert.Equal(t, "JWT expired", err.Error())

	c.FailWith(backend.OpSelect, backend.TableSponsors, nil)
	_, err = c.Select(context.Background(), backend.TableSponsors, backend.Query{})
	assert.NoError(t, err)
}

func TestUploadAndPublicURL(t *testing.T) {
	c := New(WithBaseURL("https://base.example/"))
	ctx := context.Background()

	require.NoError(t, c.Upload(ctx, backend.BucketSponsorImages, "1700-logo.png", strings.NewReader("png"), "image/png"))
	data, contentType, ok := c.Object(backend.BucketSponsorImages, "1700-logo.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", contentType)

	err := c.Upload(ctx, backend.BucketSponsorImages, "1700-logo.png", strings.NewReader("again"), "image/png")
	assert.EqualError(t, err, "The resource already exists")

	err = c.Upload(ctx, "avatars", "x.png", strings.NewReader("x"), "image/png")
	assert.EqualError(t, err, "Bucket not found")

	assert.Equal(t, "https://base.example/storage/v1/object/public/sponsor-images/1700-logo.png",
		c.PublicURL(backend.BucketSponsorImages, "1700-logo.png"))
}

func TestCancelledContextFails(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Select(ctx, backend.TableSponsors, backend.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
