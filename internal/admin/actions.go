// Package admin implements the write side of the site: application status
// changes, image uploads, and sponsor and speaker maintenance. Every action
// performs a single backend call and never retries.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"summit/internal/backend"
	"summit/internal/content"
	"summit/internal/logging"
)

var (
	// ErrNoFile is returned by the uploaders when no file is supplied.
	ErrNoFile = errors.New("No file provided")
	// ErrInvalidTier is returned when a sponsor carries a tier outside the four levels.
	ErrInvalidTier = errors.New("invalid sponsorship tier")
	// ErrMissingID is returned when an update or delete has no target id.
	ErrMissingID = errors.New("missing record id")
	// ErrMissingStatus is returned by the status updaters for a blank status.
	ErrMissingStatus = errors.New("missing status")
)

// Error is a failed admin action. Its message is the backend's message.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// File is an uploaded image.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Actions performs admin mutations against a backend.
type Actions struct {
	client backend.Client
	logger logging.Logger
	now    func() time.Time
}

// Option configures Actions.
type Option func(*Actions)

// WithClock overrides the clock used for storage keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Actions) {
		if now != nil {
			a.now = now
		}
	}
}

// NewActions returns Actions writing through client.
func NewActions(client backend.Client, logger logging.Logger, opts ...Option) *Actions {
	a := &Actions{
		client: client,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UpdateMentorshipStatus sets the status of a mentorship application.
func (a *Actions) UpdateMentorshipStatus(ctx context.Context, id, status string) error {
	return a.UpdateApplicationStatus(ctx, content.KindMentorship, id, status)
}

// UpdateAwardStatus sets the status of an award nomination.
func (a *Actions) UpdateAwardStatus(ctx context.Context, id, status string) error {
	return a.UpdateApplicationStatus(ctx, content.KindAward, id, status)
}

// UpdateApplicationStatus sets the status column of one submission. No other
// column is written.
func (a *Actions) UpdateApplicationStatus(ctx context.Context, kind content.ApplicationKind, id, status string) error {
	op := "update_" + string(kind) + "_status"
	if strings.TrimSpace(id) == "" {
		return a.reject(op, ErrMissingID)
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return a.reject(op, ErrMissingStatus)
	}
	err := a.client.Update(ctx, kind.Table(), backend.Row{"status": status}, id)
	if err != nil {
		return a.fail(ctx, op, err)
	}
	logging.FromContext(ctx, a.logger).Info("%s %s status set to %s", kind.Table(), id, status)
	return nil
}

// UploadBlogImage stores a blog image and returns its public URL.
func (a *Actions) UploadBlogImage(ctx context.Context, file *File) (string, error) {
	return a.upload(ctx, "upload_blog_image", backend.BucketBlogImages, file)
}

// UploadSpeakerImage stores a speaker photo and returns its public URL.
func (a *Actions) UploadSpeakerImage(ctx context.Context, file *File) (string, error) {
	return a.upload(ctx, "upload_speaker_image", backend.BucketSpeakerImages, file)
}

// UploadSponsorImage stores a sponsor logo and returns its public URL.
func (a *Actions) UploadSponsorImage(ctx context.Context, file *File) (string, error) {
	return a.upload(ctx, "upload_sponsor_image", backend.BucketSponsorImages, file)
}

func (a *Actions) upload(ctx context.Context, op, bucket string, file *File) (string, error) {
	if file == nil || file.Body == nil {
		return "", a.reject(op, ErrNoFile)
	}
	key := StorageKey(a.now(), file.Name)
	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if err := a.client.Upload(ctx, bucket, key, file.Body, contentType); err != nil {
		return "", a.fail(ctx, op, err)
	}
	url := a.client.PublicURL(bucket, key)
	logging.FromContext(ctx, a.logger).Info("Uploaded %s/%s", bucket, key)
	return url, nil
}

// StorageKey derives a collision-resistant object key from the upload time
// and the base name of the original file.
func StorageKey(now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

func (a *Actions) reject(op string, err error) error {
	return &Error{Op: op, Message: err.Error(), Err: err}
}

func (a *Actions) fail(ctx context.Context, op string, err error) error {
	message := backend.Message(err)
	logging.FromContext(ctx, a.logger).Error("%s failed: %s", op, message)
	return &Error{Op: op, Message: message, Err: err}
}
