// Package forms holds the editable drafts behind the admin sponsor and
// speaker forms. A draft mirrors one record, acquires its image either by
// upload or by pasted URL, and is submitted as a single action.
package forms

import (
	"context"
	"errors"
	"strings"

	"summit/internal/admin"
)

// ErrMissingRequired is returned when a draft is submitted without its
// required fields. No backend call is made.
var ErrMissingRequired = errors.New("Please fill in all required fields")

// ImageMode selects how a draft acquires its image.
type ImageMode string

const (
	ImageModeUpload ImageMode = "upload"
	ImageModeURL    ImageMode = "url"
)

// ParseImageMode returns the mode named by s, defaulting to upload.
func ParseImageMode(s string) ImageMode {
	if ImageMode(strings.ToLower(strings.TrimSpace(s))) == ImageModeURL {
		return ImageModeURL
	}
	return ImageModeUpload
}

// Outcome tells the caller what to do with the form after a submit.
type Outcome int

const (
	// OutcomeNone means the submit did not go through.
	OutcomeNone Outcome = iota
	// OutcomeCleared means a record was created and the draft was reset.
	OutcomeCleared
	// OutcomeClosed means an edit was saved and the form should close.
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCleared:
		return "cleared"
	case OutcomeClosed:
		return "closed"
	default:
		return "none"
	}
}

// UploadFunc stores an image and returns its public URL. The admin
// uploaders have this shape.
type UploadFunc func(ctx context.Context, file *admin.File) (string, error)

// imageSlot tracks the acquisition mode of one image field. Switching modes
// never touches the field value.
type imageSlot struct {
	mode ImageMode
}

func (s *imageSlot) Mode() ImageMode {
	return s.mode
}

func (s *imageSlot) SetMode(mode ImageMode) {
	if mode != ImageModeURL {
		mode = ImageModeUpload
	}
	s.mode = mode
}

// attach uploads file and writes the resulting URL into field. The field is
// left untouched when the upload fails.
func attach(ctx context.Context, upload UploadFunc, file *admin.File, field *string) error {
	if upload == nil {
		return errors.New("no uploader configured")
	}
	url, err := upload(ctx, file)
	if err != nil {
		return err
	}
	*field = url
	return nil
}
