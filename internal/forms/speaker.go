package forms

import (
	"context"
	"strings"

	"summit/internal/admin"
	"summit/internal/content"
)

// SpeakerSaver persists speaker drafts. *admin.Actions implements it.
type SpeakerSaver interface {
	CreateSpeaker(ctx context.Context, in admin.SpeakerInput) error
	UpdateSpeaker(ctx context.Context, id string, in admin.SpeakerInput) error
}

// SpeakerDraft is the state of the speaker form.
type SpeakerDraft struct {
	imageSlot
	id     string
	Fields admin.SpeakerInput
}

// NewSpeakerDraft returns an empty draft for a new speaker.
func NewSpeakerDraft() *SpeakerDraft {
	return &SpeakerDraft{imageSlot: imageSlot{mode: ImageModeUpload}}
}

// EditSpeakerDraft returns a draft editing s.
func EditSpeakerDraft(s content.Speaker) *SpeakerDraft {
	return &SpeakerDraft{
		imageSlot: imageSlot{mode: ImageModeUpload},
		id:        s.ID.String(),
		Fields:    admin.SpeakerInputFrom(s),
	}
}

// ID is the id of the speaker being edited, empty for a new speaker.
func (d *SpeakerDraft) ID() string {
	return d.id
}

// Editing reports whether the draft edits an existing speaker.
func (d *SpeakerDraft) Editing() bool {
	return d.id != ""
}

// Set assigns a field by its form name and reports whether the name is known.
func (d *SpeakerDraft) Set(field, value string) bool {
	switch field {
	case "name":
		d.Fields.Name = value
	case "title":
		d.Fields.Title = value
	case "company":
		d.Fields.Company = value
	case "bio":
		d.Fields.Bio = value
	case "image_url":
		d.Fields.ImageURL = value
	default:
		return false
	}
	return true
}

// SetImageURL sets the photo from a pasted URL. Blank input is ignored.
func (d *SpeakerDraft) SetImageURL(url string) {
	if strings.TrimSpace(url) == "" {
		return
	}
	d.Fields.ImageURL = strings.TrimSpace(url)
}

// AttachFile uploads file right away and points the photo at it.
func (d *SpeakerDraft) AttachFile(ctx context.Context, upload UploadFunc, file *admin.File) error {
	return attach(ctx, upload, file, &d.Fields.ImageURL)
}

// RemoveImage clears the photo.
func (d *SpeakerDraft) RemoveImage() {
	d.Fields.ImageURL = ""
}

// Preview is the image currently shown next to the form.
func (d *SpeakerDraft) Preview() string {
	return d.Fields.ImageURL
}

// Validate checks the fields required before any backend call.
func (d *SpeakerDraft) Validate() error {
	if strings.TrimSpace(d.Fields.Name) == "" {
		return ErrMissingRequired
	}
	return nil
}

// Submit saves the draft. A created speaker resets the draft; a saved edit
// closes the form. On failure the draft is left as it was.
func (d *SpeakerDraft) Submit(ctx context.Context, saver SpeakerSaver) (Outcome, error) {
	if err := d.Validate(); err != nil {
		return OutcomeNone, err
	}
	if d.Editing() {
		if err := saver.UpdateSpeaker(ctx, d.id, d.Fields); err != nil {
			return OutcomeNone, err
		}
		return OutcomeClosed, nil
	}
	if err := saver.CreateSpeaker(ctx, d.Fields); err != nil {
		return OutcomeNone, err
	}
	*d = *NewSpeakerDraft()
	return OutcomeCleared, nil
}
