package forms

import (
	"context"
	"strings"

	"summit/internal/admin"
	"summit/internal/content"
)

// SponsorSaver persists sponsor drafts. *admin.Actions implements it.
type SponsorSaver interface {
	CreateSponsor(ctx context.Context, in admin.SponsorInput) error
	UpdateSponsor(ctx context.Context, id string, in admin.SponsorInput) error
}

// SponsorDraft is the state of the sponsor form.
type SponsorDraft struct {
	imageSlot
	id     string
	Fields admin.SponsorInput
}

// NewSponsorDraft returns an empty draft for a new sponsor.
func NewSponsorDraft() *SponsorDraft {
	return &SponsorDraft{
		imageSlot: imageSlot{mode: ImageModeUpload},
		Fields:    admin.SponsorInput{Tier: string(content.DefaultTier)},
	}
}

// EditSponsorDraft returns a draft editing s. Logos hosted elsewhere than
// storageBase open in URL mode; uploaded logos open in upload mode.
func EditSponsorDraft(s content.Sponsor, storageBase string) *SponsorDraft {
	d := &SponsorDraft{
		imageSlot: imageSlot{mode: ImageModeUpload},
		id:        s.ID.String(),
		Fields:    admin.SponsorInputFrom(s),
	}
	if d.Fields.Tier == "" {
		d.Fields.Tier = string(content.DefaultTier)
	}
	if strings.HasPrefix(s.LogoURL, "http") && !content.HostedOn(storageBase, s.LogoURL) {
		d.mode = ImageModeURL
	}
	return d
}

// ID is the id of the sponsor being edited, empty for a new sponsor.
func (d *SponsorDraft) ID() string {
	return d.id
}

// Editing reports whether the draft edits an existing sponsor.
func (d *SponsorDraft) Editing() bool {
	return d.id != ""
}

// Set assigns a field by its form name and reports whether the name is known.
func (d *SponsorDraft) Set(field, value string) bool {
	switch field {
	case "name":
		d.Fields.Name = value
	case "website":
		d.Fields.Website = value
	case "tier":
		d.Fields.Tier = value
	case "description":
		d.Fields.Description = value
	case "contact_email":
		d.Fields.ContactEmail = value
	case "logo_url":
		d.Fields.LogoURL = value
	default:
		return false
	}
	return true
}

// SetImageURL sets the logo from a pasted URL.
func (d *SponsorDraft) SetImageURL(url string) {
	d.Fields.LogoURL = url
}

// AttachFile uploads file right away and points the logo at it.
func (d *SponsorDraft) AttachFile(ctx context.Context, upload UploadFunc, file *admin.File) error {
	return attach(ctx, upload, file, &d.Fields.LogoURL)
}

// RemoveImage clears the logo.
func (d *SponsorDraft) RemoveImage() {
	d.Fields.LogoURL = ""
}

// Preview is the image currently shown next to the form.
func (d *SponsorDraft) Preview() string {
	return d.Fields.LogoURL
}

// Validate checks the fields required before any backend call.
func (d *SponsorDraft) Validate() error {
	if strings.TrimSpace(d.Fields.Name) == "" || strings.TrimSpace(d.Fields.LogoURL) == "" {
		return ErrMissingRequired
	}
	return nil
}

// Submit saves the draft. A created sponsor resets the draft; a saved edit
// closes the form. On failure the draft is left as it was.
func (d *SponsorDraft) Submit(ctx context.Context, saver SponsorSaver) (Outcome, error) {
	if err := d.Validate(); err != nil {
		return OutcomeNone, err
	}
	if d.Editing() {
		if err := saver.UpdateSponsor(ctx, d.id, d.Fields); err != nil {
			return OutcomeNone, err
		}
		return OutcomeClosed, nil
	}
	if err := saver.CreateSponsor(ctx, d.Fields); err != nil {
		return OutcomeNone, err
	}
	*d = *NewSponsorDraft()
	return OutcomeCleared, nil
}
