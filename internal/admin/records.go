package admin

import (
	"context"
	"strings"

	"summit/internal/backend"
	"summit/internal/content"
	"summit/internal/logging"
)

// SponsorInput is the payload shared by sponsor create and update.
type SponsorInput struct {
	Name         string
	LogoURL      string
	Website      string
	Tier         string
	Description  string
	ContactEmail string
}

func (in SponsorInput) row() (backend.Row, error) {
	tier := content.DefaultTier
	if strings.TrimSpace(in.Tier) != "" {
		parsed, err := content.ParseTier(in.Tier)
		if err != nil {
			return nil, ErrInvalidTier
		}
		tier = parsed
	}
	return backend.Row{
		"name":          in.Name,
		"logo_url":      in.LogoURL,
		"website":       in.Website,
		"tier":          string(tier),
		"description":   in.Description,
		"contact_email": in.ContactEmail,
	}, nil
}

// SponsorInputFrom copies the editable fields of s.
func SponsorInputFrom(s content.Sponsor) SponsorInput {
	return SponsorInput{
		Name:         s.Name,
		LogoURL:      s.LogoURL,
		Website:      s.Website,
		Tier:         string(s.Tier),
		Description:  s.Description,
		ContactEmail: s.ContactEmail,
	}
}

// CreateSponsor inserts a sponsor. An empty tier defaults to silver.
func (a *Actions) CreateSponsor(ctx context.Context, in SponsorInput) error {
	const op = "create_sponsor"
	row, err := in.row()
	if err != nil {
		return a.reject(op, err)
	}
	if err := a.client.Insert(ctx, backend.TableSponsors, row); err != nil {
		return a.fail(ctx, op, err)
	}
	logging.FromContext(ctx, a.logger).Info("Created sponsor %q", in.Name)
	return nil
}

// UpdateSponsor overwrites the editable fields of sponsor id.
func (a *Actions) UpdateSponsor(ctx context.Context, id string, in SponsorInput) error {
	const op = "update_sponsor"
	if strings.TrimSpace(id) == "" {
		return a.reject(op, ErrMissingID)
	}
	row, err := in.row()
	if err != nil {
		return a.reject(op, err)
	}
	if err := a.client.Update(ctx, backend.TableSponsors, row, id); err != nil {
		return a.fail(ctx, op, err)
	}
	return nil
}

// DeleteSponsor removes sponsor id.
func (a *Actions) DeleteSponsor(ctx context.Context, id string) error {
	return a.delete(ctx, "delete_sponsor", backend.TableSponsors, id)
}

// SpeakerInput is the payload shared by speaker create and update.
type SpeakerInput struct {
	Name     string
	Title    string
	Company  string
	Bio      string
	ImageURL string
}

func (in SpeakerInput) row() backend.Row {
	return backend.Row{
		"name":      in.Name,
		"title":     in.Title,
		"company":   in.Company,
		"bio":       in.Bio,
		"image_url": in.ImageURL,
	}
}

// SpeakerInputFrom copies the editable fields of s.
func SpeakerInputFrom(s content.Speaker) SpeakerInput {
	return SpeakerInput{
		Name:     s.Name,
		Title:    s.Title,
		Company:  s.Company,
		Bio:      s.Bio,
		ImageURL: s.ImageURL,
	}
}

// CreateSpeaker inserts a speaker stamped with created_at.
func (a *Actions) CreateSpeaker(ctx context.Context, in SpeakerInput) error {
	const op = "create_speaker"
	row := in.row()
	row[backend.ColumnCreatedAt] = backend.FormatTimestamp(a.now())
	if err := a.client.Insert(ctx, backend.TableSpeakers, row); err != nil {
		return a.fail(ctx, op, err)
	}
	logging.FromContext(ctx, a.logger).Info("Created speaker %q", in.Name)
	return nil
}

// UpdateSpeaker overwrites the editable fields of speaker id and stamps updated_at.
func (a *Actions) UpdateSpeaker(ctx context.Context, id string, in SpeakerInput) error {
	const op = "update_speaker"
	if strings.TrimSpace(id) == "" {
		return a.reject(op, ErrMissingID)
	}
	row := in.row()
	row[backend.ColumnUpdatedAt] = backend.FormatTimestamp(a.now())
	if err := a.client.Update(ctx, backend.TableSpeakers, row, id); err != nil {
		return a.fail(ctx, op, err)
	}
	return nil
}

// DeleteSpeaker removes speaker id.
func (a *Actions) DeleteSpeaker(ctx context.Context, id string) error {
	return a.delete(ctx, "delete_speaker", backend.TableSpeakers, id)
}

func (a *Actions) delete(ctx context.Context, op, table, id string) error {
	if strings.TrimSpace(id) == "" {
		return a.reject(op, ErrMissingID)
	}
	if err := a.client.Delete(ctx, table, id); err != nil {
		return a.fail(ctx, op, err)
	}
	logging.FromContext(ctx, a.logger).Info("Deleted %s %s", table, id)
	return nil
}
