package site

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"summit/internal/admin"
	"summit/internal/content"
	"summit/internal/forms"
)

// StatusChoices are offered on the application pages. Any other non-empty
// status is accepted too.
var StatusChoices = []string{"pending", "under_review", "approved", "rejected"}

type adminIndexData struct {
	Sponsors   int
	Speakers   int
	Mentorship int
	Awards     int
	Failed     []string
}

func (s *Server) adminIndex(c *gin.Context) {
	var (
		sponsors   content.Listing[content.Sponsor]
		speakers   content.Listing[content.Speaker]
		mentorship content.Listing[content.Application]
		awards     content.Listing[content.Application]
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error { sponsors = s.deps.Catalog.Sponsors(ctx); return nil })
	g.Go(func() error { speakers = s.deps.Catalog.Speakers(ctx); return nil })
	g.Go(func() error { mentorship = s.deps.Catalog.Applications(ctx, content.KindMentorship); return nil })
	g.Go(func() error { awards = s.deps.Catalog.Applications(ctx, content.KindAward); return nil })
	_ = g.Wait()

	data := adminIndexData{
		Sponsors:   sponsors.Len(),
		Speakers:   speakers.Len(),
		Mentorship: mentorship.Len(),
		Awards:     awards.Len(),
	}
	for _, check := range []struct {
		name   string
		failed bool
	}{
		{"sponsors", sponsors.Failed()},
		{"speakers", speakers.Failed()},
		{"mentorship applications", mentorship.Failed()},
		{"award nominations", awards.Failed()},
	} {
		if check.failed {
			data.Failed = append(data.Failed, check.name)
		}
	}
	s.render(c, http.StatusOK, "admin_index", s.adminView(c, "Admin", data))
}

func (s *Server) adminView(c *gin.Context, title string, data any) view {
	v := s.newView(c, title, data)
	v.AdminArea = true
	v.Notice = noticeText(c.Query("saved"))
	return v
}

func noticeText(outcome string) string {
	switch outcome {
	case forms.OutcomeCleared.String():
		return "Saved. The form is ready for the next entry."
	case forms.OutcomeClosed.String():
		return "Changes saved."
	case "deleted":
		return "Deleted."
	case "status":
		return "Status updated."
	}
	return ""
}

type adminSpeakersData struct {
	Speakers content.Listing[content.Speaker]
	Draft    *forms.SpeakerDraft
}

func (s *Server) adminSpeakers(c *gin.Context) {
	ctx := c.Request.Context()
	draft := forms.NewSpeakerDraft()
	v := s.adminView(c, "Speakers", nil)
	if id := c.Query("edit"); id != "" {
		current, err := s.deps.Catalog.Speaker(ctx, id)
		if err != nil {
			v.Alert = err.Error()
		} else {
			draft = forms.EditSpeakerDraft(current)
		}
	}
	s.renderSpeakers(c, http.StatusOK, v, draft)
}

func (s *Server) renderSpeakers(c *gin.Context, status int, v view, draft *forms.SpeakerDraft) {
	v.Data = adminSpeakersData{
		Speakers: s.deps.Catalog.Speakers(c.Request.Context()),
		Draft:    draft,
	}
	s.render(c, status, "admin_speakers", v)
}

func (s *Server) adminSaveSpeaker(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	v := s.adminView(c, "Speakers", nil)

	draft := forms.NewSpeakerDraft()
	if id := c.PostForm("id"); id != "" {
		current, err := s.deps.Catalog.Speaker(ctx, id)
		if err != nil {
			v.Alert = err.Error()
			s.renderSpeakers(c, lookupStatus(err), v, draft)
			return
		}
		draft = forms.EditSpeakerDraft(current)
	}
	for _, field := range []string{"name", "title", "company", "bio"} {
		draft.Set(field, c.PostForm(field))
	}
	draft.SetMode(forms.ParseImageMode(c.PostForm("image_mode")))

	if err := s.acquireImage(c, draft.Mode(), "image_file", s.deps.Actions.UploadSpeakerImage, draft); err != nil {
		v.Alert = err.Error()
		s.renderSpeakers(c, mutationStatus(err), v, draft)
		return
	}

	outcome, err := draft.Submit(ctx, s.deps.Actions)
	if err != nil {
		v.Alert = err.Error()
		s.renderSpeakers(c, mutationStatus(err), v, draft)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/speakers?saved="+outcome.String())
}

func (s *Server) adminDeleteSpeaker(c *gin.Context) {
	if err := s.deps.Actions.DeleteSpeaker(c.Request.Context(), c.Param("id")); err != nil {
		v := s.adminView(c, "Speakers", nil)
		v.Alert = err.Error()
		s.renderSpeakers(c, mutationStatus(err), v, forms.NewSpeakerDraft())
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/speakers?saved=deleted")
}

type adminSponsorsData struct {
	Sponsors content.Listing[content.Sponsor]
	Draft    *forms.SponsorDraft
}

func (s *Server) adminSponsors(c *gin.Context) {
	ctx := c.Request.Context()
	draft := forms.NewSponsorDraft()
	v := s.adminView(c, "Sponsors", nil)
	if id := c.Query("edit"); id != "" {
		current, err := s.deps.Catalog.Sponsor(ctx, id)
		if err != nil {
			v.Alert = err.Error()
		} else {
			draft = forms.EditSponsorDraft(current, s.cfg.StorageBaseURL)
		}
	}
	s.renderSponsors(c, http.StatusOK, v, draft)
}

func (s *Server) renderSponsors(c *gin.Context, status int, v view, draft *forms.SponsorDraft) {
	v.Data = adminSponsorsData{
		Sponsors: s.deps.Catalog.Sponsors(c.Request.Context()),
		Draft:    draft,
	}
	s.render(c, status, "admin_sponsors", v)
}

func (s *Server) adminSaveSponsor(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	v := s.adminView(c, "Sponsors", nil)

	draft := forms.NewSponsorDraft()
	if id := c.PostForm("id"); id != "" {
		current, err := s.deps.Catalog.Sponsor(ctx, id)
		if err != nil {
			v.Alert = err.Error()
			s.renderSponsors(c, lookupStatus(err), v, draft)
			return
		}
		draft = forms.EditSponsorDraft(current, s.cfg.StorageBaseURL)
	}
	for _, field := range []string{"name", "website", "tier", "description", "contact_email"} {
		draft.Set(field, c.PostForm(field))
	}
	draft.SetMode(forms.ParseImageMode(c.PostForm("image_mode")))

	if err := s.acquireImage(c, draft.Mode(), "logo_file", s.deps.Actions.UploadSponsorImage, draft); err != nil {
		v.Alert = err.Error()
		s.renderSponsors(c, mutationStatus(err), v, draft)
		return
	}

	outcome, err := draft.Submit(ctx, s.deps.Actions)
	if err != nil {
		v.Alert = err.Error()
		s.renderSponsors(c, mutationStatus(err), v, draft)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/sponsors?saved="+outcome.String())
}

func (s *Server) adminDeleteSponsor(c *gin.Context) {
	if err := s.deps.Actions.DeleteSponsor(c.Request.Context(), c.Param("id")); err != nil {
		v := s.adminView(c, "Sponsors", nil)
		v.Alert = err.Error()
		s.renderSponsors(c, mutationStatus(err), v, forms.NewSponsorDraft())
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/sponsors?saved=deleted")
}

// imageDraft is the image half of a sponsor or speaker draft.
type imageDraft interface {
	SetImageURL(url string)
	RemoveImage()
	AttachFile(ctx context.Context, upload forms.UploadFunc, file *admin.File) error
}

// acquireImage applies the image fields of a submitted admin form. In URL
// mode the pasted URL is used; in upload mode a chosen file is uploaded
// before the record is saved. A failed upload leaves the image unchanged.
func (s *Server) acquireImage(c *gin.Context, mode forms.ImageMode, fileField string, upload forms.UploadFunc, draft imageDraft) error {
	if c.PostForm("remove_image") != "" {
		draft.RemoveImage()
		return nil
	}
	if mode == forms.ImageModeURL {
		draft.SetImageURL(strings.TrimSpace(c.PostForm("image_url")))
		return nil
	}
	file, closeFile, err := formFile(c, fileField)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}
	defer closeFile()
	return draft.AttachFile(c.Request.Context(), upload, file)
}

type adminApplicationsData struct {
	Kind         content.ApplicationKind
	Applications content.Listing[content.Application]
	Choices      []string
}

func (s *Server) adminApplications(c *gin.Context) {
	kind, err := content.ParseApplicationKind(c.Param("kind"))
	if err != nil {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	s.renderApplications(c, http.StatusOK, s.adminView(c, kind.Title(), nil), kind)
}

func (s *Server) renderApplications(c *gin.Context, status int, v view, kind content.ApplicationKind) {
	v.Data = adminApplicationsData{
		Kind:         kind,
		Applications: s.deps.Catalog.Applications(c.Request.Context(), kind),
		Choices:      StatusChoices,
	}
	s.render(c, status, "admin_applications", v)
}

func (s *Server) adminUpdateStatus(c *gin.Context) {
	kind, err := content.ParseApplicationKind(c.Param("kind"))
	if err != nil {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	if err := s.deps.Actions.UpdateApplicationStatus(c.Request.Context(), kind, c.Param("id"), c.PostForm("status")); err != nil {
		v := s.adminView(c, kind.Title(), nil)
		v.Alert = err.Error()
		s.renderApplications(c, mutationStatus(err), v, kind)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/applications/"+url.PathEscape(string(kind))+"?saved=status")
}
