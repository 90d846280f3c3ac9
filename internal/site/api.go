package site

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"summit/internal/admin"
	"summit/internal/backend"
	"summit/internal/content"
	"summit/internal/forms"
	"summit/internal/logging"
)

// maxUploadBytes bounds multipart bodies on the upload endpoints.
const maxUploadBytes = 10 << 20

func listingResponse[T any](l content.Listing[T]) ListingResponse[T] {
	resp := ListingResponse[T]{Items: l.OrEmpty(), State: l.State.String()}
	if l.Err != nil {
		resp.Error = backend.Message(l.Err)
	}
	return resp
}

func (s *Server) apiSponsors(c *gin.Context) {
	l := s.deps.Catalog.Sponsors(c.Request.Context())
	items := make([]SponsorResponse, 0, l.Len())
	for _, sponsor := range l.OrEmpty() {
		items = append(items, SponsorResponse{Sponsor: sponsor, LogoSrc: s.logo.Resolve(sponsor.LogoURL)})
	}
	resp := ListingResponse[SponsorResponse]{Items: items, State: l.State.String()}
	if l.Err != nil {
		resp.Error = backend.Message(l.Err)
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) apiSpeakers(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: listingResponse(s.deps.Catalog.Speakers(c.Request.Context()))})
}

func (s *Server) apiPosts(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: listingResponse(s.deps.Catalog.PublishedPosts(c.Request.Context()))})
}

func (s *Server) apiApplications(c *gin.Context) {
	kind, err := content.ParseApplicationKind(c.Param("kind"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: listingResponse(s.deps.Catalog.Applications(c.Request.Context(), kind))})
}

func (s *Server) uploader(kind string) (forms.UploadFunc, bool) {
	switch kind {
	case "blog":
		return s.deps.Actions.UploadBlogImage, true
	case "speaker", "speakers":
		return s.deps.Actions.UploadSpeakerImage, true
	case "sponsor", "sponsors":
		return s.deps.Actions.UploadSponsorImage, true
	}
	return nil, false
}

func (s *Server) apiUpload(c *gin.Context) {
	upload, ok := s.uploader(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "unknown upload kind"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, closeFile, err := formFile(c, "file")
	if err != nil {
		status := http.StatusBadRequest
		if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(c, status, err)
		return
	}
	defer closeFile()

	url, err := upload(c.Request.Context(), file)
	if err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: UploadResponse{URL: url}})
}

func (s *Server) apiCreateSponsor(c *gin.Context) {
	var req SponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	draft := forms.NewSponsorDraft()
	applySponsorRequest(draft, req)
	if _, err := draft.Submit(c.Request.Context(), s.deps.Actions); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: "Sponsor created"})
}

func (s *Server) apiUpdateSponsor(c *gin.Context) {
	var req SponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	current, err := s.deps.Catalog.Sponsor(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, lookupStatus(err), err)
		return
	}
	draft := forms.EditSponsorDraft(current, s.cfg.StorageBaseURL)
	applySponsorRequest(draft, req)
	if _, err := draft.Submit(ctx, s.deps.Actions); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "Sponsor updated"})
}

func (s *Server) apiDeleteSponsor(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.deps.Catalog.Sponsor(ctx, c.Param("id")); err != nil {
		s.respondError(c, lookupStatus(err), err)
		return
	}
	if err := s.deps.Actions.DeleteSponsor(ctx, c.Param("id")); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "Sponsor deleted"})
}

func (s *Server) apiCreateSpeaker(c *gin.Context) {
	var req SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	draft := forms.NewSpeakerDraft()
	applySpeakerRequest(draft, req)
	if _, err := draft.Submit(c.Request.Context(), s.deps.Actions); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: "Speaker created"})
}

func (s *Server) apiUpdateSpeaker(c *gin.Context) {
	var req SpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	current, err := s.deps.Catalog.Speaker(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, lookupStatus(err), err)
		return
	}
	draft := forms.EditSpeakerDraft(current)
	applySpeakerRequest(draft, req)
	if _, err := draft.Submit(ctx, s.deps.Actions); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "Speaker updated"})
}

func (s *Server) apiDeleteSpeaker(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.deps.Catalog.Speaker(ctx, c.Param("id")); err != nil {
		s.respondError(c, lookupStatus(err), err)
		return
	}
	if err := s.deps.Actions.DeleteSpeaker(ctx, c.Param("id")); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "Speaker deleted"})
}

func (s *Server) apiUpdateStatus(c *gin.Context) {
	kind, err := content.ParseApplicationKind(c.Param("kind"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.deps.Actions.UpdateApplicationStatus(c.Request.Context(), kind, c.Param("id"), req.Status); err != nil {
		s.respondError(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "Status updated"})
}

func applySponsorRequest(d *forms.SponsorDraft, req SponsorRequest) {
	d.Set("name", req.Name)
	d.Set("website", req.Website)
	d.Set("tier", req.Tier)
	d.Set("description", req.Description)
	d.Set("contact_email", req.ContactEmail)
	d.SetImageURL(req.LogoURL)
}

func applySpeakerRequest(d *forms.SpeakerDraft, req SpeakerRequest) {
	d.Set("name", req.Name)
	d.Set("title", req.Title)
	d.Set("company", req.Company)
	d.Set("bio", req.Bio)
	d.Set("image_url", req.ImageURL)
}

// formFile reads an optional multipart file. A missing file yields a nil
// *admin.File so the uploaders report it themselves.
func formFile(c *gin.Context, field string) (*admin.File, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	file := &admin.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
	return file, func() { _ = f.Close() }, nil
}

// mutationStatus maps an admin action error onto an HTTP status.
func mutationStatus(err error) int {
	switch {
	case errors.Is(err, forms.ErrMissingRequired),
		errors.Is(err, admin.ErrInvalidTier),
		errors.Is(err, admin.ErrMissingID),
		errors.Is(err, admin.ErrMissingStatus),
		errors.Is(err, admin.ErrNoFile):
		return http.StatusUnprocessableEntity
	}
	var backendErr *backend.Error
	if errors.As(err, &backendErr) {
		switch backendErr.Status {
		case http.StatusConflict, http.StatusRequestEntityTooLarge, http.StatusNotFound:
			return backendErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func lookupStatus(err error) int {
	if errors.Is(err, content.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), s.logger).Warn("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, APIResponse{Success: false, Error: err.Error()})
}
