package site

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summit/internal/admin"
	"summit/internal/backend"
	"summit/internal/backend/memory"
	"summit/internal/blob"
	"summit/internal/content"
	"summit/internal/jsonx"
	"summit/internal/observability"
)

const (
	testToken   = "s3cret"
	storageBase = "https://proj.example.co"
)

var uploadTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	client *memory.Client
	server *Server
}

func newFixture(t *testing.T, mutate ...func(*Config, *Deps)) *fixture {
	t.Helper()
	client := memory.New(memory.WithBaseURL(storageBase))
	cfg := Config{
		SiteName:       "Test Summit",
		AdminToken:     testToken,
		StorageBaseURL: storageBase,
	}
	deps := Deps{
		Catalog: content.NewCatalog(client, nil),
		Actions: admin.NewActions(client, nil, admin.WithClock(func() time.Time { return uploadTime })),
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	server, err := NewServer(cfg, deps)
	require.NoError(t, err)
	return &fixture{client: client, server: server}
}

func (f *fixture) seed(t *testing.T, table string, rows ...backend.Row) {
	t.Helper()
	require.NoError(t, f.client.Insert(context.Background(), table, rows...))
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func adminRequest(method, path string, body *bytes.Buffer, contentType string) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.HasPrefix(path, "/api/") {
		req.Header.Set("Authorization", "Bearer "+testToken)
	} else {
		req.SetBasicAuth("admin", testToken)
	}
	return req
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	data, err := jsonx.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

type multipartFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...multipartFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServerRequiresCatalogAndActions(t *testing.T) {
	_, err := NewServer(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHomeShowsFeaturedSpeakersAndResolvedLogos(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Ada", "Bola", "Chidi", "Dayo", "Efe"} {
		f.seed(t, backend.TableSpeakers, backend.Row{"name": name, "title": "Director"})
	}
	f.seed(t, backend.TableSponsors,
		backend.Row{"name": "Acme", "logo_url": "sponsor-images/acme.png", "tier": "gold"},
		backend.Row{"name": "NoLogo", "tier": "bronze"},
	)

	rec := f.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)

	assert.Equal(t, featuredSpeakers, doc.Find("#featured-speakers .speaker-card").Length())
	assert.Equal(t, "Ada", doc.Find("#featured-speakers .speaker-card h3").First().Text())

	var srcs []string
	doc.Find("#sponsors img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	assert.ElementsMatch(t, []string{
		storageBase + "/storage/v1/object/public/sponsor-images/acme.png",
		content.DefaultPlaceholder,
	}, srcs)
}

func TestPublicPagesTreatFetchFailureAsEmpty(t *testing.T) {
	failing := newFixture(t)
	failing.client.FailWith(backend.OpSelect, backend.TableSponsors, errors.New("permission denied for table sponsors"))
	empty := newFixture(t)

	failedDoc := document(t, failing.get("/sponsors"))
	emptyDoc := document(t, empty.get("/sponsors"))

	assert.Equal(t,
		strings.TrimSpace(emptyDoc.Find("#current-sponsors").Text()),
		strings.TrimSpace(failedDoc.Find("#current-sponsors").Text()))
	assert.Contains(t, failedDoc.Find("#current-sponsors .empty").Text(), "No sponsors yet")
	assert.Equal(t, 4, failedDoc.Find("#packages .package").Length())
	assert.Zero(t, failedDoc.Find(".alert").Length())
}

func TestSponsorsPageListsPackagesHighestFirst(t *testing.T) {
	f := newFixture(t)
	doc := document(t, f.get("/sponsors"))

	var names []string
	doc.Find("#packages .package h3").Each(func(_ int, s *goquery.Selection) {
		names = append(names, s.Text())
	})
	assert.Equal(t, []string{"Platinum", "Gold", "Silver", "Bronze"}, names)
	assert.Contains(t, doc.Find("#packages .tier-platinum .price").Text(), "5,000,000")
}

func TestBlogShowsOnlyPublishedPosts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableBlogPosts,
		backend.Row{"title": "Live", "slug": "live", "excerpt": "word word word", "published": true, "created_at": "2025-03-04T10:00:00Z"},
		backend.Row{"title": "Draft", "slug": "draft", "published": false},
	)

	doc := document(t, f.get("/blog"))
	posts := doc.Find("#posts .post")
	require.Equal(t, 1, posts.Length())
	assert.Equal(t, "Live", posts.Find("h2").Text())
	assert.Contains(t, posts.Find(".meta").Text(), "March 4, 2025")
	assert.Contains(t, posts.Find(".meta").Text(), "1 min read")
}

func TestSpeakerBioIsSanitizedMarkdown(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableSpeakers, backend.Row{"name": "Ada", "bio": "**Chair** <script>alert(1)</script>"})

	doc := document(t, f.get("/speakers"))
	bio := doc.Find("#speakers .bio")
	assert.Equal(t, "Chair", bio.Find("strong").Text())
	assert.Zero(t, bio.Find("script").Length())
}

func TestAPIListingReportsState(t *testing.T) {
	f := newFixture(t)
	f.client.FailWith(backend.OpSelect, backend.TableSpeakers, errors.New("timeout"))
	f.seed(t, backend.TableSponsors, backend.Row{"name": "Acme", "logo_url": "sponsor-images/a.png"})

	speakers := decodeResponse(t, f.get("/api/speakers"))
	data := speakers["data"].(map[string]any)
	assert.Equal(t, "fetch_failed", data["state"])
	assert.Equal(t, "timeout", data["error"])
	assert.Empty(t, data["items"])

	sponsors := decodeResponse(t, f.get("/api/sponsors"))
	data = sponsors["data"].(map[string]any)
	assert.Equal(t, "populated", data["state"])
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, storageBase+"/storage/v1/object/public/sponsor-images/a.png", items[0].(map[string]any)["logo_src"])

	posts := decodeResponse(t, f.get("/api/posts"))
	assert.Equal(t, "empty", posts["data"].(map[string]any)["state"])
}

func TestAdminRequiresCredentials(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.get("/admin").Code)
	assert.Equal(t, http.StatusUnauthorized, f.get("/api/admin/applications/mentorship").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/applications/mentorship", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	assert.Equal(t, http.StatusOK, f.do(adminRequest(http.MethodGet, "/admin", nil, "")).Code)
	assert.Equal(t, http.StatusOK, f.do(adminRequest(http.MethodGet, "/api/admin/applications/mentorship", nil, "")).Code)
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	f := newFixture(t, func(cfg *Config, _ *Deps) { cfg.AdminToken = "" })

	assert.Equal(t, http.StatusNotFound, f.get("/admin").Code)
	assert.Equal(t, http.StatusNotFound, f.do(adminRequest(http.MethodPost, "/api/admin/sponsors", jsonBody(t, SponsorRequest{Name: "x"}), "application/json")).Code)
	assert.Equal(t, http.StatusOK, f.get("/").Code)
}

func TestAPICreateSponsor(t *testing.T) {
	f := newFixture(t)

	rec := f.do(adminRequest(http.MethodPost, "/api/admin/sponsors", jsonBody(t, SponsorRequest{Name: "Acme"}), "application/json"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Please fill in all required fields", decodeResponse(t, rec)["error"])
	assert.Zero(t, f.client.Count(backend.TableSponsors))

	rec = f.do(adminRequest(http.MethodPost, "/api/admin/sponsors",
		jsonBody(t, SponsorRequest{Name: "Acme", LogoURL: "https://cdn.example/acme.png", Tier: "diamond"}), "application/json"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, f.client.Count(backend.TableSponsors))

	rec = f.do(adminRequest(http.MethodPost, "/api/admin/sponsors",
		jsonBody(t, SponsorRequest{Name: "Acme", LogoURL: "https://cdn.example/acme.png"}), "application/json"))
	require.Equal(t, http.StatusCreated, rec.Code)

	sponsors := f.server.deps.Catalog.ListSponsors(context.Background())
	require.Len(t, sponsors, 1)
	assert.Equal(t, content.TierSilver, sponsors[0].Tier)
}

func TestAPIRecordEndpointsRequireJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(adminRequest(http.MethodPost, "/api/admin/sponsors", bytes.NewBufferString("name=Acme"), "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAPIUpdateAndDeleteSpeaker(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableSpeakers, backend.Row{"id": "sp-1", "name": "Ada", "title": "Chair"})

	rec := f.do(adminRequest(http.MethodPut, "/api/admin/speakers/sp-1",
		jsonBody(t, SpeakerRequest{Name: "Ada Obi", Title: "Chair", Company: "Board Co"}), "application/json"))
	require.Equal(t, http.StatusOK, rec.Code)

	speaker, err := f.server.deps.Catalog.Speaker(context.Background(), "sp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", speaker.Name)
	assert.Equal(t, "Board Co", speaker.Company)
	assert.NotEmpty(t, speaker.UpdatedAt)

	rec = f.do(adminRequest(http.MethodPut, "/api/admin/speakers/missing",
		jsonBody(t, SpeakerRequest{Name: "Nobody"}), "application/json"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(adminRequest(http.MethodDelete, "/api/admin/speakers/sp-1", nil, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, f.client.Count(backend.TableSpeakers))

	rec = f.do(adminRequest(http.MethodDelete, "/api/admin/speakers/sp-1", nil, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIDeleteUnknownSponsorIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableSponsors, backend.Row{"id": "sp-1", "name": "Acme", "logo_url": "https://x/a.png"})

	rec := f.do(adminRequest(http.MethodDelete, "/api/admin/sponsors/missing", nil, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, f.client.Count(backend.TableSponsors))

	rec = f.do(adminRequest(http.MethodDelete, "/api/admin/sponsors/sp-1", nil, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, f.client.Count(backend.TableSponsors))
}

func TestAPIUpload(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, nil, multipartFile{field: "file", name: "logo.png", data: []byte("png-bytes")})
	rec := f.do(adminRequest(http.MethodPost, "/api/admin/uploads/sponsor", body, contentType))
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.Equal(t, storageBase+"/storage/v1/object/public/sponsor-images/1748764800000-logo.png", data["url"])
	stored, _, ok := f.client.Object(backend.BucketSponsorImages, "1748764800000-logo.png")
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(stored))

	body, contentType = multipartBody(t, nil, multipartFile{field: "file", name: "logo.png", data: []byte("again")})
	rec = f.do(adminRequest(http.MethodPost, "/api/admin/uploads/sponsor", body, contentType))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPIUploadRejectsMissingFileAndUnknownKind(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, map[string]string{"note": "x"})
	rec := f.do(adminRequest(http.MethodPost, "/api/admin/uploads/blog", body, contentType))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "No file provided", decodeResponse(t, rec)["error"])

	body, contentType = multipartBody(t, nil, multipartFile{field: "file", name: "a.png", data: []byte("x")})
	rec = f.do(adminRequest(http.MethodPost, "/api/admin/uploads/avatars", body, contentType))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIUploadTooLarge(t *testing.T) {
	f := newFixture(t)

	oversized := bytes.Repeat([]byte("x"), maxUploadBytes+1)
	body, contentType := multipartBody(t, nil, multipartFile{field: "file", name: "huge.png", data: oversized})
	rec := f.do(adminRequest(http.MethodPost, "/api/admin/uploads/blog", body, contentType))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	_, _, stored := f.client.Object(backend.BucketBlogImages, "1748764800000-huge.png")
	assert.False(t, stored)
}

func TestAPIUpdateApplicationStatus(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableMentorshipApplications, backend.Row{"id": "m-1", "full_name": "Kemi", "status": "pending"})

	rec := f.do(adminRequest(http.MethodPatch, "/api/admin/applications/mentorship/m-1/status",
		jsonBody(t, StatusRequest{Status: "approved"}), "application/json"))
	require.Equal(t, http.StatusOK, rec.Code)

	app, err := f.server.deps.Catalog.Application(context.Background(), content.KindMentorship, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "approved", app.Status)
	assert.Equal(t, "Kemi", app.Fields["full_name"])

	rec = f.do(adminRequest(http.MethodPatch, "/api/admin/applications/mentorship/m-1/status",
		jsonBody(t, StatusRequest{Status: "  "}), "application/json"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(adminRequest(http.MethodPatch, "/api/admin/applications/grants/m-1/status",
		jsonBody(t, StatusRequest{Status: "approved"}), "application/json"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIBackendFailureIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.client.FailWith(backend.OpUpdate, backend.TableAwardNominations, errors.New("JWT expired"))

	rec := f.do(adminRequest(http.MethodPatch, "/api/admin/applications/award/a-1/status",
		jsonBody(t, StatusRequest{Status: "shortlisted"}), "application/json"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "JWT expired", decodeResponse(t, rec)["error"])
}

func TestAdminSaveSponsorCreatesAndClearsForm(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":       "Acme",
		"tier":       "gold",
		"image_mode": "url",
		"image_url":  "https://cdn.example/acme.png",
	})
	rec := f.do(adminRequest(http.MethodPost, "/admin/sponsors", body, contentType))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/sponsors?saved=cleared", rec.Header().Get("Location"))

	sponsors := f.server.deps.Catalog.ListSponsors(context.Background())
	require.Len(t, sponsors, 1)
	assert.Equal(t, content.TierGold, sponsors[0].Tier)
	assert.Equal(t, "https://cdn.example/acme.png", sponsors[0].LogoURL)

	doc := document(t, f.do(adminRequest(http.MethodGet, "/admin/sponsors?saved=cleared", nil, "")))
	assert.Contains(t, doc.Find(".notice").Text(), "ready for the next entry")
	name, _ := doc.Find(`#sponsor-form input[name="name"]`).Attr("value")
	assert.Empty(t, name)
	assert.Equal(t, "silver", doc.Find(`#sponsor-form select[name="tier"] option[selected]`).AttrOr("value", ""))
}

func TestAdminSaveSponsorKeepsDraftOnValidationError(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, map[string]string{"name": "Acme", "image_mode": "upload"})
	rec := f.do(adminRequest(http.MethodPost, "/admin/sponsors", body, contentType))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	doc := document(t, rec)
	assert.Contains(t, doc.Find(".alert").Text(), "Please fill in all required fields")
	assert.Equal(t, "Acme", doc.Find(`#sponsor-form input[name="name"]`).AttrOr("value", ""))
	assert.Zero(t, f.client.Count(backend.TableSponsors))
}

func TestAdminSaveSponsorUploadsLogo(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{"name": "Acme", "image_mode": "upload"},
		multipartFile{field: "logo_file", name: "acme.png", data: []byte("logo")},
	)
	rec := f.do(adminRequest(http.MethodPost, "/admin/sponsors", body, contentType))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, _, ok := f.client.Object(backend.BucketSponsorImages, "1748764800000-acme.png")
	assert.True(t, ok)
	sponsors := f.server.deps.Catalog.ListSponsors(context.Background())
	require.Len(t, sponsors, 1)
	assert.Equal(t, storageBase+"/storage/v1/object/public/sponsor-images/1748764800000-acme.png", sponsors[0].LogoURL)
}

func TestAdminEditSponsorOpensPrefilledForm(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableSponsors, backend.Row{"id": "sp-9", "name": "Acme", "logo_url": "https://cdn.example/a.png", "tier": "platinum"})

	doc := document(t, f.do(adminRequest(http.MethodGet, "/admin/sponsors?edit=sp-9", nil, "")))
	form := doc.Find("#sponsor-form")
	assert.Equal(t, "sp-9", form.Find(`input[name="id"]`).AttrOr("value", ""))
	assert.Equal(t, "Acme", form.Find(`input[name="name"]`).AttrOr("value", ""))
	assert.Equal(t, "platinum", form.Find(`select[name="tier"] option[selected]`).AttrOr("value", ""))
	_, urlMode := form.Find(`input[name="image_mode"][value="url"]`).Attr("checked")
	assert.True(t, urlMode)

	body, contentType := multipartBody(t, map[string]string{
		"id":         "sp-9",
		"name":       "Acme Ltd",
		"tier":       "platinum",
		"image_mode": "upload",
	})
	rec := f.do(adminRequest(http.MethodPost, "/admin/sponsors", body, contentType))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/sponsors?saved=closed", rec.Header().Get("Location"))

	sponsor, err := f.server.deps.Catalog.Sponsor(context.Background(), "sp-9")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", sponsor.Name)
	assert.Equal(t, "https://cdn.example/a.png", sponsor.LogoURL)
}

func TestAdminSpeakerLifecycle(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{"name": "Ada", "title": "Chair", "image_mode": "upload"},
		multipartFile{field: "image_file", name: "ada.jpg", data: []byte("jpeg")},
	)
	rec := f.do(adminRequest(http.MethodPost, "/admin/speakers", body, contentType))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	speakers := f.server.deps.Catalog.Speakers(context.Background()).Items
	require.Len(t, speakers, 1)
	assert.Equal(t, storageBase+"/storage/v1/object/public/speaker-images/1748764800000-ada.jpg", speakers[0].ImageURL)

	doc := document(t, f.do(adminRequest(http.MethodGet, "/admin/speakers", nil, "")))
	assert.Equal(t, 1, doc.Find("#speaker-list tbody tr").Length())

	rec = f.do(adminRequest(http.MethodPost, "/admin/speakers/"+url.PathEscape(speakers[0].ID.String())+"/delete", nil, ""))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/speakers?saved=deleted", rec.Header().Get("Location"))
	assert.Zero(t, f.client.Count(backend.TableSpeakers))
}

func TestAdminApplicationsPage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableAwardNominations, backend.Row{"id": "a-1", "nominee_name": "Tunde", "category": "Board Excellence"})

	doc := document(t, f.do(adminRequest(http.MethodGet, "/admin/applications/award", nil, "")))
	assert.Equal(t, "Award Nominations", doc.Find("main h1").Text())
	app := doc.Find(`#applications .application[data-id="a-1"]`)
	require.Equal(t, 1, app.Length())
	assert.Contains(t, app.Find("dd").Text(), "Tunde")

	form := url.Values{"status": {"shortlisted"}}
	req := adminRequest(http.MethodPost, "/admin/applications/award/a-1/status", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	rec := f.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := f.server.deps.Catalog.Application(context.Background(), content.KindAward, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "shortlisted", got.Status)
}

func TestAdminIndexFlagsFailedFetches(t *testing.T) {
	f := newFixture(t)
	f.seed(t, backend.TableSponsors, backend.Row{"name": "Acme"}, backend.Row{"name": "Beta"})
	f.client.FailWith(backend.OpSelect, backend.TableMentorshipApplications, errors.New("boom"))

	doc := document(t, f.do(adminRequest(http.MethodGet, "/admin", nil, "")))
	assert.Equal(t, "2", doc.Find("#count-sponsors").Text())
	assert.Contains(t, doc.Find(".alert").Text(), "mentorship applications")
}

func TestAdminIndexListsFailuresInFixedOrder(t *testing.T) {
	f := newFixture(t)
	f.client.FailWith(backend.OpSelect, backend.TableAwardNominations, errors.New("boom"))
	f.client.FailWith(backend.OpSelect, backend.TableSpeakers, errors.New("boom"))
	f.client.FailWith(backend.OpSelect, backend.TableSponsors, errors.New("boom"))

	for i := 0; i < 10; i++ {
		doc := document(t, f.do(adminRequest(http.MethodGet, "/admin", nil, "")))
		assert.Equal(t, "Could not load: sponsors, speakers, award nominations",
			strings.TrimSpace(doc.Find("div.alert[role=alert]").Text()))
	}
}

func TestObjectRouteServesLocalUploads(t *testing.T) {
	store, err := blob.New(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	require.NoError(t, store.Upload(context.Background(), backend.BucketSpeakerImages, "1-ada.png", strings.NewReader("img"), "image/png"))

	f := newFixture(t, func(_ *Config, deps *Deps) { deps.Objects = store })

	rec := f.get("/storage/v1/object/public/speaker-images/1-ada.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "img", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get("/storage/v1/object/public/speaker-images/missing.png").Code)
	assert.Equal(t, http.StatusNotFound, f.get("/storage/v1/object/public/secrets/1-ada.png").Code)
}

func TestObjectRouteWithoutLocalStore(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.get("/storage/v1/object/public/speaker-images/a.png").Code)
}

func TestHealthAndStaticAssets(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeResponse(t, rec)["data"].(map[string]any)["status"])

	rec = f.get("/placeholder.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusOK, f.get("/static/site.css").Code)
}

func TestRequestIDAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewHTTPMetrics("summit_http", reg)
	require.NoError(t, err)
	f := newFixture(t, func(_ *Config, deps *Deps) {
		deps.HTTPMetrics = metrics
		deps.Gatherer = reg
	})

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = f.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `summit_http_requests_total{method="GET",route="/about",status="200"} 1`)
}

func TestMarkdownRenderIsCached(t *testing.T) {
	md := newMarkdown()
	first := md.render("*hi*")
	assert.Equal(t, "<p><em>hi</em></p>\n", string(first))
	assert.Equal(t, 1, md.cache.Len())
	assert.Equal(t, first, md.render("*hi*"))
	assert.Empty(t, md.render(""))
}
