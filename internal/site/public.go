package site

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"summit/internal/blob"
	"summit/internal/content"
	"summit/internal/logging"
)

const featuredSpeakers = 4

type homeData struct {
	Speakers []content.Speaker
	Sponsors []content.Sponsor
	Posts    []content.BlogPost
}

// Public pages render failed fetches exactly like empty collections.
func (s *Server) handleHome(c *gin.Context) {
	var (
		speakers content.Listing[content.Speaker]
		sponsors content.Listing[content.Sponsor]
		posts    content.Listing[content.BlogPost]
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		speakers = s.deps.Catalog.Speakers(ctx)
		return nil
	})
	g.Go(func() error {
		sponsors = s.deps.Catalog.Sponsors(ctx)
		return nil
	})
	g.Go(func() error {
		posts = s.deps.Catalog.PublishedPosts(ctx)
		return nil
	})
	_ = g.Wait()

	data := homeData{
		Speakers: speakers.OrEmpty(),
		Sponsors: sponsors.OrEmpty(),
		Posts:    posts.OrEmpty(),
	}
	if len(data.Speakers) > featuredSpeakers {
		data.Speakers = data.Speakers[:featuredSpeakers]
	}
	if len(data.Posts) > 3 {
		data.Posts = data.Posts[:3]
	}
	s.render(c, http.StatusOK, "home", s.newView(c, "", data))
}

func (s *Server) handleAbout(c *gin.Context) {
	s.render(c, http.StatusOK, "about", s.newView(c, "About", nil))
}

func (s *Server) handleSpeakers(c *gin.Context) {
	speakers := s.deps.Catalog.Speakers(c.Request.Context()).OrEmpty()
	s.render(c, http.StatusOK, "speakers", s.newView(c, "Speakers", speakers))
}

type sponsorsData struct {
	Sponsors []content.Sponsor
	Packages []content.TierPackage
}

func (s *Server) handleSponsors(c *gin.Context) {
	data := sponsorsData{
		Sponsors: s.deps.Catalog.ListSponsors(c.Request.Context()),
		Packages: content.TierPackages(),
	}
	s.render(c, http.StatusOK, "sponsors", s.newView(c, "Sponsors", data))
}

func (s *Server) handleBlog(c *gin.Context) {
	posts := s.deps.Catalog.PublishedPosts(c.Request.Context()).OrEmpty()
	s.render(c, http.StatusOK, "blog", s.newView(c, "Blog", posts))
}

func (s *Server) handlePlaceholder(c *gin.Context) {
	data, err := assets.ReadFile("static/placeholder.svg")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", data)
}

// handleObject serves uploads kept in local storage at their public path.
func (s *Server) handleObject(c *gin.Context) {
	if s.deps.Objects == nil {
		c.String(http.StatusNotFound, "Object not found")
		return
	}
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	f, err := s.deps.Objects.Open(bucket, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, blob.ErrBucketNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			c.String(http.StatusNotFound, "Object not found")
			return
		}
		logging.FromContext(c.Request.Context(), s.logger).Error("open %s/%s: %v", bucket, key, err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "Object not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
