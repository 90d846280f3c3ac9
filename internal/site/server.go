// Package site serves the summit website: the public pages, the admin pages,
// the JSON API and locally stored uploads.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"summit/internal/admin"
	"summit/internal/backend"
	"summit/internal/content"
	"summit/internal/logging"
	"summit/internal/observability"
)

// Config configures the HTTP surface.
type Config struct {
	Addr           string
	PublicURL      string
	Debug          bool
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	SiteName       string
	AdminToken     string
	StorageBaseURL string
	Placeholder    string
}

// ObjectStore opens locally stored uploads for serving.
type ObjectStore interface {
	Open(bucket, key string) (*os.File, error)
}

// Deps are the collaborators the server renders and mutates through.
type Deps struct {
	Catalog     *content.Catalog
	Actions     *admin.Actions
	Objects     ObjectStore // nil when uploads live on the hosted backend
	Gatherer    prometheus.Gatherer
	HTTPMetrics *observability.HTTPMetrics
	Tracer      *observability.TracerProvider
	Logger      logging.Logger
}

// Server is the site's HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
	pages      *renderer
	logo       content.LogoResolver
	logger     logging.Logger
	startTime  time.Time
}

// NewServer builds the router.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Catalog == nil || deps.Actions == nil {
		return nil, errors.New("site requires a catalog and admin actions")
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Boardroom Summit"
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = content.DefaultPlaceholder
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		deps:      deps,
		engine:    gin.New(),
		logo:      content.LogoResolver{BaseURL: cfg.StorageBaseURL, Placeholder: cfg.Placeholder},
		logger:    logging.OrNop(deps.Logger),
		startTime: time.Now(),
	}

	pages, err := newRenderer(s.templateFuncs())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	s.pages = pages

	s.engine.Use(recoveryMiddleware(s.logger))
	s.engine.Use(observeMiddleware(deps.Tracer, deps.HTTPMetrics, s.logger))

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleHome)
	s.engine.GET("/about", s.handleAbout)
	s.engine.GET("/speakers", s.handleSpeakers)
	s.engine.GET("/sponsors", s.handleSponsors)
	s.engine.GET("/blog", s.handleBlog)
	s.engine.GET("/placeholder.svg", s.handlePlaceholder)
	s.engine.StaticFS("/static", staticFS())
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET(backend.PublicPathPrefix+":bucket/*key", s.handleObject)
	if s.deps.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.engine.Group("/api")
	api.Use(s.corsMiddleware())
	api.GET("/sponsors", s.apiSponsors)
	api.GET("/speakers", s.apiSpeakers)
	api.GET("/posts", s.apiPosts)

	if !s.adminEnabled() {
		return
	}

	adminAPI := api.Group("/admin", bearerAuth(s.cfg.AdminToken))
	adminAPI.POST("/uploads/:kind", s.apiUpload)
	adminAPI.GET("/applications/:kind", s.apiApplications)

	records := adminAPI.Group("", requireJSON())
	records.POST("/sponsors", s.apiCreateSponsor)
	records.PUT("/sponsors/:id", s.apiUpdateSponsor)
	records.DELETE("/sponsors/:id", s.apiDeleteSponsor)
	records.POST("/speakers", s.apiCreateSpeaker)
	records.PUT("/speakers/:id", s.apiUpdateSpeaker)
	records.DELETE("/speakers/:id", s.apiDeleteSpeaker)
	records.PATCH("/applications/:kind/:id/status", s.apiUpdateStatus)

	pages := s.engine.Group("/admin", gin.BasicAuth(gin.Accounts{"admin": s.cfg.AdminToken}))
	pages.GET("", s.adminIndex)
	pages.GET("/speakers", s.adminSpeakers)
	pages.POST("/speakers", s.adminSaveSpeaker)
	pages.POST("/speakers/:id/delete", s.adminDeleteSpeaker)
	pages.GET("/sponsors", s.adminSponsors)
	pages.POST("/sponsors", s.adminSaveSponsor)
	pages.POST("/sponsors/:id/delete", s.adminDeleteSponsor)
	pages.GET("/applications/:kind", s.adminApplications)
	pages.POST("/applications/:kind/:id/status", s.adminUpdateStatus)
}

func (s *Server) adminEnabled() bool {
	return s.cfg.AdminToken != ""
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	return cors.New(corsConfig)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting %s on %s", s.cfg.SiteName, s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Error shutting down HTTP server: %v", err)
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		},
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/api"
}
