package site

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"summit/internal/content"
	"summit/internal/logging"
)

//go:embed templates/*.html static/*
var assets embed.FS

var pageNames = []string{
	"home",
	"about",
	"speakers",
	"sponsors",
	"blog",
	"admin_index",
	"admin_speakers",
	"admin_sponsors",
	"admin_applications",
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(funcs template.FuncMap) (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(assets,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, err
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// view is the data every page template receives.
type view struct {
	SiteName     string
	Title        string
	Path         string
	AdminArea    bool
	AdminEnabled bool
	Alert        string
	Notice       string
	Data         any
}

func (s *Server) newView(c *gin.Context, title string, data any) view {
	return view{
		SiteName:     s.cfg.SiteName,
		Title:        title,
		Path:         c.Request.URL.Path,
		AdminEnabled: s.adminEnabled(),
		Data:         data,
	}
}

// render executes page into a buffer first so a template error never leaves
// a half-written response.
func (s *Server) render(c *gin.Context, status int, page string, v view) {
	tpl, ok := s.pages.pages[page]
	if !ok {
		c.String(http.StatusInternalServerError, "unknown page")
		return
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		logging.FromContext(c.Request.Context(), s.logger).Error("render %s: %v", page, err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) templateFuncs() template.FuncMap {
	md := newMarkdown()
	return template.FuncMap{
		"formatDate": content.FormatDate,
		"readTime":   content.EstimateReadTime,
		"logo":       s.logo.Resolve,
		"image": func(url string) string {
			if url == "" {
				return s.cfg.Placeholder
			}
			return url
		},
		"markdown": md.render,
		"year":     func() int { return time.Now().Year() },
		"tiers":    content.Tiers,
	}
}

// markdownCacheSize bounds the rendered bios kept in memory.
const markdownCacheSize = 512

type markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, template.HTML]
}

func newMarkdown() *markdown {
	cache, _ := lru.New[string, template.HTML](markdownCacheSize)
	return &markdown{
		md:     goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy: bluemonday.UGCPolicy(),
		cache:  cache,
	}
}

// render converts admin-entered Markdown into sanitized HTML.
func (m *markdown) render(src string) template.HTML {
	if src == "" {
		return ""
	}
	if html, ok := m.cache.Get(src); ok {
		return html
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	html := template.HTML(m.policy.SanitizeBytes(buf.Bytes()))
	m.cache.Add(src, html)
	return html
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
