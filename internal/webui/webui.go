// Package webui serves the single-page browse and search interface.
package webui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
	"github.com/taigrr/obsidian-search/internal/api/middleware"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Page holds the values rendered into the page.
type Page struct {
	Root     string
	AllowAny bool
	LinkMode string
	Version  string
}

type UI struct {
	tmpl   *template.Template
	page   Page
	logger zerolog.Logger
}

// New parses the embedded template.
func New(page Page, logger zerolog.Logger) (*UI, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse ui template: %w", err)
	}
	return &UI{tmpl: tmpl, page: page, logger: logger}, nil
}

// Register adds the UI route to container.
func (u *UI) Register(container *restful.Container) {
	ws := new(restful.WebService)
	ws.Path("/").Produces("text/html")
	ws.Route(ws.GET("/").To(u.Index).Doc("Browse and search UI"))
	container.Add(ws)
}

// Index renders the page.
func (u *UI) Index(req *restful.Request, resp *restful.Response) {
	var buf bytes.Buffer
	if err := u.tmpl.Execute(&buf, u.page); err != nil {
		u.logger.Error().Err(err).Msg("Failed to render ui")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	resp.Header().Set("Content-Type", "text/html; charset=utf-8")
	resp.WriteHeader(http.StatusOK)
	resp.Write(buf.Bytes())
}
