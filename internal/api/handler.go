// Package api exposes the vault operations as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
	"github.com/taigrr/obsidian-search/internal/api/middleware"
	"github.com/taigrr/obsidian-search/internal/types"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// Vault is the subset of the core the handlers call.
type Vault interface {
	ListDirectory(requested string) (types.Listing, error)
	SearchVault(ctx context.Context, query, scope string) ([]types.SearchResult, error)
	ResolveDeepLink(notePath string) (string, error)
	ReadNote(requested string) (types.NoteView, error)
}

type (
	HealthResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}

	SearchResponse struct {
		Query   string               `json:"query"`
		Scope   string               `json:"scope"`
		Count   int                  `json:"count"`
		Results []types.SearchResult `json:"results"`
	}

	LinkResponse struct {
		Path string `json:"path"`
		Link string `json:"link"`
	}
)

type Handler struct {
	vault   Vault
	version string
	logger  zerolog.Logger
}

func NewHandler(v Vault, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		vault:   v,
		version: version,
		logger:  logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// GET /api/v1/ls?path=
func (h *Handler) List(req *restful.Request, resp *restful.Response) {
	path := req.QueryParameter("path")

	listing, err := h.vault.ListDirectory(path)
	if err != nil {
		h.fail(resp, err, "Failed to list directory", path)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, listing)
}

// GET /api/v1/search?q=&scope=&limit=
func (h *Handler) Search(req *restful.Request, resp *restful.Response) {
	query := strings.TrimSpace(req.QueryParameter("q"))
	scope := req.QueryParameter("scope")

	limit := 0
	if raw := req.QueryParameter("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			middleware.HandleError(resp, fmt.Errorf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := h.vault.SearchVault(req.Request.Context(), query, scope)
	if err != nil {
		h.fail(resp, err, "Search failed", scope)
		return
	}

	count := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	h.logger.Info().
		Str("query", query).
		Str("scope", scope).
		Int("count", count).
		Msg("Search complete")

	resp.WriteHeaderAndEntity(http.StatusOK, SearchResponse{
		Query:   query,
		Scope:   scope,
		Count:   count,
		Results: results,
	})
}

// GET /api/v1/link?path=
func (h *Handler) Link(req *restful.Request, resp *restful.Response) {
	path := req.QueryParameter("path")

	link, err := h.vault.ResolveDeepLink(path)
	if err != nil {
		h.fail(resp, err, "Failed to build link", path)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, LinkResponse{Path: path, Link: link})
}

// GET /api/v1/note?path=
func (h *Handler) Note(req *restful.Request, resp *restful.Response) {
	path := req.QueryParameter("path")
	if strings.TrimSpace(path) == "" {
		middleware.HandleError(resp, errors.New("path is required"), http.StatusBadRequest)
		return
	}

	view, err := h.vault.ReadNote(path)
	if err != nil {
		h.fail(resp, err, "Failed to read note", path)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, view)
}

func (h *Handler) fail(resp *restful.Response, err error, msg, path string) {
	status := StatusFor(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Str("path", path).Str("kind", vaulterr.Kind(err)).Msg(msg)
	middleware.HandleError(resp, err, status)
}

// StatusFor maps a core error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, vaulterr.ErrPathTraversal):
		return http.StatusForbidden
	case errors.Is(err, vaulterr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vaulterr.ErrNotADirectory):
		return http.StatusBadRequest
	case errors.Is(err, vaulterr.ErrLinkUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vaulterr.ErrUnreadableEntry):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
