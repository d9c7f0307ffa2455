package siteapi

import (
	"bytes"
	"errors"
	"net/http"

	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/render"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store    *content.Store
	renderer *render.Renderer
	log      *zap.Logger
}

func NewHandler(store *content.Store, renderer *render.Renderer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, renderer: renderer, log: log}
}

func (h *Handler) RegisterRoutes(r gin.IRouter, api gin.IRouter) {
	r.GET("/", middleware.OptionalAuth(), h.Home)
	r.GET("/p/:slug", middleware.OptionalAuth(), h.Page)
	api.GET("/pages/:slug", h.PageJSON)
}

// GET /
func (h *Handler) Home(c *gin.Context) {
	h.servePage(c, content.HomeSlug)
}

// GET /p/:slug
func (h *Handler) Page(c *gin.Context) {
	h.servePage(c, c.Param("slug"))
}

func (h *Handler) servePage(c *gin.Context, slug string) {
	var v render.View
	if policy, ok := middleware.LoadPolicy(c); ok {
		v.CanEdit = policy.Allows(access.CapEditSite)
	}

	var res content.LoadResult
	page, err := h.store.LoadPublishedPage(c.Request.Context(), slug)
	switch {
	case err == nil:
		res = content.LoadedResult(page)
	case errors.Is(err, content.ErrNotFound) && slug == content.HomeSlug:
		// an empty site still has a front page
		res = content.FailedResult(err)
	case errors.Is(err, content.ErrNotFound):
		h.writeHTML(c, http.StatusNotFound, []byte(notFoundHTML))
		return
	default:
		h.log.Error("load page failed", zap.String("slug", slug), zap.Error(err))
		res = content.FailedResult(err)
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderPage(c.Request.Context(), &buf, res, v); err != nil {
		h.log.Error("render page failed", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	h.writeHTML(c, http.StatusOK, buf.Bytes())
}

func (h *Handler) writeHTML(c *gin.Context, status int, body []byte) {
	c.Data(status, "text/html; charset=utf-8", body)
}

const notFoundHTML = `<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8"><title>Página não encontrada</title></head><body><main><h1>Página não encontrada</h1><p><a href="/">Voltar ao início</a></p></main></body></html>`

// GET /api/pages/:slug
func (h *Handler) PageJSON(c *gin.Context) {
	slug := c.Param("slug")
	page, err := h.store.LoadPublishedPage(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		h.log.Error("load page failed", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page"})
		return
	}
	c.JSON(http.StatusOK, toPageDTO(page))
}
