package contentapi

import (
	"net/http"
	"strings"

	"ministry-site/internal/domain/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the persistence endpoints and the page administration
// routes. Every route here requires the edit_site capability; the router
// installs the check.
type Handler struct {
	store *content.Store
	log   *zap.Logger
}

func NewHandler(store *content.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// RegisterRoutes mounts the bridge on api and functions and the page
// administration under admin.
func (h *Handler) RegisterRoutes(api, functions, admin gin.IRouter) {
	api.PUT("/blocks/:id/content", h.SaveBlockContent)
	functions.POST("/reorder-sections", h.ReorderSections)

	admin.GET("/pages", h.ListPages)
	admin.POST("/pages", h.CreatePage)
	admin.POST("/pages/seed", h.SeedPage)
	admin.GET("/pages/:slug", h.GetPage)
	admin.PATCH("/pages/:slug", h.UpdatePage)
	admin.POST("/pages/:slug/sections", h.CreateSection)
	admin.PATCH("/sections/:id", h.UpdateSection)
	admin.POST("/sections/:id/blocks", h.CreateBlock)
	admin.PUT("/sections/:id/blocks/order", h.ReorderBlocks)
}

type PageSummary struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// GET /api/admin/pages
func (h *Handler) ListPages(c *gin.Context) {
	pages, err := h.store.ListPages(c.Request.Context())
	if err != nil {
		storeError(c, h.log, "Failed to load pages", err)
		return
	}
	out := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageSummary{ID: p.ID, Slug: p.Slug, Title: p.Title, Status: p.Status})
	}
	c.JSON(http.StatusOK, gin.H{"pages": out})
}

// GET /api/admin/pages/:slug returns the page with draft sections included.
func (h *Handler) GetPage(c *gin.Context) {
	p, err := h.store.LoadPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		storeError(c, h.log, "Failed to load page", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type CreatePageRequest struct {
	Slug            string `json:"slug"`
	Title           string `json:"title" binding:"required"`
	MetaDescription string `json:"meta_description"`
	Status          string `json:"status"`
}

// POST /api/admin/pages
func (h *Handler) CreatePage(c *gin.Context) {
	var req CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	p, err := h.store.CreatePage(c.Request.Context(), content.PageInput{
		Slug:            req.Slug,
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		Status:          req.Status,
	})
	if err != nil {
		storeError(c, h.log, "Failed to create page", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type UpdatePageRequest struct {
	Title           *string `json:"title"`
	MetaDescription *string `json:"meta_description"`
	Status          *string `json:"status"`
}

// PATCH /api/admin/pages/:slug
//
// Pages are never deleted; setting status to draft takes one offline.
func (h *Handler) UpdatePage(c *gin.Context) {
	var req UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	current, err := h.store.LoadPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		storeError(c, h.log, "Failed to load page", err)
		return
	}
	p, err := h.store.UpdatePage(c.Request.Context(), current.ID, content.PagePatch{
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		Status:          req.Status,
	})
	if err != nil {
		storeError(c, h.log, "Failed to update page", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type SeedPageRequest struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// POST /api/admin/pages/seed copies the default layout into a new draft
// page. Without a slug the home page is seeded.
func (h *Handler) SeedPage(c *gin.Context) {
	var req SeedPageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}

	layout, err := content.DefaultLayout()
	if err != nil {
		storeError(c, h.log, "Failed to load default layout", err)
		return
	}
	if s := strings.TrimSpace(req.Slug); s != "" {
		layout.Slug = s
	}
	if t := strings.TrimSpace(req.Title); t != "" {
		layout.Title = t
	}

	p, err := h.store.SeedPage(c.Request.Context(), layout)
	if err != nil {
		storeError(c, h.log, "Failed to seed page", err)
		return
	}
	h.log.Info("page seeded", zap.String("slug", p.Slug), zap.Int("sections", len(p.Sections)))
	c.JSON(http.StatusCreated, p)
}

type CreateSectionRequest struct {
	Type   string `json:"type" binding:"required"`
	Status string `json:"status"`
	Order  *int   `json:"order"`
}

// POST /api/admin/pages/:slug/sections
func (h *Handler) CreateSection(c *gin.Context) {
	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	page, err := h.store.LoadPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		storeError(c, h.log, "Failed to load page", err)
		return
	}
	s, err := h.store.CreateSection(c.Request.Context(), page.ID, content.SectionInput{
		Type:   req.Type,
		Status: req.Status,
		Order:  req.Order,
	})
	if err != nil {
		storeError(c, h.log, "Failed to create section", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

type UpdateSectionRequest struct {
	Type   *string `json:"type"`
	Status *string `json:"status"`
}

// PATCH /api/admin/sections/:id
func (h *Handler) UpdateSection(c *gin.Context) {
	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	s, err := h.store.UpdateSection(c.Request.Context(), c.Param("id"), content.SectionPatch{
		Type:   req.Type,
		Status: req.Status,
	})
	if err != nil {
		storeError(c, h.log, "Failed to update section", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type CreateBlockRequest struct {
	Type    string          `json:"type" binding:"required"`
	Content content.Payload `json:"content"`
	Order   *int            `json:"order"`
}

// POST /api/admin/sections/:id/blocks
func (h *Handler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	b, err := h.store.CreateBlock(c.Request.Context(), c.Param("id"), content.BlockInput{
		Type:    req.Type,
		Content: req.Content,
		Order:   req.Order,
	})
	if err != nil {
		storeError(c, h.log, "Failed to create block", err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type ReorderBlocksRequest struct {
	BlockIDs []string `json:"block_ids" binding:"required"`
}

// PUT /api/admin/sections/:id/blocks/order
func (h *Handler) ReorderBlocks(c *gin.Context) {
	var req ReorderBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := h.store.ReorderBlocks(c.Request.Context(), c.Param("id"), req.BlockIDs); err != nil {
		storeError(c, h.log, "Failed to reorder blocks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated_count": len(req.BlockIDs)})
}
