package editorapi

import (
	"bytes"
	"net/http"

	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/live"
	"ministry-site/internal/render"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes edit sessions over HTTP. One session backs one editor
// page view; the client creates it on mount and deletes it on unmount.
type Handler struct {
	editor   *live.Editor
	renderer *render.Renderer
	log      *zap.Logger
}

func NewHandler(editor *live.Editor, renderer *render.Renderer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{editor: editor, renderer: renderer, log: log}
}

func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	g := rg.Group("/sessions")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/page", h.Page)
	g.POST("/:id/edit-mode", h.SetEditMode)

	g.POST("/:id/inline/:blockId/begin", h.BeginInline)
	g.PUT("/:id/inline/:blockId/draft", h.UpdateDraft)
	g.POST("/:id/inline/:blockId/save", h.SaveInline)
	g.POST("/:id/inline/:blockId/cancel", h.CancelInline)

	g.POST("/:id/dialog/:blockId/open", h.OpenDialog)
	g.POST("/:id/dialog/:blockId/save", h.SaveDialog)
	g.POST("/:id/dialog/:blockId/cancel", h.CancelDialog)

	g.POST("/:id/sections/move", h.MoveSection)
	g.POST("/:id/sections/save", h.SaveOrder)
}

// identity re-reads the caller's policy so a revoked editor is refused
// even inside an open session.
func identity(c *gin.Context) (live.Identity, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return live.Identity{}, false
	}
	policy, _ := middleware.LoadPolicy(c)
	return live.Identity{UserID: userID, CanEdit: policy.Allows(access.CapEditSite)}, true
}

type CreateSessionRequest struct {
	Slug string `json:"slug"`
}

// POST /api/editor/sessions
func (h *Handler) Create(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}
	if req.Slug == "" {
		req.Slug = content.HomeSlug
	}

	s, page, err := h.editor.Open(c.Request.Context(), who, req.Slug)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s, "page": page})
}

// GET /api/editor/sessions/:id
func (h *Handler) Get(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, err := h.editor.Session(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// DELETE /api/editor/sessions/:id
func (h *Handler) Delete(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	if err := h.editor.Close(c.Request.Context(), who, c.Param("id")); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

type EditModeRequest struct {
	On *bool `json:"on" binding:"required"`
}

// POST /api/editor/sessions/:id/edit-mode
func (h *Handler) SetEditMode(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req EditModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	s, err := h.editor.SetEditMode(c.Request.Context(), who, c.Param("id"), *req.On)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// GET /api/editor/sessions/:id/page renders the page as this session sees
// it: working order, drafts and edit affordances.
func (h *Handler) Page(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	s, page, drafts, err := h.editor.PageView(ctx, who, c.Param("id"))

	var res content.LoadResult
	var v render.View
	switch {
	case err == nil:
		res = content.LoadedResult(page)
		v = render.View{
			CanEdit:      s.CanEdit && who.CanEdit,
			EditMode:     s.EditMode,
			SessionID:    s.ID,
			InlineTarget: s.InlineTarget,
			DialogTarget: s.DialogTarget,
			Drafts:       drafts,
			Order:        s.VisibleOrder(),
			Unsaved:      s.Unsaved,
			Notice:       s.LastError,
		}
	case statusFor(err) != http.StatusInternalServerError:
		h.fail(c, err, nil)
		return
	default:
		h.log.Error("editor page load failed", zap.String("session_id", c.Param("id")), zap.Error(err))
		res = content.FailedResult(err)
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderPage(ctx, &buf, res, v); err != nil {
		h.log.Error("render editor page failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// POST /api/editor/sessions/:id/inline/:blockId/begin
func (h *Handler) BeginInline(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, err := h.editor.BeginInline(c.Request.Context(), who, c.Param("id"), c.Param("blockId"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

type DraftRequest struct {
	Text string `json:"text"`
}

// PUT /api/editor/sessions/:id/inline/:blockId/draft
func (h *Handler) UpdateDraft(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	s, err := h.editor.UpdateDraft(c.Request.Context(), who, c.Param("id"), c.Param("blockId"), req.Text)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

type SaveInlineRequest struct {
	// Text overrides the stored draft when present.
	Text    *string `json:"text"`
	Version *int    `json:"version"`
}

// POST /api/editor/sessions/:id/inline/:blockId/save
func (h *Handler) SaveInline(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req SaveInlineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}
	s, b, err := h.editor.SaveInline(c.Request.Context(), who, c.Param("id"), c.Param("blockId"), req.Text, req.Version)
	if err != nil {
		h.fail(c, err, s)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "block": b})
}

// POST /api/editor/sessions/:id/inline/:blockId/cancel
func (h *Handler) CancelInline(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, err := h.editor.CancelInline(c.Request.Context(), who, c.Param("id"), c.Param("blockId"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// POST /api/editor/sessions/:id/dialog/:blockId/open
func (h *Handler) OpenDialog(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, b, err := h.editor.OpenDialog(c.Request.Context(), who, c.Param("id"), c.Param("blockId"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "block": b})
}

// SaveDialogRequest carries either the structured form fields in Content or
// the text of the raw JSON editor in Raw. Raw wins when both are set.
type SaveDialogRequest struct {
	Content content.Payload `json:"content"`
	Raw     string          `json:"raw"`
	Version *int            `json:"version"`
}

// POST /api/editor/sessions/:id/dialog/:blockId/save
func (h *Handler) SaveDialog(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req SaveDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	payload := req.Content
	if req.Raw != "" {
		p, err := live.ParsePayload([]byte(req.Raw))
		if err != nil {
			h.fail(c, err, nil)
			return
		}
		payload = p
	}
	if payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or raw is required"})
		return
	}

	s, b, err := h.editor.SaveDialog(c.Request.Context(), who, c.Param("id"), c.Param("blockId"), payload, req.Version)
	if err != nil {
		h.fail(c, err, s)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "block": b})
}

// POST /api/editor/sessions/:id/dialog/:blockId/cancel
func (h *Handler) CancelDialog(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, err := h.editor.CancelDialog(c.Request.Context(), who, c.Param("id"), c.Param("blockId"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

type MoveRequest struct {
	ActiveID string `json:"active_id" binding:"required"`
	OverID   string `json:"over_id" binding:"required"`
}

// POST /api/editor/sessions/:id/sections/move
func (h *Handler) MoveSection(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	s, err := h.editor.MoveSection(c.Request.Context(), who, c.Param("id"), req.ActiveID, req.OverID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// POST /api/editor/sessions/:id/sections/save
func (h *Handler) SaveOrder(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	s, n, err := h.editor.SaveOrder(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		h.fail(c, err, s)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "updated_count": n})
}
