package contentapi

import (
	"net/http"

	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SaveBlockRequest struct {
	Content content.Payload `json:"content" binding:"required"`
	// Version is the block version the client edited. Omit it for
	// last-write-wins.
	Version *int `json:"version"`
}

// PUT /api/blocks/:id/content
func (h *Handler) SaveBlockContent(c *gin.Context) {
	var req SaveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	b, err := h.store.SaveBlockContent(c.Request.Context(), c.Param("id"), req.Content, req.Version)
	if err != nil {
		storeError(c, h.log, "Failed to save block", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type ReorderSectionsRequest struct {
	OrderUpdates []content.OrderUpdate `json:"orderUpdates" binding:"required,dive"`
}

// POST /functions/reorder-sections
//
// Applies a full section order in one transaction. Any invalid entry
// rejects the whole batch.
func (h *Handler) ReorderSections(c *gin.Context) {
	var req ReorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "orderUpdates é obrigatório", "details": err.Error()})
		return
	}

	n, err := h.store.SaveSectionOrder(c.Request.Context(), req.OrderUpdates)
	if err != nil {
		h.log.Warn("reorder sections failed", zap.Int("entries", len(req.OrderUpdates)), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	h.log.Info("sections reordered", zap.Int("updated", n), zap.Uint("user_id", userID))
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Ordem das seções atualizada com sucesso",
		"updated_count": n,
	})
}
