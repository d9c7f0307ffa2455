package worshipapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/worship"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *worship.Service
	log *zap.Logger
}

func NewHandler(svc *worship.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, worship.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, worship.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, worship.ErrInvalidAnswer), errors.Is(err, worship.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg, "details": err.Error()})
}

func mustUserID(c *gin.Context) (uint, bool) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return uid, true
}

type ConveneRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// POST /functions/convene-team
//
// Notifies every pending member of the event. Repeating the call notifies
// nobody twice.
func (h *Handler) ConveneTeam(c *gin.Context) {
	var req ConveneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "event_id é obrigatório"})
		return
	}

	n, err := h.svc.Convene(c.Request.Context(), req.EventID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("convene team failed", zap.String("event_id", req.EventID), zap.Error(err))
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg := fmt.Sprintf("%d membros notificados", n)
	if n == 0 {
		msg = "Nenhum membro pendente para notificar"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "notified": n})
}

// POST /functions/respond-convocation
func (h *Handler) RespondConvocation(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req worship.RespondInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "schedule_member_id e answer são obrigatórios"})
		return
	}

	res, err := h.svc.Respond(c.Request.Context(), userID, req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("respond convocation failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg := "Participação confirmada"
	if res.Status == worship.StatusDeclined {
		msg = "Participação recusada"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "data": res})
}

// GET /api/events?from=2026-01-02T15:04:05Z
func (h *Handler) ListEvents(c *gin.Context) {
	from := time.Now()
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from", "details": err.Error()})
			return
		}
		from = t
	}
	events, err := h.svc.ListEvents(c.Request.Context(), from)
	if err != nil {
		h.fail(c, "Failed to load events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GET /api/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	e, err := h.svc.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to load event", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// POST /api/events
func (h *Handler) CreateEvent(c *gin.Context) {
	var req worship.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.LeaderID == 0 {
		req.LeaderID, _ = middleware.CurrentUserID(c)
	}
	e, err := h.svc.CreateEvent(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "Failed to create event", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// POST /api/events/:id/members
func (h *Handler) AddMember(c *gin.Context) {
	var req worship.MemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	m, err := h.svc.AddMember(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, "Failed to schedule member", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// DELETE /api/events/:id/members/:memberId
func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("memberId")); err != nil {
		h.fail(c, "Failed to remove member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/me/schedules
func (h *Handler) MySchedules(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	out, err := h.svc.MySchedules(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "Failed to load schedules", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

// GET /api/notifications?unread=true
func (h *Handler) Notifications(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	out, err := h.svc.Notifications(c.Request.Context(), userID, c.Query("unread") == "true")
	if err != nil {
		h.fail(c, "Failed to load notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// POST /api/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, "Failed to update notification", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
