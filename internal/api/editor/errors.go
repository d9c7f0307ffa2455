package editorapi

import (
	"errors"
	"net/http"

	"ministry-site/internal/domain/content"
	"ministry-site/internal/live"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, live.ErrSessionNotFound), errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, live.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, live.ErrNotEditing),
		errors.Is(err, live.ErrTargetBusy),
		errors.Is(err, live.ErrWrongTarget),
		errors.Is(err, live.ErrNotInlineEditable),
		errors.Is(err, live.ErrUseInlineEditor),
		errors.Is(err, content.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, live.ErrMalformedPayload), errors.Is(err, live.ErrNotOnPage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, live.ErrNothingToSave), errors.Is(err, content.ErrInvalidOrder):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail answers an editor error. When the session survived the failure (a
// save that the store rejected) it is returned too, so the client can show
// the kept draft and the error notice. Unexpected errors are logged.
func (h *Handler) fail(c *gin.Context, err error, s *live.Session) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("editor request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("session_id", c.Param("id")),
			zap.Error(err))
	}
	body := gin.H{"error": err.Error()}
	if s != nil {
		body["session"] = s
	}
	c.JSON(status, body)
}
