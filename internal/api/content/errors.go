package contentapi

import (
	"errors"
	"net/http"

	"ministry-site/internal/domain/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrVersionConflict), errors.Is(err, content.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, content.ErrInvalidOrder), errors.Is(err, content.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// storeError logs a content store failure and answers with the matching
// status. Unexpected errors are logged at error level.
func storeError(c *gin.Context, log *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		log.Info(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg, "details": err.Error()})
}
