package uploadsapi

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/media"
	"ministry-site/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MaxUploadSize = 10 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Handler struct {
	db       *gorm.DB
	uploader storage.Uploader
	log      *zap.Logger
	now      func() time.Time
}

// NewHandler returns an upload handler. A nil uploader disables uploads;
// requests then get 503.
func NewHandler(db *gorm.DB, uploader storage.Uploader, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{db: db, uploader: uploader, log: log, now: time.Now}
}

// POST /api/admin/uploads (multipart, field "file")
func (h *Handler) Upload(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Uploads are not configured"})
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", MaxUploadSize>>20)})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "details": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "details": err.Error()})
		return
	}
	if len(data) > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", MaxUploadSize>>20)})
		return
	}

	contentType := detectType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Only images are accepted", "details": contentType})
		return
	}

	key := fmt.Sprintf("uploads/%s/%s%s", h.now().UTC().Format("2006/01"), uuid.NewString(), ext)
	url, err := h.uploader.Put(c.Request.Context(), key, contentType, data)
	if err != nil {
		h.log.Error("upload failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store file"})
		return
	}

	asset := media.Asset{
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        int64(len(data)),
		Filename:    path.Base(fh.Filename),
		UploadedBy:  userID,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&asset).Error; err != nil {
		h.log.Error("record asset failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record file"})
		return
	}

	h.log.Info("asset uploaded", zap.String("key", key), zap.Int64("size", asset.Size), zap.Uint("user_id", userID))
	c.JSON(http.StatusCreated, asset)
}

// GET /api/admin/uploads
func (h *Handler) List(c *gin.Context) {
	var assets []media.Asset
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(200).
		Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load uploads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

func detectType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}
