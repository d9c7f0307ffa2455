package uploadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ministry-site/internal/domain/media"
	"ministry-site/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.igreja.test/" + key, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newRouter(t *testing.T, up *fakeUploader) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t, &media.Asset{})

	var h *Handler
	// a typed nil *fakeUploader would not disable uploads
	if up == nil {
		h = NewHandler(db, nil, nil)
	} else {
		h = NewHandler(db, up, nil)
	}
	h.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.POST("/uploads", h.Upload)
	r.GET("/uploads", h.List)
	return r, db
}

func upload(t *testing.T, r *gin.Engine, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	up := &fakeUploader{}
	r, db := newRouter(t, up)

	w := upload(t, r, "fachada.png", pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var asset media.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, "fachada.png", asset.Filename)
	assert.True(t, strings.HasPrefix(asset.Key, "uploads/2026/10/"))
	assert.True(t, strings.HasSuffix(asset.Key, ".png"))
	assert.Equal(t, "https://cdn.igreja.test/"+asset.Key, asset.URL)
	require.Len(t, up.keys, 1)

	var count int64
	require.NoError(t, db.Model(&media.Asset{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	assert.Equal(t, http.StatusOK, lw.Code)
	assert.Contains(t, lw.Body.String(), asset.Key)
}

func TestUploadRejects(t *testing.T) {
	up := &fakeUploader{}
	r, _ := newRouter(t, up)

	assert.Equal(t, http.StatusUnsupportedMediaType, upload(t, r, "notas.txt", []byte("apenas texto")).Code)

	req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	up.err = errors.New("bucket unavailable")
	assert.Equal(t, http.StatusBadGateway, upload(t, r, "a.png", pngHeader).Code)
	assert.Empty(t, up.keys)
}

func TestUploadDisabled(t *testing.T) {
	r, _ := newRouter(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, upload(t, r, "a.png", pngHeader).Code)
}
