package editorapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/internal/api/auth"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/users"
	"ministry-site/internal/live"
	"ministry-site/internal/render"
	"ministry-site/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type env struct {
	r        *gin.Engine
	db       *gorm.DB
	sections []content.Section
	heading  content.Block
	image    content.Block
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t, database.Models()...)
	prevDB, prevSecret := database.DB, config.JWT_SECRET
	database.DB, config.JWT_SECRET = db, "test-secret"
	t.Cleanup(func() { database.DB, config.JWT_SECRET = prevDB, prevSecret })

	store := content.NewStore(db)
	editor := live.NewEditor(live.NewRegistry(live.NewMemoryStore(time.Hour, nil)), store, nil)
	renderer, err := render.New()
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("/api/editor")
	g.Use(middleware.AuthMiddleware(), middleware.RequireCapability(access.CapEditSite))
	NewHandler(editor, renderer, nil).RegisterRoutes(g)

	e := &env{r: r, db: db}
	page := content.Page{Slug: content.HomeSlug, Title: "Início", Status: content.StatusPublished}
	require.NoError(t, db.Create(&page).Error)
	for i, typ := range []string{content.SectionText, content.SectionImageText, content.SectionCTA} {
		s := content.Section{PageID: page.ID, Type: typ, SortIndex: i, Status: content.StatusPublished}
		require.NoError(t, db.Create(&s).Error)
		e.sections = append(e.sections, s)
	}
	e.heading = content.Block{SectionID: e.sections[0].ID, Type: content.BlockTitle,
		Content: content.Payload{"text": "Bem-vindo", "align": "center"}}
	e.image = content.Block{SectionID: e.sections[1].ID, Type: content.BlockImage,
		Content: content.Payload{"url": "/a.jpg", "alt": "Fachada"}}
	require.NoError(t, db.Create(&e.heading).Error)
	require.NoError(t, db.Create(&e.image).Error)
	return e
}

func (e *env) token(t *testing.T, email, role string) string {
	t.Helper()
	u := users.User{Name: "Test", Email: email, Role: role, Active: true}
	require.NoError(t, e.db.Create(&u).Error)
	tok, err := auth.IssueAppJWT(u)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == nil {
		rd = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

type sessionResp struct {
	Session live.Session   `json:"session"`
	Block   *content.Block `json:"block"`
	Error   string         `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) sessionResp {
	t.Helper()
	var out sessionResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *env) open(t *testing.T, tok string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/editor/sessions", tok, map[string]any{"slug": content.HomeSlug})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode(t, w).Session
	require.False(t, s.EditMode)
	return "/api/editor/sessions/" + s.ID
}

func TestInlineEditFlow(t *testing.T) {
	e := setup(t)
	tok := e.token(t, "ed@igreja.test", "editor")
	base := e.open(t, tok)
	inline := base + "/inline/" + e.heading.ID

	// edit mode is required first
	w := e.do(t, http.MethodPost, inline+"/begin", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, base+"/edit-mode", tok, map[string]any{"on": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode(t, w).Session.EditMode)

	w = e.do(t, http.MethodPost, inline+"/begin", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, e.heading.ID, decode(t, w).Session.InlineTarget)

	w = e.do(t, http.MethodPut, inline+"/draft", tok, map[string]any{"text": "Olá <b>igreja</b>"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, inline+"/save", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Empty(t, resp.Session.InlineTarget)
	require.NotNil(t, resp.Block)

	var stored content.Block
	require.NoError(t, e.db.First(&stored, "id = ?", e.heading.ID).Error)
	assert.Equal(t, content.Payload{"text": "Olá <b>igreja</b>", "align": "center"}, stored.Content)
	assert.Equal(t, 2, stored.Version)

	// literal text, escaped on the way out
	page := e.do(t, http.MethodGet, base+"/page", tok, nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Olá &lt;b&gt;igreja&lt;/b&gt;")
	assert.NotContains(t, page.Body.String(), "<b>igreja</b>")
}

func TestTurningEditModeOffClearsTargets(t *testing.T) {
	e := setup(t)
	tok := e.token(t, "ed@igreja.test", "editor")
	base := e.open(t, tok)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/edit-mode", tok, map[string]any{"on": true}).Code)
	w := e.do(t, http.MethodPost, base+"/dialog/"+e.image.ID+"/open", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode(t, w).Session.DialogOpen)

	// a heading cannot start while the dialog is open
	w = e.do(t, http.MethodPost, base+"/inline/"+e.heading.ID+"/begin", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, base+"/edit-mode", tok, map[string]any{"on": false})
	require.Equal(t, http.StatusOK, w.Code)
	s := decode(t, w).Session
	assert.False(t, s.EditMode)
	assert.False(t, s.DialogOpen)
	assert.Empty(t, s.DialogTarget)
	assert.Empty(t, s.InlineTarget)
}

func TestDialogSave(t *testing.T) {
	e := setup(t)
	tok := e.token(t, "ed@igreja.test", "editor")
	base := e.open(t, tok)
	dialog := base + "/dialog/" + e.image.ID

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/edit-mode", tok, map[string]any{"on": true}).Code)

	// headings use the inline editor
	w := e.do(t, http.MethodPost, base+"/dialog/"+e.heading.ID+"/open", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, dialog+"/open", tok, nil).Code)

	w = e.do(t, http.MethodPost, dialog+"/save", tok, map[string]any{"raw": `{"url": "/b.jpg",`})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var stored content.Block
	require.NoError(t, e.db.First(&stored, "id = ?", e.image.ID).Error)
	assert.Equal(t, "/a.jpg", stored.Content["url"])

	w = e.do(t, http.MethodPost, dialog+"/save", tok, map[string]any{"raw": `{"url": "/b.jpg", "alt": "Nave"}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode(t, w).Session.DialogOpen)

	require.NoError(t, e.db.First(&stored, "id = ?", e.image.ID).Error)
	assert.Equal(t, content.Payload{"url": "/b.jpg", "alt": "Nave"}, stored.Content)
}

func TestReorderThroughSession(t *testing.T) {
	e := setup(t)
	tok := e.token(t, "ed@igreja.test", "editor")
	base := e.open(t, tok)
	ids := content.SectionIDs(e.sections)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/edit-mode", tok, map[string]any{"on": true}).Code)

	w := e.do(t, http.MethodPost, base+"/sections/move", tok, map[string]any{"active_id": ids[2], "over_id": ids[0]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decode(t, w).Session
	assert.True(t, s.Unsaved)
	want := []string{ids[2], ids[0], ids[1]}
	assert.Empty(t, cmp.Diff(want, s.Working))

	// nothing is persisted before the explicit save
	var secs []content.Section
	require.NoError(t, e.db.Order("sort_index ASC").Find(&secs).Error)
	assert.Empty(t, cmp.Diff(ids, content.SectionIDs(secs)))

	page := e.do(t, http.MethodGet, base+"/page", tok, nil)
	require.Equal(t, http.StatusOK, page.Code)
	html := page.Body.String()
	assert.Contains(t, html, `data-action="save-order"`)
	assert.Less(t, strings.Index(html, ids[2]), strings.Index(html, ids[0]))

	w = e.do(t, http.MethodPost, base+"/sections/save", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode(t, w).Session.Unsaved)

	require.NoError(t, e.db.Order("sort_index ASC").Find(&secs).Error)
	assert.Empty(t, cmp.Diff(want, content.SectionIDs(secs)))
}

func TestSessionsArePrivate(t *testing.T) {
	e := setup(t)
	owner := e.token(t, "a@igreja.test", "editor")
	other := e.token(t, "b@igreja.test", "admin")
	member := e.token(t, "c@igreja.test", "member")
	base := e.open(t, owner)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, base, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, base+"/edit-mode", other, map[string]any{"on": true}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/api/editor/sessions", member, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, base, "", nil).Code)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, base, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, base, owner, nil).Code)
}

func TestStoreFailureIsLogged(t *testing.T) {
	e := setup(t)
	tok := e.token(t, "ed@igreja.test", "editor")

	broken := testutil.NewDB(t, database.Models()...)
	sqlDB, err := broken.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	core, logs := observer.New(zapcore.ErrorLevel)
	editor := live.NewEditor(live.NewRegistry(live.NewMemoryStore(time.Hour, nil)), content.NewStore(broken), nil)
	renderer, err := render.New()
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("/api/editor")
	g.Use(middleware.AuthMiddleware(), middleware.RequireCapability(access.CapEditSite))
	NewHandler(editor, renderer, zap.New(core)).RegisterRoutes(g)
	e.r = r

	w := e.do(t, http.MethodPost, "/api/editor/sessions", tok, map[string]any{"slug": content.HomeSlug})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "editor request failed", logs.All()[0].Message)

	// client errors stay out of the error log
	w = e.do(t, http.MethodGet, "/api/editor/sessions/missing", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, logs.Len())
}
