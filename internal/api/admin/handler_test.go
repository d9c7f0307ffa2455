package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/internal/api/auth"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/users"
	"ministry-site/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t, database.Models()...)
	prevDB, prevSecret := database.DB, config.JWT_SECRET
	database.DB, config.JWT_SECRET = db, "test-secret"
	t.Cleanup(func() { database.DB, config.JWT_SECRET = prevDB, prevSecret })

	root := users.User{Name: "Paulo", Email: "paulo@igreja.test", Role: "admin", Active: true}
	require.NoError(t, db.Create(&root).Error)
	tok, err := auth.IssueAppJWT(root)
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("/admin", middleware.AuthMiddleware(), middleware.RequireCapability(access.CapManageUsers))
	g.GET("/dashboard", AdminDashboard)
	g.GET("/users", ListAllUsers)
	g.GET("/user/:id", GetUserDetails)
	g.POST("/users", CreateUser)
	g.PATCH("/user/:id/access", UpdateUserAccess)
	return r, tok
}

func call(r *gin.Engine, method, path, tok string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndPromoteUser(t *testing.T) {
	r, tok := setup(t)

	w := call(r, http.MethodPost, "/admin/users", tok, gin.H{"name": "Ana", "email": "ana@igreja.test", "password": "louvor2026"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ana AdminUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ana))
	assert.Equal(t, "member", ana.Role)
	assert.True(t, ana.Active)

	w = call(r, http.MethodPost, "/admin/users", tok, gin.H{"name": "Ana", "email": "ana@igreja.test", "password": "louvor2026"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = call(r, http.MethodPost, "/admin/users", tok, gin.H{"name": "Bia", "email": "bia@igreja.test", "password": "curta"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = call(r, http.MethodPost, "/admin/users", tok, gin.H{"name": "Bia", "email": "bia@igreja.test", "password": "louvor2026", "role": "bispo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/admin/user/" + strconv.FormatUint(uint64(ana.ID), 10) + "/access"
	w = call(r, http.MethodPatch, path, tok, gin.H{"role": "editor"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ana))
	assert.Equal(t, "editor", ana.Role)

	w = call(r, http.MethodPatch, path, tok, gin.H{"active": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ana))
	assert.False(t, ana.Active)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPatch, path, tok, gin.H{}).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPatch, "/admin/user/999/access", tok, gin.H{"role": "editor"}).Code)

	w = call(r, http.MethodGet, "/admin/users", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []AdminUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = call(r, http.MethodGet, "/admin/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, map[string]int{"admin": 1, "editor": 1}, stats.UsersPerRole)

	w = call(r, http.MethodGet, "/admin/user/"+strconv.FormatUint(uint64(ana.ID), 10), tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNonAdminIsRejected(t *testing.T) {
	r, _ := setup(t)
	editor := users.User{Name: "Ana", Email: "ana@igreja.test", Role: "editor", Active: true}
	require.NoError(t, database.DB.Create(&editor).Error)
	tok, err := auth.IssueAppJWT(editor)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/admin/users", tok, nil).Code)
}
