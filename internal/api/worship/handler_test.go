package worshipapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/internal/api/auth"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/users"
	"ministry-site/internal/domain/worship"
	"ministry-site/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	r   *gin.Engine
	db  *gorm.DB
	svc *worship.Service
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t, database.Models()...)
	prevDB, prevSecret := database.DB, config.JWT_SECRET
	database.DB, config.JWT_SECRET = db, "test-secret"
	t.Cleanup(func() { database.DB, config.JWT_SECRET = prevDB, prevSecret })

	svc := worship.NewService(db, nil)
	h := NewHandler(svc, nil)

	r := gin.New()
	fn := r.Group("/functions", middleware.AuthMiddleware())
	fn.POST("/respond-convocation", h.RespondConvocation)
	fn.POST("/convene-team", middleware.RequireCapability(access.CapConveneTeam), h.ConveneTeam)
	api := r.Group("/api", middleware.AuthMiddleware())
	api.GET("/notifications", h.Notifications)
	api.POST("/notifications/:id/read", h.MarkRead)
	api.POST("/events", middleware.RequireCapability(access.CapConveneTeam), h.CreateEvent)
	api.POST("/events/:id/members", middleware.RequireCapability(access.CapConveneTeam), h.AddMember)

	return &env{r: r, db: db, svc: svc}
}

func (e *env) user(t *testing.T, email, role string) (users.User, string) {
	t.Helper()
	u := users.User{Name: "Test", Email: email, Role: role, Active: true}
	require.NoError(t, e.db.Create(&u).Error)
	tok, err := auth.IssueAppJWT(u)
	require.NoError(t, err)
	return u, tok
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

type conveneResp struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Notified int    `json:"notified"`
	Error    string `json:"error"`
}

func TestConveneTeamEndpoint(t *testing.T) {
	e := setup(t)
	_, leaderTok := e.user(t, "lider@igreja.test", "leader")
	singer, singerTok := e.user(t, "ana@igreja.test", "member")

	w := e.do(t, http.MethodPost, "/api/events", leaderTok, map[string]any{
		"title":     "Culto de Domingo",
		"starts_at": time.Date(2026, 10, 25, 18, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ev worship.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	assert.NotZero(t, ev.LeaderID)

	w = e.do(t, http.MethodPost, "/api/events/"+ev.ID+"/members", leaderTok, map[string]any{"user_id": singer.ID, "function": "vocal"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/functions/convene-team", singerTok, map[string]any{"event_id": ev.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodPost, "/functions/convene-team", "", map[string]any{"event_id": ev.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp conveneResp
	w = e.do(t, http.MethodPost, "/functions/convene-team", leaderTok, map[string]any{"event_id": ev.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Notified)

	w = e.do(t, http.MethodPost, "/functions/convene-team", leaderTok, map[string]any{"event_id": ev.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Notified)

	w = e.do(t, http.MethodPost, "/functions/convene-team", leaderTok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodPost, "/functions/convene-team", leaderTok, map[string]any{"event_id": "00000000-0000-0000-0000-000000000000"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondConvocationEndpoint(t *testing.T) {
	e := setup(t)
	leader, _ := e.user(t, "lider@igreja.test", "leader")
	singer, singerTok := e.user(t, "ana@igreja.test", "member")
	_, otherTok := e.user(t, "davi@igreja.test", "member")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ev, err := e.svc.CreateEvent(ctx, worship.EventInput{Title: "Ensaio", StartsAt: time.Now().Add(48 * time.Hour), LeaderID: leader.ID})
	require.NoError(t, err)
	m, err := e.svc.AddMember(ctx, ev.ID, worship.MemberInput{UserID: singer.ID, Function: "vocal"})
	require.NoError(t, err)
	_, err = e.svc.Convene(ctx, ev.ID)
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/notifications?unread=true", singerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox struct {
		Notifications []worship.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox.Notifications, 1)

	body := map[string]any{"schedule_member_id": m.ID, "answer": "confirmed", "notification_id": inbox.Notifications[0].ID}
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/functions/respond-convocation", otherTok, body).Code)

	w = e.do(t, http.MethodPost, "/functions/respond-convocation", singerTok, map[string]any{"schedule_member_id": m.ID, "answer": "talvez"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/functions/respond-convocation", singerTok, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)

	w = e.do(t, http.MethodGet, "/api/notifications?unread=true", singerTok, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Empty(t, inbox.Notifications)
}
