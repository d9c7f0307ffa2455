package routes

import (
	"net/http"

	adminapi "ministry-site/internal/api/admin"
	authapi "ministry-site/internal/api/auth"
	contentapi "ministry-site/internal/api/content"
	editorapi "ministry-site/internal/api/editor"
	siteapi "ministry-site/internal/api/site"
	uploadsapi "ministry-site/internal/api/uploads"
	"ministry-site/internal/api/users"
	worshipapi "ministry-site/internal/api/worship"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"

	"github.com/gin-gonic/gin"
)

// Handlers groups the handlers that carry their own dependencies.
type Handlers struct {
	Site    *siteapi.Handler
	Content *contentapi.Handler
	Editor  *editorapi.Handler
	Worship *worshipapi.Handler
	Uploads *uploadsapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public HTML and page JSON
	api := r.Group("/api")
	api.Use(middleware.RequireAPIKey())
	h.Site.RegisterRoutes(r, api)

	// Only public routes get input sanitization; block payloads are
	// escaped at render time instead.
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware("password"))
	public.POST("/login", authapi.Login)
	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", users.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	member := api.Group("")
	member.Use(middleware.AuthMiddleware())
	member.GET("/events", h.Worship.ListEvents)
	member.GET("/events/:id", h.Worship.GetEvent)
	member.GET("/me/schedules", h.Worship.MySchedules)
	member.GET("/notifications", h.Worship.Notifications)
	member.POST("/notifications/:id/read", h.Worship.MarkRead)

	leader := member.Group("")
	leader.Use(middleware.RequireCapability(access.CapConveneTeam))
	leader.POST("/events", h.Worship.CreateEvent)
	leader.POST("/events/:id/members", h.Worship.AddMember)
	leader.DELETE("/events/:id/members/:memberId", h.Worship.RemoveMember)

	// Site editing: the role is checked against the users table on every
	// request, whatever the client shows.
	editor := member.Group("")
	editor.Use(middleware.RequireCapability(access.CapEditSite))
	h.Editor.RegisterRoutes(editor.Group("/editor"))

	siteAdmin := editor.Group("/admin")
	siteAdmin.POST("/uploads", h.Uploads.Upload)
	siteAdmin.GET("/uploads", h.Uploads.List)

	// Serverless-style endpoints
	functions := r.Group("/functions")
	functions.Use(middleware.RequireAPIKey(), middleware.AuthMiddleware())
	functions.POST("/respond-convocation", h.Worship.RespondConvocation)
	functions.POST("/convene-team", middleware.RequireCapability(access.CapConveneTeam), h.Worship.ConveneTeam)

	editFunctions := functions.Group("")
	editFunctions.Use(middleware.RequireCapability(access.CapEditSite))
	h.Content.RegisterRoutes(editor, editFunctions, siteAdmin)

	// User administration
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireCapability(access.CapManageUsers))
	admin.GET("/dashboard", adminapi.AdminDashboard)
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/user/:id", adminapi.GetUserDetails)
	admin.POST("/users", adminapi.CreateUser)
	admin.PATCH("/user/:id/access", adminapi.UpdateUserAccess)
}
