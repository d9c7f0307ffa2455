package admin

import (
	"errors"
	"net/http"
	"time"

	"ministry-site/database"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/users"
	"ministry-site/internal/domain/worship"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminUser struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Lastname  string    `json:"lastname"`
	Tel       string    `json:"tel"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Provider  string    `json:"auth_provider"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalUsers     int            `json:"total_users"`
	UsersPerRole   map[string]int `json:"users_per_role"`
	PublishedPages int            `json:"published_pages"`
	UpcomingEvents int            `json:"upcoming_events"`
}

func toAdminUser(u users.User) AdminUser {
	return AdminUser{
		ID:        u.ID,
		Name:      u.Name,
		Lastname:  u.Lastname,
		Tel:       u.Tel,
		Email:     u.Email,
		Role:      u.Role,
		Provider:  u.AuthProvider,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func AdminDashboard(c *gin.Context) {
	var stats AdminStats
	db := database.DB.WithContext(c.Request.Context())

	var totalUsers, pages, events int64
	db.Model(&users.User{}).Count(&totalUsers)
	db.Model(&content.Page{}).Where("status = ?", content.StatusPublished).Count(&pages)
	db.Model(&worship.Event{}).Where("starts_at >= ?", time.Now()).Count(&events)

	type roleCount struct {
		Role  string
		Count int
	}
	var counts []roleCount
	db.Model(&users.User{}).Select("role, COUNT(id) as count").Group("role").Scan(&counts)

	stats.TotalUsers = int(totalUsers)
	stats.PublishedPages = int(pages)
	stats.UpcomingEvents = int(events)
	stats.UsersPerRole = map[string]int{}
	for _, rc := range counts {
		stats.UsersPerRole[rc.Role] = rc.Count
	}

	c.JSON(http.StatusOK, stats)
}

func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Order("name ASC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	adminUsers := make([]AdminUser, 0, len(all))
	for _, u := range all {
		adminUsers = append(adminUsers, toAdminUser(u))
	}
	c.JSON(http.StatusOK, adminUsers)
}

func GetUserDetails(c *gin.Context) {
	userID := c.Param("id")

	var user users.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var schedules []worship.ScheduleMember
	if err := database.DB.Preload("Event").Where("user_id = ?", user.ID).Order("created_at DESC").Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      toAdminUser(user),
		"schedules": schedules,
	})
}

func CreateUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Lastname string `json:"lastname"`
		Tel      string `json:"tel"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Role == "" {
		input.Role = string(access.RoleMember)
	}
	if !access.ValidRole(input.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	u, err := users.Create(c.Request.Context(), database.DB, users.NewUser{
		Name:     input.Name,
		Lastname: input.Lastname,
		Tel:      input.Tel,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, users.ErrInvalidEmail), errors.Is(err, users.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		zap.L().Error("create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, toAdminUser(*u))
}

// UpdateUserAccess changes a user's role or active flag. Capability checks
// read the database, so the change applies to the next request.
func UpdateUserAccess(c *gin.Context) {
	var input struct {
		Role   *string `json:"role"`
		Active *bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Role != nil {
		if !access.ValidRole(*input.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		updates["role"] = *input.Role
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if err := database.DB.First(&user, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload user"})
		return
	}

	c.JSON(http.StatusOK, toAdminUser(user))
}
