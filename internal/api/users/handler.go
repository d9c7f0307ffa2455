package users

import (
	"net/http"

	"ministry-site/database"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/users"

	"github.com/gin-gonic/gin"
)

func GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, BuildMeResponse(user))
}

func BuildMeResponse(user users.User) MeResponse {
	policy := access.ComputePolicy(user)
	caps := make([]string, 0, len(policy.Capabilities))
	for _, c := range policy.Capabilities {
		caps = append(caps, string(c))
	}

	return MeResponse{
		User: UserDTO{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Lastname: user.Lastname,
			Tel:      stringPtrIfNotEmpty(user.Tel),
			Role:     user.Role,
			Provider: user.AuthProvider,
		},
		Access: AccessDTO{
			CanEdit:      policy.Allows(access.CapEditSite),
			EditorMode:   string(policy.EditorMode),
			Capabilities: caps,
		},
	}
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
