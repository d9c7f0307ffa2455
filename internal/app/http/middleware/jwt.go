package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys set by the auth middlewares.
const (
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyRole      = "role"
	KeyPolicy    = "policy"
	KeyAnonymous = "anonymous"
)

var errNoToken = errors.New("authorization header missing")

func bearerClaims(c *gin.Context) (jwt.MapClaims, error) {
	jwtKey := []byte(config.JWT_SECRET)
	if len(jwtKey) == 0 {
		return nil, errors.New("JWT secret not configured")
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errNoToken
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, errors.New("bearer token malformed")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	if email, ok := claims["email"].(string); ok {
		c.Set(KeyEmail, email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(KeyRole, role)
	}
	if userIDFloat, ok := claims["user_id"].(float64); ok {
		c.Set(KeyUserID, uint(userIDFloat))
	}
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c)
		if err != nil {
			zap.L().Debug("auth rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous visitors through otherwise. Public pages use it to decide
// whether to draw edit controls.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c)
		if err != nil {
			c.Set(KeyAnonymous, true)
			c.Next()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireCapability checks the caller's current role in the database, not
// the role baked into the token, so revoked editors lose access at once.
// Must run after AuthMiddleware.
func RequireCapability(capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy, ok := LoadPolicy(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if !policy.Allows(capability) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadPolicy resolves the caller's policy from the users table, caching it
// on the context. Anonymous callers and unknown users report false.
func LoadPolicy(c *gin.Context) (access.Policy, bool) {
	if v, ok := c.Get(KeyPolicy); ok {
		return v.(access.Policy), true
	}
	userID, ok := CurrentUserID(c)
	if !ok {
		return access.Policy{}, false
	}
	var u users.User
	if err := database.DB.WithContext(c.Request.Context()).
		Select("id", "role", "active").
		First(&u, userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("policy lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return access.Policy{}, false
	}
	p := access.ComputePolicy(u)
	c.Set(KeyPolicy, p)
	c.Set(KeyRole, u.Role)
	return p, true
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
