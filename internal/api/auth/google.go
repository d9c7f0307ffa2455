package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"ministry-site/config"
	"ministry-site/database"
	"ministry-site/internal/domain/access"
	"ministry-site/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "oauth_state"
	stateMaxAge  = 300 // seconds
)

var errBadState = errors.New("invalid oauth state")

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// GET /auth/google
func GoogleStart(c *gin.Context) {
	if !config.GoogleEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	state := uuid.NewString()
	c.SetCookie(stateCookie, state, stateMaxAge, "/", "", config.IsProduction(), true)
	c.Redirect(http.StatusFound, googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback signs a member in, creating the account on
// first use. The state cookie is single use.
func GoogleCallback(c *gin.Context) {
	if !config.GoogleEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	if err := consumeState(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	ctx := c.Request.Context()
	tok, err := googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		zap.L().Warn("google code exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	acct, err := verifyIDToken(ctx, tok)
	if err != nil {
		zap.L().Warn("google id token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid google identity"})
		return
	}

	user, err := users.LinkGoogle(ctx, database.DB, *acct, string(access.RoleMember))
	switch {
	case errors.Is(err, users.ErrGoogleAccountMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		zap.L().Error("google sign-in", zap.String("email", acct.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}
	if !user.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
		return
	}

	token, err := IssueAppJWT(*user)
	if err != nil {
		zap.L().Error("sign token", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	handOff(c, token)
}

func consumeState(c *gin.Context) error {
	want, err := c.Cookie(stateCookie)
	c.SetCookie(stateCookie, "", -1, "/", "", config.IsProduction(), true)
	got := c.Query("state")
	if err != nil || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return errBadState
	}
	return nil
}

// verifyIDToken checks the id_token of an exchange against Google's keys
// and returns the account it names. Unverified emails are refused since they
// would link to existing accounts.
func verifyIDToken(ctx context.Context, tok *oauth2.Token) (*users.GoogleAccount, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errors.New("missing id_token")
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc provider: %w", err)
	}
	idToken, err := provider.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID}).Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	if !claims.EmailVerified {
		return nil, errors.New("google email is not verified")
	}
	return &users.GoogleAccount{
		Sub:        idToken.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}, nil
}

// handOff sends the app token to the configured frontend, or as JSON when
// none is set.
func handOff(c *gin.Context, token string) {
	target, err := url.Parse(config.GOOGLE_FRONTEND_REDIRECT)
	if config.GOOGLE_FRONTEND_REDIRECT == "" || err != nil {
		if err != nil {
			zap.L().Warn("bad GOOGLE_FRONTEND_REDIRECT", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}
	q := target.Query()
	q.Set("token", token)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}
