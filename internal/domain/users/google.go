package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrGoogleAccountIncomplete = errors.New("google account has no subject or email")
	ErrGoogleAccountMismatch   = errors.New("email is linked to another google account")
)

// GoogleAccount is the verified identity returned by a Google sign-in.
type GoogleAccount struct {
	Sub        string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
}

// LinkGoogle resolves the user behind a Google sign-in. A known subject
// wins; an account with the same email gets the subject attached; otherwise
// a new account with role is created.
func LinkGoogle(ctx context.Context, db *gorm.DB, acct GoogleAccount, role string) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(acct.Email))
	if acct.Sub == "" || email == "" {
		return nil, ErrGoogleAccountIncomplete
	}
	db = db.WithContext(ctx)

	var u User
	err := db.Where("google_sub = ?", acct.Sub).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Where("email = ?", email).First(&u).Error
	switch {
	case err == nil:
		if u.GoogleSub != nil {
			return nil, ErrGoogleAccountMismatch
		}
		sub := acct.Sub
		if err := db.Model(&u).Update("google_sub", sub).Error; err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		u.GoogleSub = &sub
		return &u, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	name := acct.GivenName
	if name == "" {
		name = acct.Name
	}
	sub := acct.Sub
	u = User{
		Name:         name,
		Lastname:     acct.FamilyName,
		Email:        email,
		AuthProvider: ProviderGoogle,
		GoogleSub:    &sub,
		Role:         role,
		Active:       true,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return &u, nil
}
