package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrEmailTaken   = errors.New("email already registered")
)

type NewUser struct {
	Name     string
	Lastname string
	Tel      string
	Email    string
	Password string
	Role     string
}

// Create registers a local account. The caller validates the role.
func Create(ctx context.Context, db *gorm.DB, in NewUser) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !EmailValid(email) {
		return nil, ErrInvalidEmail
	}

	u := User{
		Name:         in.Name,
		Lastname:     in.Lastname,
		Tel:          in.Tel,
		Email:        email,
		AuthProvider: ProviderLocal,
		Role:         in.Role,
		Active:       true,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}
