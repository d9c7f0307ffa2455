package users

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword = errors.New("password must be at least 8 characters long and contain both letters and numbers")
	ErrNoPassword   = errors.New("account uses Google sign-in")

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func PasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func EmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// SetPassword hashes password with bcrypt and stores it on u.
func (u *User) SetPassword(password string) error {
	if !PasswordStrong(password) {
		return ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hashed)
	u.Password = &h
	return nil
}

func (u User) CheckPassword(password string) error {
	if u.Password == nil || *u.Password == "" {
		return ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password))
}
