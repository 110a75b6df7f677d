package domain

import (
	"regexp"
	"strings"
	"time"
)

const (
	RoleUser         = "user"
	DefaultAvatarURL = "https://img.icons8.com/?size=100&id=z-JBA_KtSkxG&format=png&color=000000"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the storefront's e-mail shape check to the
// lower-cased address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(email))
}

// User is the profile document stored at users/{uid}.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Phone       string    `json:"phone"`
	AvatarURL   string    `json:"avatarUrl"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// PasswordHash is only populated by the local identity provider.
	PasswordHash string `json:"-"`
}
