// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultDisplayImage is assigned to users who have not uploaded a picture.
const DefaultDisplayImage = "https://res.cloudinary.com/dzcmadjl1/image/upload/v1694868283/default_profile_image_oqxv6r.png"

// Role is a user's role in the learning platform.
type Role string

// Supported roles.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole parses a role name. An empty string yields RoleStudent.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	default:
		return "", oops.Code("USER_INVALID_ROLE").
			With("field", "role").
			With("role", s).
			Errorf("role must be %q or %q", RoleStudent, RoleTeacher)
	}
}

// User is an account in the user directory.
type User struct {
	ID                    ulid.ULID
	Email                 string
	Username              *string
	PasswordHash          string // empty for federated-only accounts
	DisplayName           string
	DisplayImage          string
	Role                  Role
	EmailVerified         bool
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NormalizeEmail trims and lowercases an email address. All lookups and
// cache keys use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether email is a bare, syntactically valid address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("USER_INVALID_EMAIL").
			With("field", "email").
			Errorf("email address is invalid")
	}
	return nil
}

// NewUser creates a validated User. Either email or username must be set;
// the directory requires an email, so callers from this package always pass one.
// displayName falls back to the username, then the email.
func NewUser(email string, username *string, displayName, passwordHash string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			username = nil
		} else {
			username = &trimmed
		}
	}
	if email == "" && username == nil {
		return nil, oops.Code("USER_MISSING_IDENTITY").
			With("field", "email").
			Errorf("email or username is required")
	}
	if email != "" {
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
	}
	if role == "" {
		role = RoleStudent
	}
	if role != RoleStudent && role != RoleTeacher {
		return nil, oops.Code("USER_INVALID_ROLE").
			With("field", "role").
			With("role", string(role)).
			Errorf("unsupported role")
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		if username != nil {
			displayName = *username
		} else {
			displayName = email
		}
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		DisplayImage: DefaultDisplayImage,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UniqueName returns the username, or the email when no username is set.
func (u *User) UniqueName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// SetRefreshToken replaces the single refresh-token slot.
func (u *User) SetRefreshToken(token string, expiresAt time.Time) {
	u.RefreshToken = &token
	u.RefreshTokenExpiresAt = &expiresAt
}

// ClearRefreshToken empties the refresh-token slot.
func (u *User) ClearRefreshToken() {
	u.RefreshToken = nil
	u.RefreshTokenExpiresAt = nil
}

// RefreshTokenValidAt reports whether the stored refresh token is still usable at t.
// A token whose expiry equals t is expired.
func (u *User) RefreshTokenValidAt(t time.Time) bool {
	if u.RefreshToken == nil || u.RefreshTokenExpiresAt == nil {
		return false
	}
	return u.RefreshTokenExpiresAt.After(t)
}

// Profile returns the public profile fields of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID.String(),
		Email:        u.Email,
		Username:     u.UniqueName(),
		DisplayName:  u.DisplayName,
		DisplayImage: u.DisplayImage,
		Role:         u.Role,
	}
}

// Profile is the user data returned to clients. It never carries credentials.
type Profile struct {
	ID           string `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	DisplayImage string `json:"display_image"`
	Role         Role   `json:"role"`
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrEmailTaken if
	// the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByRefreshToken retrieves the user holding exactly this refresh token.
	// Returns ErrNotFound if no user holds it.
	GetByRefreshToken(ctx context.Context, token string) (*User, error)

	// Update persists all mutable fields of an existing user.
	Update(ctx context.Context, user *User) error
}
