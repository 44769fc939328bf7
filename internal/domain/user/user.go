package user

import (
	"net/mail"
	"strings"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

// User is a registered person who can list items and book them.
type User struct {
	id    int64
	name  string
	email string
}

// NewUser creates a user with a validated name and email.
func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &User{name: name, email: email}, nil
}

// ReconstructUser rebuilds a User from persistence data (no validation).
func ReconstructUser(id int64, name, email string) *User {
	return &User{id: id, name: name, email: email}
}

func (u *User) ID() int64     { return u.id }
func (u *User) Name() string  { return u.name }
func (u *User) Email() string { return u.email }

// Update applies a partial update. Nil fields are left unchanged.
func (u *User) Update(name, email *string) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return domain.NewValidationError("name must not be blank")
		}
		u.name = n
	}
	if email != nil {
		e, err := normalizeEmail(*email)
		if err != nil {
			return err
		}
		u.email = e
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewValidationError("email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", domain.NewValidationError("invalid email: " + raw)
	}
	return raw, nil
}
