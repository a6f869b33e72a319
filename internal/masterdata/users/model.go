// Package users holds the back-office user account entity.
package users

import (
	"strings"
	"time"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "users"

// User is a back-office account. Password is write-only: it is sent on
// create and edit but never returned by the backend.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Password    string     `json:"password,omitempty"`
	shared.Audit
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=owner admin sales warehouse"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	IsActive *bool  `json:"is_active"`
}

// Entity converts the form.
func (f CreateForm) Entity() User {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return User{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.ToLower(strings.TrimSpace(f.Email)),
		Role:     f.Role,
		Password: f.Password,
		IsActive: active,
	}
}

// PatchForm is the edit dialog payload. An absent password keeps the
// current one.
type PatchForm struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=owner admin sales warehouse"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Normalise lower-cases the email.
func (f PatchForm) Normalise() PatchForm {
	if f.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*f.Email))
		f.Email = &email
	}
	return f
}
