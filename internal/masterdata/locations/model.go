// Package locations holds the store location entity.
package locations

import (
	"strings"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "locations"

// Location represents a store or warehouse site.
type Location struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
	shared.Audit
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	Name     string `json:"name" validate:"required,max=120"`
	Address  string `json:"address" validate:"required,max=255"`
	City     string `json:"city" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"required,phone"`
	IsActive *bool  `json:"is_active"`
}

// Entity converts the form. New locations are active unless stated otherwise.
func (f CreateForm) Entity() Location {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return Location{
		Name:     strings.TrimSpace(f.Name),
		Address:  strings.TrimSpace(f.Address),
		City:     strings.TrimSpace(f.City),
		Phone:    shared.FormatPhone(f.Phone),
		IsActive: active,
	}
}

// PatchForm is the edit dialog payload; absent fields are left unchanged.
type PatchForm struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Address  *string `json:"address,omitempty" validate:"omitempty,min=1,max=255"`
	City     *string `json:"city,omitempty" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Normalise masks the phone number.
func (f PatchForm) Normalise() PatchForm {
	if f.Phone != nil {
		phone := shared.FormatPhone(*f.Phone)
		f.Phone = &phone
	}
	return f
}
