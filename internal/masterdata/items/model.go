// Package items holds the inventory item entity.
package items

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "items"

// Item is a stocked product at a location.
type Item struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	CategoryID int64           `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	LocationID int64           `json:"location_id"`
	IsActive   bool            `json:"is_active"`
	shared.Audit
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	SKU        string          `json:"sku" validate:"required,max=64"`
	Name       string          `json:"name" validate:"required,max=120"`
	CategoryID int64           `json:"category_id" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity   int64           `json:"quantity" validate:"gte=0"`
	LocationID int64           `json:"location_id" validate:"omitempty,gt=0"`
	IsActive   *bool           `json:"is_active"`
}

// Entity converts the form. SKUs are stored upper case.
func (f CreateForm) Entity() Item {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return Item{
		SKU:        strings.ToUpper(strings.TrimSpace(f.SKU)),
		Name:       strings.TrimSpace(f.Name),
		CategoryID: f.CategoryID,
		Price:      f.Price,
		Quantity:   f.Quantity,
		LocationID: f.LocationID,
		IsActive:   active,
	}
}

// PatchForm is the edit dialog payload.
type PatchForm struct {
	SKU        *string          `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	Name       *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	CategoryID *int64           `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Price      *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity   *int64           `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	LocationID *int64           `json:"location_id,omitempty" validate:"omitempty,gt=0"`
	IsActive   *bool            `json:"is_active,omitempty"`
}

// Normalise upper-cases the SKU.
func (f PatchForm) Normalise() PatchForm {
	if f.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*f.SKU))
		f.SKU = &sku
	}
	return f
}
