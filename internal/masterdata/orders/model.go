// Package orders holds the customer order entity.
package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "orders"

// Order statuses in lifecycle order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var lifecycle = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Order is a customer order.
type Order struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	ItemsCount   int64           `json:"items_count"`
	OrderedAt    time.Time       `json:"ordered_at"`
	LocationID   int64           `json:"location_id"`
	shared.Audit
}

// CreateForm is the add dialog payload. Orders start pending unless a
// status is given.
type CreateForm struct {
	CustomerName string          `json:"customer_name" validate:"required,max=120"`
	Status       string          `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	Total        decimal.Decimal `json:"total" validate:"gte=0"`
	ItemsCount   int64           `json:"items_count" validate:"gte=0"`
	OrderedAt    string          `json:"ordered_at" validate:"omitempty,datetime=2006-01-02"`
	LocationID   int64           `json:"location_id" validate:"omitempty,gt=0"`
}

// Entity converts the form.
func (f CreateForm) Entity() Order {
	status := f.Status
	if status == "" {
		status = StatusPending
	}
	return Order{
		CustomerName: strings.TrimSpace(f.CustomerName),
		Status:       status,
		Total:        f.Total,
		ItemsCount:   f.ItemsCount,
		OrderedAt:    shared.ParseDate(f.OrderedAt),
		LocationID:   f.LocationID,
	}
}

// PatchForm is the edit dialog payload.
type PatchForm struct {
	CustomerName *string          `json:"customer_name,omitempty" validate:"omitempty,min=1,max=120"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	Total        *decimal.Decimal `json:"total,omitempty" validate:"omitempty,gte=0"`
	ItemsCount   *int64           `json:"items_count,omitempty" validate:"omitempty,gte=0"`
	OrderedAt    *string          `json:"ordered_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LocationID   *int64           `json:"location_id,omitempty" validate:"omitempty,gt=0"`
}

// Normalise is a no-op for orders.
func (f PatchForm) Normalise() PatchForm { return f }

func statusRank(status string) int {
	for i, s := range lifecycle {
		if s == status {
			return i
		}
	}
	return len(lifecycle)
}
