// Package expenses holds the operating expense entity.
package expenses

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "expenses"

// Expense is a single operating cost booked against a location.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	LocationID  int64           `json:"location_id"`
	shared.Audit
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	Description string          `json:"description" validate:"required,max=500"`
	Category    string          `json:"category" validate:"required,max=60"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	LocationID  int64           `json:"location_id" validate:"omitempty,gt=0"`
}

// Entity converts the form.
func (f CreateForm) Entity() Expense {
	return Expense{
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Amount:      f.Amount,
		Date:        shared.ParseDate(f.Date),
		LocationID:  f.LocationID,
	}
}

// PatchForm is the edit dialog payload.
type PatchForm struct {
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,min=1,max=60"`
	Amount      *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Date        *string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LocationID  *int64           `json:"location_id,omitempty" validate:"omitempty,gt=0"`
}

// Normalise is a no-op for expenses.
func (f PatchForm) Normalise() PatchForm { return f }
