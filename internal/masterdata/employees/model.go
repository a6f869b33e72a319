// Package employees holds the staff entity.
package employees

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "employees"

// Employee is a member of staff.
type Employee struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Role      string          `json:"role"`
	HireDate  time.Time       `json:"hire_date"`
	Salary    decimal.Decimal `json:"salary"`
	IsActive  bool            `json:"is_active"`
	shared.Audit
}

// FullName joins the first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	FirstName string          `json:"first_name" validate:"required,max=60"`
	LastName  string          `json:"last_name" validate:"required,max=60"`
	Email     string          `json:"email" validate:"required,email"`
	Phone     string          `json:"phone" validate:"omitempty,phone"`
	Role      string          `json:"role" validate:"required,max=60"`
	HireDate  string          `json:"hire_date" validate:"required,datetime=2006-01-02"`
	Salary    decimal.Decimal `json:"salary" validate:"gte=0"`
	IsActive  *bool           `json:"is_active"`
}

// Entity converts the form.
func (f CreateForm) Entity() Employee {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	e := Employee{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.ToLower(strings.TrimSpace(f.Email)),
		Role:      strings.TrimSpace(f.Role),
		HireDate:  shared.ParseDate(f.HireDate),
		Salary:    f.Salary,
		IsActive:  active,
	}
	if f.Phone != "" {
		e.Phone = shared.FormatPhone(f.Phone)
	}
	return e
}

// PatchForm is the edit dialog payload.
type PatchForm struct {
	FirstName *string          `json:"first_name,omitempty" validate:"omitempty,min=1,max=60"`
	LastName  *string          `json:"last_name,omitempty" validate:"omitempty,min=1,max=60"`
	Email     *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string          `json:"phone,omitempty" validate:"omitempty,phone"`
	Role      *string          `json:"role,omitempty" validate:"omitempty,min=1,max=60"`
	HireDate  *string          `json:"hire_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Salary    *decimal.Decimal `json:"salary,omitempty" validate:"omitempty,gte=0"`
	IsActive  *bool            `json:"is_active,omitempty"`
}

// Normalise masks the phone and lower-cases the email.
func (f PatchForm) Normalise() PatchForm {
	if f.Phone != nil {
		phone := shared.FormatPhone(*f.Phone)
		f.Phone = &phone
	}
	if f.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*f.Email))
		f.Email = &email
	}
	return f
}
