// Package categories holds the item category entity.
package categories

import (
	"strings"
	"time"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Name is the collection name on the gateway and the REST backend.
const Name = "categories"

// Category represents an item category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsHidden    bool   `json:"is_hidden"`
	shared.Audit
}

// CreateForm is the add dialog payload.
type CreateForm struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	IsHidden    bool   `json:"is_hidden"`
}

// Entity converts the form.
func (f CreateForm) Entity() Category {
	return Category{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		IsHidden:    f.IsHidden,
	}
}

// PatchForm is the edit dialog payload.
type PatchForm struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsHidden    *bool   `json:"is_hidden,omitempty"`
}

// Normalise is a no-op for categories.
func (f PatchForm) Normalise() PatchForm { return f }

// Config describes the categories table.
func Config() listctl.Config[Category] {
	id, withID := shared.NumericIdentity(
		func(c Category) int64 { return c.ID },
		func(c Category, n int64) Category { c.ID = n; return c },
	)
	fields := []listctl.Field[Category]{
		shared.Count("id", "ID", func(c Category) int64 { return c.ID }),
		shared.Text("name", "Name", func(c Category) string { return c.Name }),
		shared.Text("description", "Description", func(c Category) string { return c.Description }),
		shared.Flag("is_hidden", "Hidden", func(c Category) bool { return c.IsHidden }),
	}
	return listctl.Config[Category]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(c Category) shared.Audit { return c.Audit })...),
		Searchable: []string{"name", "description"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.NumericSequence(),
		Stamp: func(c Category, at time.Time) Category {
			c.Audit = c.Audit.Stamp(at)
			return c
		},
		Touch: func(c Category, at time.Time) Category {
			c.Audit = c.Audit.Touch(at)
			return c
		},
	}
}
