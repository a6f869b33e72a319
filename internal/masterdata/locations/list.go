package locations

import (
	"time"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the locations table.
func Config() listctl.Config[Location] {
	id, withID := shared.NumericIdentity(
		func(l Location) int64 { return l.ID },
		func(l Location, n int64) Location { l.ID = n; return l },
	)
	fields := []listctl.Field[Location]{
		shared.Count("id", "ID", func(l Location) int64 { return l.ID }),
		shared.Text("name", "Name", func(l Location) string { return l.Name }),
		shared.Text("address", "Address", func(l Location) string { return l.Address }),
		shared.Text("city", "City", func(l Location) string { return l.City }),
		shared.Text("phone", "Phone", func(l Location) string { return l.Phone }),
		shared.Flag("is_active", "Active", func(l Location) bool { return l.IsActive }),
	}
	return listctl.Config[Location]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(l Location) shared.Audit { return l.Audit })...),
		Searchable: []string{"name", "address", "city", "phone"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.NumericSequence(),
		Stamp: func(l Location, at time.Time) Location {
			l.Audit = l.Audit.Stamp(at)
			return l
		},
		Touch: func(l Location, at time.Time) Location {
			l.Audit = l.Audit.Touch(at)
			return l
		},
		ExportColumns: []string{"id", "name", "address", "city", "phone", "is_active", "created_at"},
	}
}
