package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the items table.
func Config() listctl.Config[Item] {
	id, withID := shared.CodeIdentity(
		func(i Item) string { return i.ID },
		func(i Item, code string) Item { i.ID = code; return i },
	)
	fields := []listctl.Field[Item]{
		shared.Text("id", "ID", func(i Item) string { return i.ID }),
		shared.Text("sku", "SKU", func(i Item) string { return i.SKU }),
		shared.Text("name", "Name", func(i Item) string { return i.Name }),
		shared.Count("category_id", "Category", func(i Item) int64 { return i.CategoryID }),
		shared.Money("price", "Price", func(i Item) decimal.Decimal { return i.Price }),
		shared.Count("quantity", "Quantity", func(i Item) int64 { return i.Quantity }),
		shared.Count("location_id", "Location", func(i Item) int64 { return i.LocationID }),
		shared.Flag("is_active", "Active", func(i Item) bool { return i.IsActive }),
	}
	return listctl.Config[Item]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(i Item) shared.Audit { return i.Audit })...),
		Searchable: []string{"id", "sku", "name"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.PrefixedSequence("ITM", 3),
		Stamp: func(i Item, at time.Time) Item {
			i.Audit = i.Audit.Stamp(at)
			return i
		},
		Touch: func(i Item, at time.Time) Item {
			i.Audit = i.Audit.Touch(at)
			return i
		},
		ExportColumns: []string{"id", "sku", "name", "category_id", "price", "quantity", "location_id", "is_active"},
	}
}
