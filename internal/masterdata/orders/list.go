package orders

import (
	"cmp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the orders table. Status sorts by lifecycle, not
// alphabetically.
func Config() listctl.Config[Order] {
	id, withID := shared.CodeIdentity(
		func(o Order) string { return o.ID },
		func(o Order, code string) Order { o.ID = code; return o },
	)
	status := shared.Text("status", "Status", func(o Order) string { return o.Status })
	status.Compare = func(a, b Order) int {
		return cmp.Compare(statusRank(a.Status), statusRank(b.Status))
	}
	fields := []listctl.Field[Order]{
		shared.Text("id", "Order", func(o Order) string { return o.ID }),
		shared.Text("customer_name", "Customer", func(o Order) string { return o.CustomerName }),
		status,
		shared.Money("total", "Total", func(o Order) decimal.Decimal { return o.Total }),
		shared.Count("items_count", "Items", func(o Order) int64 { return o.ItemsCount }),
		shared.Date("ordered_at", "Ordered", func(o Order) time.Time { return o.OrderedAt }),
		shared.Count("location_id", "Location", func(o Order) int64 { return o.LocationID }),
	}
	return listctl.Config[Order]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(o Order) shared.Audit { return o.Audit })...),
		Searchable: []string{"id", "customer_name", "status"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.PrefixedSequence("ORD", 4),
		Stamp: func(o Order, at time.Time) Order {
			o.Audit = o.Audit.Stamp(at)
			if o.OrderedAt.IsZero() {
				o.OrderedAt = at
			}
			return o
		},
		Touch: func(o Order, at time.Time) Order {
			o.Audit = o.Audit.Touch(at)
			return o
		},
		ExportColumns: []string{"id", "customer_name", "status", "total", "items_count", "ordered_at"},
	}
}
