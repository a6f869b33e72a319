package expenses

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the expenses table.
func Config() listctl.Config[Expense] {
	id, withID := shared.CodeIdentity(
		func(e Expense) string { return e.ID },
		func(e Expense, code string) Expense { e.ID = code; return e },
	)
	fields := []listctl.Field[Expense]{
		shared.Text("id", "ID", func(e Expense) string { return e.ID }),
		shared.Text("description", "Description", func(e Expense) string { return e.Description }),
		shared.Text("category", "Category", func(e Expense) string { return e.Category }),
		shared.Money("amount", "Amount", func(e Expense) decimal.Decimal { return e.Amount }),
		shared.Date("date", "Date", func(e Expense) time.Time { return e.Date }),
		shared.Count("location_id", "Location", func(e Expense) int64 { return e.LocationID }),
	}
	return listctl.Config[Expense]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(e Expense) shared.Audit { return e.Audit })...),
		Searchable: []string{"description", "category"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.PrefixedSequence("EXP", 3),
		Stamp: func(e Expense, at time.Time) Expense {
			e.Audit = e.Audit.Stamp(at)
			return e
		},
		Touch: func(e Expense, at time.Time) Expense {
			e.Audit = e.Audit.Touch(at)
			return e
		},
		ExportColumns: []string{"id", "date", "description", "category", "amount", "location_id"},
	}
}
