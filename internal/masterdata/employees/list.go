package employees

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the employees table.
func Config() listctl.Config[Employee] {
	id, withID := shared.CodeIdentity(
		func(e Employee) string { return e.ID },
		func(e Employee, code string) Employee { e.ID = code; return e },
	)
	fields := []listctl.Field[Employee]{
		shared.Text("id", "ID", func(e Employee) string { return e.ID }),
		shared.Text("name", "Name", Employee.FullName),
		shared.Text("first_name", "First name", func(e Employee) string { return e.FirstName }),
		shared.Text("last_name", "Last name", func(e Employee) string { return e.LastName }),
		shared.Text("email", "Email", func(e Employee) string { return e.Email }),
		shared.Text("phone", "Phone", func(e Employee) string { return e.Phone }),
		shared.Text("role", "Role", func(e Employee) string { return e.Role }),
		shared.Date("hire_date", "Hired", func(e Employee) time.Time { return e.HireDate }),
		shared.Money("salary", "Salary", func(e Employee) decimal.Decimal { return e.Salary }),
		shared.Flag("is_active", "Active", func(e Employee) bool { return e.IsActive }),
	}
	return listctl.Config[Employee]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(e Employee) shared.Audit { return e.Audit })...),
		Searchable: []string{"id", "name", "email", "phone", "role"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.PrefixedSequence("EMP", 3),
		Stamp: func(e Employee, at time.Time) Employee {
			e.Audit = e.Audit.Stamp(at)
			return e
		},
		Touch: func(e Employee, at time.Time) Employee {
			e.Audit = e.Audit.Touch(at)
			return e
		},
		ExportColumns: []string{"id", "first_name", "last_name", "email", "phone", "role", "hire_date", "salary", "is_active"},
	}
}
