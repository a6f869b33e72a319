package users

import (
	"time"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

// Config describes the users table. The password never appears as a column.
func Config() listctl.Config[User] {
	id, withID := shared.NumericIdentity(
		func(u User) int64 { return u.ID },
		func(u User, n int64) User { u.ID = n; return u },
	)
	fields := []listctl.Field[User]{
		shared.Count("id", "ID", func(u User) int64 { return u.ID }),
		shared.Text("name", "Name", func(u User) string { return u.Name }),
		shared.Text("email", "Email", func(u User) string { return u.Email }),
		shared.Text("role", "Role", func(u User) string { return u.Role }),
		shared.Flag("is_active", "Active", func(u User) bool { return u.IsActive }),
		shared.Date("last_login_at", "Last login", func(u User) time.Time {
			if u.LastLoginAt == nil {
				return time.Time{}
			}
			return *u.LastLoginAt
		}),
	}
	return listctl.Config[User]{
		Entity:     Name,
		Fields:     append(fields, shared.AuditFields(func(u User) shared.Audit { return u.Audit })...),
		Searchable: []string{"name", "email", "role"},
		ID:         id,
		WithID:     withID,
		NextID:     listctl.NumericSequence(),
		Stamp: func(u User, at time.Time) User {
			u.Audit = u.Audit.Stamp(at)
			u.Password = ""
			return u
		},
		Touch: func(u User, at time.Time) User {
			u.Audit = u.Audit.Touch(at)
			u.Password = ""
			return u
		},
		ExportColumns: []string{"id", "name", "email", "role", "is_active", "last_login_at"},
	}
}
