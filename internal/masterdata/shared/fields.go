package shared

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

// Text declares a string column.
func Text[E any](key, label string, get func(E) string) listctl.Field[E] {
	return listctl.Field[E]{Key: key, Label: label, Kind: listctl.KindString, Value: func(e E) any { return get(e) }}
}

// Money declares a decimal column.
func Money[E any](key, label string, get func(E) decimal.Decimal) listctl.Field[E] {
	return listctl.Field[E]{Key: key, Label: label, Kind: listctl.KindNumber, Value: func(e E) any { return get(e) }}
}

// Count declares an integer column.
func Count[E any](key, label string, get func(E) int64) listctl.Field[E] {
	return listctl.Field[E]{Key: key, Label: label, Kind: listctl.KindNumber, Value: func(e E) any { return get(e) }}
}

// Date declares a timestamp column.
func Date[E any](key, label string, get func(E) time.Time) listctl.Field[E] {
	return listctl.Field[E]{Key: key, Label: label, Kind: listctl.KindDate, Value: func(e E) any { return get(e) }}
}

// Flag declares a boolean column.
func Flag[E any](key, label string, get func(E) bool) listctl.Field[E] {
	return listctl.Field[E]{Key: key, Label: label, Kind: listctl.KindBool, Value: func(e E) any { return get(e) }}
}

// AuditFields appends the created and updated columns.
func AuditFields[E any](get func(E) Audit) []listctl.Field[E] {
	return []listctl.Field[E]{
		Date("created_at", "Created", func(e E) time.Time { return get(e).CreatedAt }),
		Date("updated_at", "Updated", func(e E) time.Time { return get(e).UpdatedAt }),
	}
}

// NumericIdentity returns the ID accessors for int64 identities.
func NumericIdentity[E any](get func(E) int64, set func(E, int64) E) (func(E) string, func(E, string) (E, error)) {
	id := func(e E) string {
		if v := get(e); v > 0 {
			return strconv.FormatInt(v, 10)
		}
		return ""
	}
	withID := func(e E, raw string) (E, error) {
		n, err := ParseNumericID(raw)
		if err != nil {
			return e, err
		}
		return set(e, n), nil
	}
	return id, withID
}

// CodeIdentity returns the ID accessors for prefixed string identities such
// as ITM-001.
func CodeIdentity[E any](get func(E) string, set func(E, string) E) (func(E) string, func(E, string) (E, error)) {
	withID := func(e E, raw string) (E, error) {
		return set(e, raw), nil
	}
	return get, withID
}
