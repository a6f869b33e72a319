package shared

import "time"

// Field length limits shared by the entity forms.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 500
	MaxAddressLength     = 255
)

// DateLayout is the wire format of date-only form fields.
const DateLayout = "2006-01-02"

// ParseDate parses a validated date-only field; empty input yields the zero
// time.
func ParseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
