package shared

import (
	"strings"
	"unicode"
)

// PhoneDigits strips everything but digits and a leading US country code.
func PhoneDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// ValidPhone reports whether raw holds a ten digit number.
func ValidPhone(raw string) bool {
	return len(PhoneDigits(raw)) == 10
}

// FormatPhone applies the (555) 123-4567 mask. Partial input is masked as
// far as it goes; input that cannot be masked is returned trimmed.
func FormatPhone(raw string) string {
	digits := PhoneDigits(raw)
	switch n := len(digits); {
	case n == 0:
		return strings.TrimSpace(raw)
	case n <= 3:
		return "(" + digits
	case n <= 6:
		return "(" + digits[:3] + ") " + digits[3:]
	case n <= 10:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	default:
		return strings.TrimSpace(raw)
	}
}
