package listctl

import (
	"fmt"
	"strconv"
	"strings"
)

// IDGenerator derives the identity of a locally created entity from the
// identities already present in the collection.
type IDGenerator func(existing []string) string

// NumericSequence returns max+1 over the numeric identities.
func NumericSequence() IDGenerator {
	return func(existing []string) string {
		var max int64
		for _, id := range existing {
			n, err := strconv.ParseInt(id, 10, 64)
			if err == nil && n > max {
				max = n
			}
		}
		return strconv.FormatInt(max+1, 10)
	}
}

// PrefixedSequence returns zero-padded sequential identities such as ITM-004.
func PrefixedSequence(prefix string, width int) IDGenerator {
	lead := prefix + "-"
	return func(existing []string) string {
		var max int64
		for _, id := range existing {
			if !strings.HasPrefix(id, lead) {
				continue
			}
			n, err := strconv.ParseInt(strings.TrimPrefix(id, lead), 10, 64)
			if err == nil && n > max {
				max = n
			}
		}
		return fmt.Sprintf("%s%0*d", lead, width, max+1)
	}
}
