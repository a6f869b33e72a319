package shared

import (
	"fmt"
	"strconv"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

// ErrInvalidID wraps httpx.ErrValidation for malformed identities.
var ErrInvalidID = fmt.Errorf("invalid ID: %w", httpx.ErrValidation)

// ParseNumericID parses numeric entity identities.
func ParseNumericID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return n, nil
}
