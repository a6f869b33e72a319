// Package export renders the filtered rows of a list controller as CSV or
// XLSX downloads.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

// ErrNothingToExport is returned when the filtered view is empty.
var ErrNothingToExport = errors.New("nothing to export")

// Format selects the file type of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name; an empty name selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds "{entity}-export-{YYYY-MM-DD}.{ext}".
func Filename(entity string, format Format, day time.Time) string {
	if format == "" {
		format = FormatCSV
	}
	return fmt.Sprintf("%s-export-%s.%s", entity, day.Format(time.DateOnly), format)
}

// Write renders rows in the requested format.
func Write[E any](w io.Writer, format Format, fields []listctl.Field[E], rows []E, f Formatter) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, fields, rows, f)
	case FormatCSV, "":
		return WriteCSV(w, fields, rows, f)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

func header[E any](fields []listctl.Field[E]) []string {
	out := make([]string, len(fields))
	for i, field := range fields {
		out[i] = field.Label
		if out[i] == "" {
			out[i] = field.Key
		}
	}
	return out
}
