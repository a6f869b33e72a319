package listctl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Stringify renders a field value the way the filter matches it.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.DateOnly)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(time.DateOnly)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

type matcher[E any] struct {
	fields []Field[E]
	folder cases.Caser
}

func newMatcher[E any](cfg Config[E]) *matcher[E] {
	fields := make([]Field[E], 0, len(cfg.Searchable))
	for _, key := range cfg.Searchable {
		if f, ok := cfg.Field(key); ok {
			fields = append(fields, f)
		}
	}
	return &matcher[E]{fields: fields, folder: cases.Fold()}
}

// filter keeps insertion order; an empty query keeps every row.
func (m *matcher[E]) filter(rows []E, query string) []E {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]E, len(rows))
		copy(out, rows)
		return out
	}
	needle := m.folder.String(query)
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		if m.matches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

func (m *matcher[E]) matches(row E, needle string) bool {
	for _, f := range m.fields {
		if strings.Contains(m.folder.String(Stringify(f.Value(row))), needle) {
			return true
		}
	}
	return false
}
