package listctl

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
)

// Direction is the active sort direction; the empty value means unsorted.
type Direction string

const (
	SortNone Direction = ""
	SortAsc  Direction = "asc"
	SortDesc Direction = "desc"
)

// next advances asc → desc → none.
func (d Direction) next() Direction {
	switch d {
	case SortAsc:
		return SortDesc
	case SortDesc:
		return SortNone
	default:
		return SortAsc
	}
}

type sorter[E any] struct {
	collator *collate.Collator
}

// sortRows sorts a copy of rows. Descending is the reverse of the stable
// ascending order.
func (s *sorter[E]) sortRows(rows []E, field Field[E], dir Direction) []E {
	out := make([]E, len(rows))
	copy(out, rows)
	if dir == SortNone {
		return out
	}
	cmp := field.Compare
	if cmp == nil {
		cmp = func(a, b E) int {
			return s.compareValues(field.Kind, field.Value(a), field.Value(b))
		}
	}
	slices.SortStableFunc(out, cmp)
	if dir == SortDesc {
		slices.Reverse(out)
	}
	return out
}

func (s *sorter[E]) compareValues(kind Kind, a, b any) int {
	if a == nil || b == nil {
		return compareNil(a, b)
	}
	switch kind {
	case KindNumber:
		da, okA := toDecimal(a)
		db, okB := toDecimal(b)
		if okA && okB {
			return da.Cmp(db)
		}
	case KindDate:
		ta, okA := toTime(a)
		tb, okB := toTime(b)
		if okA && okB {
			return ta.Compare(tb)
		}
	case KindBool:
		ba, okA := a.(bool)
		bb, okB := b.(bool)
		if okA && okB {
			return compareBool(ba, bb)
		}
	}
	return s.collator.CompareString(Stringify(a), Stringify(b))
}

func compareNil(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	default:
		return 1
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case float64:
		return decimal.NewFromFloat(val), true
	default:
		return decimal.Zero, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	default:
		return time.Time{}, false
	}
}
