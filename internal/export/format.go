package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

// Cell is one rendered value. Quote forces double quotes in CSV output.
type Cell struct {
	Text  string
	Quote bool
}

// Formatter renders field values for a locale.
type Formatter struct {
	tag        language.Tag
	printer    *message.Printer
	dateLayout string
}

var dateLayouts = map[language.Base]string{
	language.MustParseBase("de"): "02.01.2006",
	language.MustParseBase("fr"): "02/01/2006",
	language.MustParseBase("es"): "02/01/2006",
	language.MustParseBase("id"): "02/01/2006",
}

// NewFormatter returns a formatter for tag. English uses ISO dates.
func NewFormatter(tag language.Tag) Formatter {
	layout := time.DateOnly
	if base, conf := tag.Base(); conf != language.No {
		if l, ok := dateLayouts[base]; ok {
			layout = l
		}
	}
	return Formatter{tag: tag, printer: message.NewPrinter(tag), dateLayout: layout}
}

// Tag reports the formatter locale.
func (f Formatter) Tag() language.Tag {
	return f.tag
}

// Format renders v according to kind.
func (f Formatter) Format(kind listctl.Kind, v any) Cell {
	switch kind {
	case listctl.KindNumber:
		return Cell{Text: f.number(v)}
	case listctl.KindDate:
		return Cell{Text: f.date(v)}
	case listctl.KindBool:
		return Cell{Text: listctl.Stringify(v)}
	default:
		return Cell{Text: listctl.Stringify(v), Quote: true}
	}
}

func (f Formatter) number(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return f.decimal(n)
	case *decimal.Decimal:
		if n == nil {
			return ""
		}
		return f.decimal(*n)
	case decimal.NullDecimal:
		if !n.Valid {
			return ""
		}
		return f.decimal(n.Decimal)
	case int:
		return f.printer.Sprintf("%d", n)
	case int32:
		return f.printer.Sprintf("%d", n)
	case int64:
		return f.printer.Sprintf("%d", n)
	case float64:
		return f.printer.Sprintf("%v", n)
	default:
		return listctl.Stringify(v)
	}
}

func (f Formatter) decimal(d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	if d.IsInteger() && places == 0 {
		return f.printer.Sprintf("%d", d.IntPart())
	}
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", places), d.InexactFloat64())
}

func (f Formatter) date(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(f.dateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(f.dateLayout)
	default:
		return listctl.Stringify(v)
	}
}
