package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

const xlsxSheet = "Export"

// WriteXLSX writes a single-sheet workbook with the same header as WriteCSV.
// Numbers, dates and booleans keep their cell types.
func WriteXLSX[E any](w io.Writer, fields []listctl.Field[E], rows []E, f Formatter) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	if err := book.SetSheetName(book.GetSheetName(0), xlsxSheet); err != nil {
		return err
	}
	labels := header(fields)
	head := make([]any, len(labels))
	for i, label := range labels {
		head[i] = label
	}
	if err := book.SetSheetRow(xlsxSheet, "A1", &head); err != nil {
		return err
	}
	dateStyle, err := book.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return err
	}

	values := make([]any, len(fields))
	for r, row := range rows {
		for i, field := range fields {
			values[i] = xlsxValue(field.Kind, field.Value(row), f)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return err
		}
	}
	for i, field := range fields {
		if field.Kind != listctl.KindDate {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := book.SetCellStyle(xlsxSheet, fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, len(rows)+1), dateStyle); err != nil {
			return err
		}
	}
	_, err = book.WriteTo(w)
	return err
}

func xlsxValue(kind listctl.Kind, v any, f Formatter) any {
	switch kind {
	case listctl.KindNumber:
		switch n := v.(type) {
		case decimal.Decimal:
			return n.InexactFloat64()
		case *decimal.Decimal:
			if n == nil {
				return nil
			}
			return n.InexactFloat64()
		case int, int32, int64, float64:
			return n
		}
	case listctl.KindDate:
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return nil
			}
			return t
		case *time.Time:
			if t == nil || t.IsZero() {
				return nil
			}
			return *t
		}
	case listctl.KindBool:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return f.Format(kind, v).Text
}
