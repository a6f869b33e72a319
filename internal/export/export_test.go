package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/listctl"
)

type vendor struct {
	Name    string
	Balance decimal.Decimal
	Orders  int
	Active  bool
	Since   time.Time
}

var vendorFields = []listctl.Field[vendor]{
	{Key: "name", Label: "Name", Kind: listctl.KindString, Value: func(v vendor) any { return v.Name }},
	{Key: "balance", Label: "Balance", Kind: listctl.KindNumber, Value: func(v vendor) any { return v.Balance }},
	{Key: "orders", Label: "Orders", Kind: listctl.KindNumber, Value: func(v vendor) any { return v.Orders }},
	{Key: "active", Label: "Active", Kind: listctl.KindBool, Value: func(v vendor) any { return v.Active }},
	{Key: "since", Label: "Since", Kind: listctl.KindDate, Value: func(v vendor) any { return v.Since }},
}

func sampleVendors() []vendor {
	return []vendor{
		{Name: "Widget, Inc.", Balance: decimal.RequireFromString("1234.50"), Orders: 12, Active: true, Since: time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)},
		{Name: "Plain", Balance: decimal.RequireFromString("20"), Orders: 3, Since: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
}

func TestWriteCSVQuotesStringsAndFormatsNumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, vendorFields, sampleVendors(), NewFormatter(language.English)))

	lines := strings.Split(buf.String(), "\r\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"Name","Balance","Orders","Active","Since"`, lines[0])
	assert.Equal(t, `"Widget, Inc.","1,234.50",12,true,2023-07-04`, lines[1])
	assert.Equal(t, `"Plain",20,3,false,2024-01-15`, lines[2])
	assert.Empty(t, lines[3])
}

func TestWriteCSVEscapesEmbeddedQuotes(t *testing.T) {
	var buf bytes.Buffer
	rows := []vendor{{Name: `The "Best" Shop`}}
	require.NoError(t, WriteCSV(&buf, vendorFields[:1], rows, NewFormatter(language.English)))
	assert.Equal(t, "\"Name\"\r\n\"The \"\"Best\"\" Shop\"\r\n", buf.String())
}

func TestWriteCSVLocaleDates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, vendorFields[4:], sampleVendors()[:1], NewFormatter(language.German)))
	assert.Equal(t, "\"Since\"\r\n04.07.2023\r\n", buf.String())
}

func TestNothingToExport(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, WriteCSV(&buf, vendorFields, nil, NewFormatter(language.English)), ErrNothingToExport)
	require.ErrorIs(t, WriteXLSX(&buf, vendorFields, []vendor{}, NewFormatter(language.English)), ErrNothingToExport)
	assert.Zero(t, buf.Len())
}

func TestWriteXLSXMatchesCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, vendorFields, sampleVendors(), NewFormatter(language.English)))

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()

	assert.Equal(t, xlsxSheet, book.GetSheetName(0))
	rows, err := book.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Balance", "Orders", "Active", "Since"}, rows[0])
	assert.Equal(t, "Widget, Inc.", rows[1][0])
	assert.Equal(t, "Plain", rows[2][0])

	raw, err := book.GetCellValue(xlsxSheet, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12", raw)
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "items-export-2024-02-29.csv", Filename("items", FormatCSV, day))
	assert.Equal(t, "orders-export-2024-02-29.xlsx", Filename("orders", FormatXLSX, day))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}
