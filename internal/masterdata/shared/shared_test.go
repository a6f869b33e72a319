package shared

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"5551234567":        "(555) 123-4567",
		"555.123.4567":      "(555) 123-4567",
		"+1 (555) 123 4567": "(555) 123-4567",
		"555":               "(555",
		"55512":             "(555) 12",
		"5551234":           "(555) 123-4",
		"":                  "",
		"  ext  ":           "ext",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPhone(in), in)
	}
	assert.True(t, ValidPhone("1-555-123-4567"))
	assert.False(t, ValidPhone("555-1234"))
}

type sampleForm struct {
	Name  string           `json:"name" validate:"required,max=5"`
	Email string           `json:"email" validate:"omitempty,email"`
	Phone string           `json:"phone" validate:"required,phone"`
	Price decimal.Decimal  `json:"price" validate:"gte=0"`
	Limit *decimal.Decimal `json:"limit,omitempty" validate:"omitempty,gt=0"`
	Day   string           `json:"day" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidateFormKeysByJSONName(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	err := ValidateForm(sampleForm{Name: "too long", Email: "nope", Phone: "123", Price: neg, Limit: &neg, Day: "31/12/2024"})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, httpx.FieldErrors{
		"name":  "must be at most 5 characters",
		"email": "must be a valid email address",
		"phone": "must be a 10 digit phone number",
		"price": "must be greater than or equal to 0",
		"limit": "must be greater than 0",
		"day":   "must be a date formatted as 2006-01-02",
	}, verr.Fields)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	require.NoError(t, ValidateForm(sampleForm{Name: "Lamp", Phone: "(555) 123-4567", Price: decimal.NewFromInt(3)}))
}

func TestAuditStampAndTouch(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Audit{}.Stamp(t0)
	assert.Equal(t, t0, a.CreatedAt)
	b := a.Touch(t0.Add(time.Hour))
	assert.Equal(t, t0, b.CreatedAt)
	assert.True(t, b.UpdatedAt.After(b.CreatedAt))
}

func TestParseNumericID(t *testing.T) {
	n, err := ParseNumericID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	_, err = ParseNumericID("ITM-001")
	require.ErrorIs(t, err, httpx.ErrValidation)
}
