package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("item ITM-9: %w", ErrNotFound): http.StatusNotFound,
		ErrDuplicate:       http.StatusConflict,
		ErrForbidden:       http.StatusForbidden,
		ErrUnauthorized:    http.StatusUnauthorized,
		fmt.Errorf("boom"): http.StatusInternalServerError,
	}
	for err, status := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, err)
		assert.Equal(t, status, rec.Code, err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("dial tcp 10.0.0.1: refused"))
	var p ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Empty(t, p.Detail)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("create: %w", &ValidationError{Fields: FieldErrors{"name": "is required"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var p ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, FieldErrors{"name": "is required"}, p.Errors)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":}`))
	err = DecodeJSON(req, &target)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "malformed JSON", verr.Fields["body"])
}
