package masterdata_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/masterdata/items"
	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

type itemView = listctl.View[items.Item]

type itemMutation struct {
	Item *items.Item `json:"item"`
	View itemView    `json:"view"`
}

func storedState(t *testing.T, h *harness, entity string) listctl.State {
	t.Helper()
	var state listctl.State
	raw := h.sess.Get("list:" + entity)
	require.NotEmpty(t, raw)
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	return state
}

func TestListPaginatesAndPersistsState(t *testing.T) {
	h := newHarness(t, "warehouse")

	rec := h.do(t, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[itemView](t, rec)
	assert.Equal(t, 12, view.Total)
	assert.Len(t, view.Items, 10)
	assert.Equal(t, 2, view.Pagination.TotalPages)

	rec = h.do(t, http.MethodPut, "/api/items/page", map[string]int{"page": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[itemView](t, rec)
	assert.Equal(t, 2, view.Pagination.Page)
	assert.Len(t, view.Items, 2)

	rec = h.do(t, http.MethodPut, "/api/items/filter", map[string]string{"value": "GADGET"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[itemView](t, rec)
	assert.Equal(t, 4, view.Filtered)
	assert.Equal(t, 1, view.Pagination.Page)

	state := storedState(t, h, "items")
	assert.Equal(t, "GADGET", state.Filter)
	assert.Equal(t, 1, state.Page)

	// The next request rebuilds the controller from the session.
	rec = h.do(t, http.MethodGet, "/api/items", nil)
	view = decodeBody[itemView](t, rec)
	assert.Equal(t, "GADGET", view.Filter)
	assert.Equal(t, 4, view.Filtered)
	assert.Equal(t, 1, h.api.count("GET /items"), "list served from cache")
}

func TestSortColumnsAndPageSize(t *testing.T) {
	h := newHarness(t, "warehouse")

	rec := h.do(t, http.MethodPost, "/api/items/sort", map[string]string{"column": "quantity"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPost, "/api/items/sort", map[string]string{"column": "quantity"})
	view := decodeBody[itemView](t, rec)
	assert.Equal(t, listctl.SortDesc, view.SortDirection)
	assert.Equal(t, "ITM-012", view.Items[0].ID)

	rec = h.do(t, http.MethodPost, "/api/items/sort", map[string]string{"column": "colour"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	problem := decodeBody[httpx.ProblemDetail](t, rec)
	assert.Equal(t, "unknown column", problem.Errors["column"])

	rec = h.do(t, http.MethodPut, "/api/items/page-size", map[string]int{"page_size": 7})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/items/page-size", map[string]int{"page_size": 25})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[itemView](t, rec).Items, 12)

	rec = h.do(t, http.MethodPut, "/api/items/columns", map[string]any{"column": "sku", "visible": false})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, col := range decodeBody[itemView](t, rec).Columns {
		if col.Key == "sku" {
			assert.False(t, col.Visible)
		}
	}

	rec = h.do(t, http.MethodPut, "/api/items/columns", map[string]any{"column": "sku"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddValidationNeverReachesBackend(t *testing.T) {
	h := newHarness(t, "warehouse")

	rec := h.do(t, http.MethodPost, "/api/items", map[string]any{"sku": "", "name": "", "price": "-1"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	problem := decodeBody[httpx.ProblemDetail](t, rec)
	assert.Contains(t, problem.Errors, "sku")
	assert.Contains(t, problem.Errors, "name")
	assert.Contains(t, problem.Errors, "category_id")
	assert.Contains(t, problem.Errors, "price")
	assert.Empty(t, h.api.callLog())

	rec = h.do(t, http.MethodPost, "/api/items", `{"sku":"A","name":"B","category_id":1,"colour":"red"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, h.api.callLog())
}

func TestAddCreatesAndRefetches(t *testing.T) {
	h := newHarness(t, "warehouse")
	form := map[string]any{"sku": "abc-13", "name": "Doohickey", "category_id": 2, "price": "3.25", "quantity": 5}

	rec := h.do(t, http.MethodPost, "/api/items", form, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[itemMutation](t, rec)
	require.NotNil(t, out.Item)
	assert.Equal(t, "ITM-013", out.Item.ID)
	assert.Equal(t, "ABC-13", out.Item.SKU)
	assert.Equal(t, "3.25", out.Item.Price.StringFixed(2))
	assert.Equal(t, 13, out.View.Total)
	assert.Equal(t, []string{"GET /items", "POST /items", "GET /items"}, h.api.callLog())

	rec = h.do(t, http.MethodPost, "/api/items", form, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, h.api.count("POST /items"))
}

func TestAddFailureKeepsDialogOpen(t *testing.T) {
	h := newHarness(t, "warehouse")
	h.api.setFailCreate(http.StatusConflict)
	form := map[string]any{"sku": "SKU-1", "name": "Copy", "category_id": 1, "price": "1"}

	rec := h.do(t, http.MethodPost, "/api/items/dialogs/add", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/items", form, "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decodeBody[httpx.ProblemDetail](t, rec)
	assert.Equal(t, "sku already exists", problem.Detail)
	assert.Equal(t, "taken", problem.Errors["sku"])

	state := storedState(t, h, "items")
	assert.Equal(t, listctl.DialogOpen, state.Dialogs.Add.State)
	assert.NotEmpty(t, state.Dialogs.Add.Error)

	h.api.setFailCreate(0)
	rec = h.do(t, http.MethodPost, "/api/items", form, "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusCreated, rec.Code, "failed add releases the idempotency key")
	state = storedState(t, h, "items")
	assert.Equal(t, listctl.DialogClosed, state.Dialogs.Add.State)
}

func TestEditSelectedSendsNormalisedPatch(t *testing.T) {
	h := newHarness(t, "warehouse")

	rec := h.do(t, http.MethodPatch, "/api/items/selected", map[string]any{"name": "x"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/items/dialogs/edit/ITM-002", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[itemView](t, rec)
	require.NotNil(t, view.Editing)
	assert.Equal(t, "ITM-002", view.Editing.ID)
	assert.Equal(t, listctl.DialogOpen, view.Dialogs.Edit.State)

	rec = h.do(t, http.MethodPatch, "/api/items/selected", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodPatch, "/api/items/selected", map[string]any{"sku": " x-2 ", "price": "9.99"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody[itemMutation](t, rec)
	assert.Equal(t, "X-2", out.Item.SKU)
	assert.Nil(t, out.View.Editing)
	assert.Equal(t, listctl.DialogClosed, out.View.Dialogs.Edit.State)
	assert.JSONEq(t, `{"sku":"X-2","price":"9.99"}`, h.api.lastPatch)

	rec = h.do(t, http.MethodPost, "/api/items/dialogs/edit/ITM-999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveSelected(t *testing.T) {
	h := newHarness(t, "warehouse")

	rec := h.do(t, http.MethodPost, "/api/items/dialogs/delete/ITM-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/items/selected", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[itemView](t, rec)
	assert.Equal(t, 11, view.Total)
	assert.Equal(t, 1, h.api.count("DELETE /items/ITM-001"))

	rec = h.do(t, http.MethodDelete, "/api/items/dialogs/bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t, "sales")

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/items", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/api/items/dialogs/add", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/employees", nil).Code)
}

func TestSessionExpiryClearsCredentials(t *testing.T) {
	h := newHarness(t, "warehouse")
	h.api.setExpired(true)

	rec := h.do(t, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	problem := decodeBody[httpx.ProblemDetail](t, rec)
	assert.Equal(t, "/auth/login", problem.Type)
	assert.False(t, h.sess.Authenticated())
	assert.True(t, h.sess.Credentials().Empty())

	// Signed out now, so the role guard answers before the controller runs.
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/items", nil).Code)
}

func TestSessionExpiryRedirectsBrowsers(t *testing.T) {
	h := newHarness(t, "warehouse")
	h.api.setExpired(true)

	rec := h.do(t, http.MethodGet, "/api/items", nil, "Accept", "text/html")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestSynchronousCSVExportUsesFilteredView(t *testing.T) {
	h := newHarness(t, "warehouse")
	h.do(t, http.MethodPut, "/api/items/filter", map[string]string{"value": "gadget"})

	rec := h.do(t, http.MethodGet, "/api/items/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=items-export-2024-03-09.csv", rec.Header().Get("Content-Disposition"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `"ID","SKU","Name","Category","Price","Quantity","Location","Active"`+"\r\n"), body)
	assert.Equal(t, 5, strings.Count(body, "\r\n"))
	assert.Contains(t, body, `"Gadget 12"`)
	assert.NotContains(t, body, "Widget")

	h.do(t, http.MethodPut, "/api/items/filter", map[string]string{"value": "nothing matches"})
	rec = h.do(t, http.MethodGet, "/api/items/export.csv", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "nothing to export", decodeBody[httpx.ProblemDetail](t, rec).Detail)
}
