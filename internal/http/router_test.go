package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	intconfig "tableadmin/internal/config"
	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/gateway"
	"tableadmin/internal/services"
	"tableadmin/internal/session"
	"tableadmin/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type console struct {
	t      *testing.T
	router *gin.Engine
	store  *gateway.MemoryStore
	cookie *http.Cookie
}

func newConsole(t *testing.T, records ...models.Record) *console {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := gateway.NewMemoryStore(records...)
	reg := session.NewRegistry(store, services.NewTicketSigner("test-secret"), 0)
	return &console{t: t, router: NewRouter(intconfig.Env{}, reg), store: store}
}

// open loads the console page, which is what hands out the session cookie.
func (c *console) open() {
	c.t.Helper()
	w := c.do(http.MethodGet, "/", nil)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(c.t, c.cookie)
}

func (c *console) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type viewBody struct {
	View state.View `json:"view"`
}

type pendingBody struct {
	Pending services.PendingAction `json:"pending"`
}

type errorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
	Details   struct {
		Deleted []int64 `json:"deleted"`
		Failed  []int64 `json:"failed"`
	} `json:"details"`
}

func item(id int64, name, amount string, st models.Status) models.Record {
	return models.NewItem(id, models.ItemFields{LastName: name, Email: strings.ToLower(name) + "@example.com"}, amount, st)
}

func threeRecords() []models.Record {
	return []models.Record{
		item(1, "Ames", "$100.00", models.StatusActive),
		item(2, "Bell", "$50.00", models.StatusActive),
		item(3, "Cole", "$1,200.00", models.StatusActive),
	}
}

func TestHealth(t *testing.T) {
	c := newConsole(t)
	w := c.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestConsolePageIssuesSessionCookie(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	w := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)
	body := w.Body.String()
	assert.Contains(t, body, "Ames")
	assert.Contains(t, body, "$1,200.00")
	assert.Contains(t, body, "Showing 1 to 3 of 3 entries")

	first := c.cookie.Value
	c.do(http.MethodGet, "/api/view", nil)
	assert.Equal(t, first, c.cookie.Value)
}

func TestAPIWithoutSessionIsRejected(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	for _, path := range []string{"/api/view", "/api/summary"} {
		w := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "no_session", decode[errorBody](t, w).Code)
		assert.Nil(t, c.cookie)
	}
	w := c.do(http.MethodPost, "/api/view/filter", gin.H{"status": "Active"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c.open()
	w = c.do(http.MethodGet, "/api/view", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type unreachableGateway struct {
	*gateway.MemoryStore
}

func (unreachableGateway) ListRecords(context.Context, domain.ListQuery) (domain.ListResult, error) {
	return domain.ListResult{}, domain.TransportError{Op: "list records", Err: errors.New("connection refused")}
}

func TestConsolePageFailedFirstLoadShowsBanner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := session.NewRegistry(unreachableGateway{gateway.NewMemoryStore()}, services.NewTicketSigner("test-secret"), 0)
	r := NewRouter(intconfig.Env{}, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "connection refused")
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestEmptyTableShowsPlaceholder(t *testing.T) {
	c := newConsole(t)
	c.open()
	w := c.do(http.MethodGet, "/api/view/rows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No data available")
}

func TestFilterAndSort(t *testing.T) {
	recs := threeRecords()
	recs[1].Status = models.StatusInactive
	c := newConsole(t, recs...)
	c.open()

	w := c.do(http.MethodPost, "/api/view/filter", gin.H{"status": "Active", "minAmount": "$150.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decode[viewBody](t, w).View
	require.Len(t, v.Records, 1)
	assert.Equal(t, int64(3), v.Records[0].ID)

	w = c.do(http.MethodPost, "/api/view/filter", gin.H{"minAmount": "lots"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).RequestID)

	c.do(http.MethodPost, "/api/view/filter/reset", nil)
	w = c.do(http.MethodPost, "/api/view/sort", gin.H{"field": "amount", "toggle": true})
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[viewBody](t, w).View
	require.Len(t, v.Records, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{v.Records[0].ID, v.Records[1].ID, v.Records[2].ID})

	w = c.do(http.MethodPost, "/api/view/sort", gin.H{"field": "amount", "toggle": true})
	v = decode[viewBody](t, w).View
	assert.Equal(t, domain.OrderDesc, v.Sort.Order)
	assert.Equal(t, int64(3), v.Records[0].ID)

	w = c.do(http.MethodPost, "/api/view/sort", gin.H{"field": "password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaging(t *testing.T) {
	var recs []models.Record
	for i := int64(1); i <= 25; i++ {
		recs = append(recs, item(i, "N", "$1.00", models.StatusActive))
	}
	c := newConsole(t, recs...)
	c.open()

	w := c.do(http.MethodPost, "/api/view/page/next", nil)
	v := decode[viewBody](t, w).View
	assert.Equal(t, 2, v.Pagination.Page)
	assert.Equal(t, 3, v.Pagination.TotalPages)

	w = c.do(http.MethodPost, "/api/view/page", gin.H{"page": 9})
	v = decode[viewBody](t, w).View
	assert.Equal(t, 3, v.Pagination.Page)
	assert.Len(t, v.Records, 5)

	w = c.do(http.MethodPost, "/api/view/page/prev", nil)
	v = decode[viewBody](t, w).View
	assert.Equal(t, 2, v.Pagination.Page)
}

func TestBulkStatusChange(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	c.open()

	w := c.do(http.MethodPost, "/api/view/select", gin.H{"id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	c.do(http.MethodPost, "/api/view/select", gin.H{"id": 3})

	w = c.do(http.MethodGet, "/api/view/selection", nil)
	sel := decode[struct {
		Selection state.Selection `json:"selection"`
	}](t, w).Selection
	assert.Equal(t, 2, sel.Count)
	assert.Equal(t, "Set Inactive", sel.Action.Label)
	assert.Equal(t, "$1,300.00", sel.TotalText)

	w = c.do(http.MethodPost, "/api/bulk/status/prepare", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[pendingBody](t, w).Pending
	assert.Equal(t, models.StatusInactive, p.Target)
	assert.Contains(t, p.Message, "$1,300.00")

	w = c.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), p.Message)

	w = c.do(http.MethodPost, "/api/bulk/confirm", gin.H{"ticket": p.Ticket})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, id := range []int64{1, 3} {
		r, ok := c.store.Get(id)
		require.True(t, ok)
		assert.Equal(t, models.StatusInactive, r.Status)
	}
	r, _ := c.store.Get(2)
	assert.Equal(t, models.StatusActive, r.Status)

	w = c.do(http.MethodPost, "/api/bulk/confirm", gin.H{"ticket": p.Ticket})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBulkDeletePartialFailure(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	c.store.FailOn = func(op string, id int64) error {
		if op == "delete" && id == 2 {
			return domain.TransportError{Op: "delete", Status: http.StatusInternalServerError, Err: errors.New("boom")}
		}
		return nil
	}
	c.open()
	c.do(http.MethodPost, "/api/view/select-all", gin.H{"checked": true})

	w := c.do(http.MethodPost, "/api/bulk/delete/prepare", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[pendingBody](t, w).Pending
	assert.Len(t, p.Lines, 3)

	w = c.do(http.MethodPost, "/api/bulk/confirm", gin.H{"ticket": p.Ticket})
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "partial_failure", body.Code)
	assert.Equal(t, "2 of 3 deleted", body.Message)
	assert.Equal(t, []int64{2}, body.Details.Failed)
	assert.ElementsMatch(t, []int64{1, 3}, body.Details.Deleted)

	assert.Equal(t, 1, c.store.Len())
	_, ok := c.store.Get(2)
	assert.True(t, ok)

	w = c.do(http.MethodGet, "/api/bulk/progress", nil)
	prog := decode[struct {
		Progress services.Progress `json:"progress"`
	}](t, w).Progress
	assert.False(t, prog.Running)
	assert.Equal(t, 1, prog.Failed)
}

func TestBulkCancel(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	c.open()

	w := c.do(http.MethodPost, "/api/bulk/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/bulk/delete/prepare", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c.do(http.MethodPost, "/api/view/select", gin.H{"id": 2})
	c.do(http.MethodPost, "/api/bulk/delete/prepare", nil)
	w = c.do(http.MethodPost, "/api/bulk/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, c.store.Len())
}

func TestRecordLifecycle(t *testing.T) {
	c := newConsole(t, threeRecords()...)
	c.open()

	w := c.do(http.MethodGet, "/api/records/new?kind=transfer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"transfer"`)

	w = c.do(http.MethodPost, "/api/records", gin.H{"kind": "item", "amount": "12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/records", gin.H{
		"kind": "item", "amount": "1234.5", "lastName": "Diaz", "email": "diaz@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Record models.Record `json:"record"`
	}](t, w).Record
	assert.Equal(t, "$1,234.50", created.Amount)
	assert.Equal(t, 4, c.store.Len())

	w = c.do(http.MethodGet, "/api/records/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Delete this record?")

	w = c.do(http.MethodPut, "/api/records/1", gin.H{
		"kind": "item", "amount": "$99.00", "status": "Inactive", "lastName": "Ames",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	r, _ := c.store.Get(1)
	assert.Equal(t, "$99.00", r.Amount)
	assert.Equal(t, models.StatusInactive, r.Status)

	w = c.do(http.MethodDelete, "/api/records/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodDelete, "/api/records/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodDelete, "/api/records/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryAndExport(t *testing.T) {
	recs := threeRecords()
	recs[1].Status = models.StatusInactive
	c := newConsole(t, recs...)
	c.open()

	w := c.do(http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"TotalAmount":"$1,350.00"`)
	assert.Contains(t, w.Body.String(), `"InactiveAmount":"$50.00"`)

	w = c.do(http.MethodGet, "/api/export/xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w = c.do(http.MethodGet, "/api/export/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestUnknownRoute(t *testing.T) {
	c := newConsole(t)
	w := c.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutesListing(t *testing.T) {
	c := newConsole(t)
	w := c.do(http.MethodGet, "/api/routes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Routes []string `json:"routes"`
	}](t, w)
	assert.Contains(t, body.Routes, "POST /api/bulk/confirm")
	assert.Contains(t, body.Routes, "GET /api/export/xlsx")
}
