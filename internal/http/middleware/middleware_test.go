package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tableadmin/internal/gateway"
	"tableadmin/internal/services"
	"tableadmin/internal/session"
	"tableadmin/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDPropagatesToContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx = utils.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", fromCtx)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), fromCtx)
}

func TestSessionsReuseCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := session.NewRegistry(gateway.NewMemoryStore(), services.NewTicketSigner("k"), 0)
	r := gin.New()
	r.Use(Sessions(reg))
	var seen []string
	r.GET("/", func(c *gin.Context) {
		seen = append(seen, CurrentSession(c).ID)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, 1, reg.Len())
}

func TestSessionsRejectCookielessAPICalls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := session.NewRegistry(gateway.NewMemoryStore(), services.NewTicketSigner("k"), 0)
	r := gin.New()
	r.Use(Sessions(reg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/api/view/filter", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/view/filter", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no_session")
		assert.Empty(t, w.Result().Cookies())
	}

	stale := httptest.NewRequest(http.MethodPost, "/api/view/filter", nil)
	stale.AddCookie(&http.Cookie{Name: session.CookieName, Value: "expired-id"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, stale)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, reg.Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/view/filter", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, reg.Len())
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://console.local"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://console.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://console.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
