package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stationprofiles/station-sync/common/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (l *testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *testLogger) Error(msg string, keysAndValues ...interface{}) {}
func (l *testLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (l *testLogger) Debug(msg string, keysAndValues ...interface{}) {}

func newEcho(t *testing.T, mr *miniredis.Miniredis, limit int64) *echo.Echo {
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.Use(ClientRateLimitMiddleware(ratelimit.NewRateLimiter(rdb, &testLogger{}), limit))
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.POST("/stations", handler)
	e.OPTIONS("/stations", handler)
	return e
}

func do(e *echo.Echo, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/stations", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClientRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	e := newEcho(t, mr, 2)

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost).Code)

	rec := do(e, http.MethodPost)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)

	assert.Equal(t, http.StatusOK, do(e, http.MethodOptions).Code)
}

func TestClientRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	e := newEcho(t, mr, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost).Code)
}
