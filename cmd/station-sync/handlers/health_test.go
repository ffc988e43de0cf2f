package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stationprofiles/station-sync/common/bootstrap"
	"github.com/stationprofiles/station-sync/common/config"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stationprofiles/station-sync/common/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status    string           `json:"status"`
	Backend   string           `json:"backend"`
	RateLimit map[string]int64 `json:"rate_limit"`
}

func getHealth(t *testing.T, h *HealthHandler) healthBody {
	t.Helper()
	e := echo.New()
	e.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.7:51000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body healthBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func healthComponents(limit int64) *bootstrap.Components {
	return &bootstrap.Components{
		Config: &config.Config{
			Service: config.ServiceConfig{Name: "station-sync"},
			Store:   config.StoreConfig{Backend: "memory"},
			Redis:   config.RedisConfig{RateLimitPerMinute: limit},
		},
		Logger: logger.Discard(),
	}
}

func TestHealth_WithoutRateLimiter(t *testing.T) {
	body := getHealth(t, NewHealthHandler(healthComponents(0), nil))

	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "memory", body.Backend)
	assert.Nil(t, body.RateLimit)
}

func TestHealth_ReportsCallerRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter := ratelimit.NewRateLimiter(rdb, logger.Discard())

	for i := 0; i < 2; i++ {
		_, err := limiter.CheckClientLimit(context.Background(), "10.0.0.7", 5)
		require.NoError(t, err)
	}

	body := getHealth(t, NewHealthHandler(healthComponents(5), limiter))

	require.NotNil(t, body.RateLimit)
	assert.Equal(t, int64(5), body.RateLimit["limit"])
	assert.Equal(t, int64(2), body.RateLimit["used"])
	assert.Equal(t, int64(ratelimit.DefaultWindowSeconds), body.RateLimit["window_seconds"])
}
