package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/moodhaven/moodhaven/pkg/helpers"
)

func setupLimitedRouter(t *testing.T, max int, allow AllowFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0)

	r := gin.New()
	r.GET("/ping", RateLimit(rdb, max, time.Minute, KeyByIPAndPath(), allow), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func doGet(r *gin.Engine, fwdFor string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if fwdFor != "" {
		req.Header.Set("X-Forwarded-For", fwdFor)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitEnforcesMax(t *testing.T) {
	r := setupLimitedRouter(t, 2, nil)

	assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "").Code)

	w := doGet(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitHeaders(t *testing.T) {
	r := setupLimitedRouter(t, 5, nil)

	w := doGet(r, "")
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitAllowBypass(t *testing.T) {
	always := AllowFunc(func(*gin.Context) bool { return true })
	r := setupLimitedRouter(t, 1, always)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	}
}

func TestRateLimitNilRedisFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	}
}
