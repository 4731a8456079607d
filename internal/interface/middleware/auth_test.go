package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodhaven/moodhaven/pkg/helpers"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *miniredis.Miniredis, *helpers.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	r := gin.New()
	r.GET("/me", Auth(rdb, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	})
	return r, mr, jwt
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r, _, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsWithoutSession(t *testing.T) {
	r, _, jwt := setupAuthRouter(t)

	token, _, err := jwt.GenerateAccessToken("u1", "sid1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsRotatedSession(t *testing.T) {
	r, mr, jwt := setupAuthRouter(t)

	// Session was rotated to a new sid; the old token must stop working.
	mr.HSet("user:session:u1", "user_id", "u1", "sid", "sid2")
	token, _, err := jwt.GenerateAccessToken("u1", "sid1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsLiveSession(t *testing.T) {
	r, mr, jwt := setupAuthRouter(t)

	mr.HSet("user:session:u1", "user_id", "u1", "sid", "sid1", "name", "Ana", "email", "ana@example.com")
	token, _, err := jwt.GenerateAccessToken("u1", "sid1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}
