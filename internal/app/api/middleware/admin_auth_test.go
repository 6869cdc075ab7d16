package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

func newAuthEnv(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminAuthMiddleware(secret))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuthMiddleware(t *testing.T) {
	const secret = "admin-secret"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	r := newAuthEnv(t, secret)

	require.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-token").Code)
	require.Equal(t, http.StatusOK, get(r, "Bearer "+token).Code)

	wrong, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString([]byte("other"))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+wrong).Code)
}

func TestAdminAuthMiddleware_DisabledWithoutSecret(t *testing.T) {
	r := newAuthEnv(t, "")
	require.Equal(t, http.StatusServiceUnavailable, get(r, "Bearer anything").Code)
}
