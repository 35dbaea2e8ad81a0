package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func adminTestRouter(t *testing.T, jwtSecret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Conf = &config.Config{Admin: config.AdminConfig{JWTSecret: jwtSecret}}

	r := gin.New()
	r.GET("/guarded", AdminRequired(zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func getGuarded(r *gin.Engine, authorization string) int {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAdminRequired(t *testing.T) {
	r := adminTestRouter(t, "test-jwt-secret")

	assert.Equal(t, http.StatusUnauthorized, getGuarded(r, ""))
	assert.Equal(t, http.StatusUnauthorized, getGuarded(r, "Bearer not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, getGuarded(r, "Token abc"))

	valid := signToken(t, "test-jwt-secret", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, getGuarded(r, "Bearer "+valid))

	expired := signToken(t, "test-jwt-secret", time.Now().Add(-time.Hour))
	assert.Equal(t, http.StatusUnauthorized, getGuarded(r, "Bearer "+expired))

	wrongKey := signToken(t, "some-other-secret", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, getGuarded(r, "Bearer "+wrongKey))
}

func TestAdminRequiredDisabledWithoutSecret(t *testing.T) {
	r := adminTestRouter(t, "")

	valid := signToken(t, "anything", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusForbidden, getGuarded(r, "Bearer "+valid))
}
