package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertiljivenson9/Project-prey/internal/auth"
)

type fakeTokenChecker struct {
	known map[string]bool
}

func (f *fakeTokenChecker) TokenExists(_ context.Context, token string) (bool, error) {
	return f.known[token], nil
}

func setupRouter(secret string, tokens TokenChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(secret, tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	r := setupRouter("secret", &fakeTokenChecker{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	r := setupRouter("secret", &fakeTokenChecker{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer junk")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	token, err := auth.Sign("secret", "user-1", "demo@zprey.com", "Demo User")
	require.NoError(t, err)

	r := setupRouter("secret", &fakeTokenChecker{known: map[string]bool{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	token, err := auth.Sign("secret", "user-1", "demo@zprey.com", "Demo User")
	require.NoError(t, err)

	r := setupRouter("secret", &fakeTokenChecker{known: map[string]bool{token: true}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}
