package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, roles ...string) (*gin.Engine, *utils.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(tokens)}
	if len(roles) > 0 {
		handlers = append(handlers, RoleAuthMiddleware(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64("userID")})
	})
	r.GET("/", handlers...)
	return r, tokens
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, tokens := newEngine(t)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Basic abc").Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := utils.NewTokenManager("other-secret", time.Hour)
		require.NoError(t, err)
		tok, err := other.GenerateAccessToken(1, "u", RoleCustomer)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+tok).Code)
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := tokens.GenerateAccessToken(12, "ayse", RoleCustomer)
		require.NoError(t, err)
		w := get(r, "Bearer "+tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userID":12}`, w.Body.String())
	})
}

func TestRoleAuthMiddleware(t *testing.T) {
	r, tokens := newEngine(t, RoleAdmin)

	customer, err := tokens.GenerateAccessToken(3, "c", RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+customer).Code)

	admin, err := tokens.GenerateAccessToken(1, "a", "Admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+admin).Code)
}
