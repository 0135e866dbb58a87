package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens map[string]string) *gin.Engine {
	router := gin.New()
	router.Use(RequireAuth(tokens))
	router.GET("/whoami", func(c *gin.Context) {
		uid, _ := UserFromContext(c)
		c.String(http.StatusOK, uid)
	})
	return router
}

// TestTokenAuth_BearerToken валидный bearer-токен привязывает запрос
// к пользователю
func TestTokenAuth_BearerToken(t *testing.T) {
	router := newAuthRouter(map[string]string{"secret-token": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

// TestTokenAuth_APIKeyHeader запасной заголовок X-API-Key
func TestTokenAuth_APIKeyHeader(t *testing.T) {
	router := newAuthRouter(map[string]string{"secret-token": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", "secret-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

// TestTokenAuth_MissingToken запрос без токена отклоняется
func TestTokenAuth_MissingToken(t *testing.T) {
	router := newAuthRouter(map[string]string{"secret-token": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing_token")
}

// TestTokenAuth_InvalidToken неизвестный токен отклоняется
func TestTokenAuth_InvalidToken(t *testing.T) {
	router := newAuthRouter(map[string]string{"secret-token": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
}

// TestRateLimiter_AllowsWithinBurst запросы в пределах burst проходят
func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "запрос %d должен пройти", i+1)
	}
}

// TestRateLimiter_BlocksOverBurst запрос сверх burst получает 429
func TestRateLimiter_BlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

// TestRateLimiter_IsolatesClients лимит одного IP не задевает другого
func TestRateLimiter_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1234"))
	// Другой клиент со свежим bucket'ом
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1234"))
}

// TestRateLimiter_ByUser лимит дашборда ключуется по пользователю,
// а не по IP
func TestRateLimiter_ByUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	router := gin.New()
	router.Use(RequireAuth(map[string]string{"token-a": "u1", "token-b": "u2"}))
	router.Use(rl.MiddlewareByUser())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:1234" // Общий NAT-адрес
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("token-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("token-a"))
	// Второй пользователь с того же IP не ограничен первым
	assert.Equal(t, http.StatusOK, send("token-b"))
}
