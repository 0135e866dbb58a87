package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Ключ контекста с идентификатором аутентифицированного пользователя
const ContextUserID = "auth_user_id"

// AuthConfig конфигурация token-аутентификации
type AuthConfig struct {
	// Tokens карта bearer-токенов к идентификаторам пользователей
	Tokens map[string]string
	// HeaderName имя заголовка (по умолчанию: Authorization)
	HeaderName string
}

// TokenAuth middleware аутентификации по bearer-токену. Сессии и
// identity живут во внешней платформе - здесь только проверка, что
// предъявленный токен известен, и привязка запроса к пользователю.
type TokenAuth struct {
	config AuthConfig
}

// NewTokenAuth создаёт новый auth middleware
func NewTokenAuth(config AuthConfig) *TokenAuth {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	return &TokenAuth{config: config}
}

// Middleware возвращает Gin handler, требующий валидный токен
func (ta *TokenAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader(ta.config.HeaderName)
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		// Запасной вариант: заголовок X-API-Key
		if token == "" {
			token = c.GetHeader("X-API-Key")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Требуется токен. Передайте его через Authorization: Bearer или заголовок X-API-Key",
			})
			c.Abort()
			return
		}

		// Валидация токена с использованием constant-time comparison
		userID := ""
		for validToken, uid := range ta.config.Tokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) == 1 {
				userID = uid
				break
			}
		}

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Невалидный токен",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// RequireAuth хелпер для создания middleware из карты токенов
func RequireAuth(tokens map[string]string) gin.HandlerFunc {
	ta := NewTokenAuth(AuthConfig{Tokens: tokens})
	return ta.Middleware()
}

// UserFromContext извлекает идентификатор пользователя из контекста
func UserFromContext(c *gin.Context) (string, bool) {
	uid, exists := c.Get(ContextUserID)
	if !exists {
		return "", false
	}
	return uid.(string), true
}
