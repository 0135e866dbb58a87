package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig конфигурация rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64       // Количество запросов в секунду на один ключ
	BurstSize         int           // Максимальный размер burst
	CleanupInterval   time.Duration // Интервал очистки неактивных ключей
}

// DefaultRateLimiterConfig конфигурация по умолчанию
var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 10,
	BurstSize:         20,
	CleanupInterval:   time.Minute,
}

// bucket token bucket одного ключа (IP или пользователь)
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничение запросов по алгоритму Token Bucket.
// Публичные редиректы лимитируются по IP, дашборд-API - по
// аутентифицированному пользователю.
type RateLimiter struct {
	config  RateLimiterConfig
	buckets map[string]*bucket
	mu      sync.Mutex
}

// NewRateLimiter создаёт новый rate limiter middleware
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
	}

	// Горутина периодической очистки неактивных ключей
	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if time.Since(b.lastSeen) > rl.config.CleanupInterval*3 {
			delete(rl.buckets, key)
		}
	}
}

// getLimiter возвращает или создаёт token bucket для данного ключа
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, exists := rl.buckets[key]; exists {
		b.lastSeen = time.Now()
		return b.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
	rl.buckets[key] = &bucket{
		limiter:  limiter,
		lastSeen: time.Now(),
	}

	return limiter
}

// Middleware лимитирует по IP клиента. Используется на публичных
// редиректах, где пользователь неизвестен.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.limitBy(func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// MiddlewareByUser лимитирует по аутентифицированному пользователю,
// чтобы клиенты за общим NAT не выедали друг другу квоту. До
// аутентификации откатывается на IP.
func (rl *RateLimiter) MiddlewareByUser() gin.HandlerFunc {
	return rl.limitBy(func(c *gin.Context) string {
		if uid, ok := UserFromContext(c); ok {
			return "user:" + uid
		}
		return c.ClientIP()
	})
}

func (rl *RateLimiter) limitBy(key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(key(c))

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Слишком много запросов, попробуйте позже",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
