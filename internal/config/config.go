package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Razorpay  RazorpayConfig
	GeoIP     GeoIPConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port string
	// BaseURL публичный хост редиректа (подставляется в поле short)
	BaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	Tokens map[string]string // bearer token -> user id
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type GeoIPConfig struct {
	DBPath string // путь к MaxMind City .mmdb, пустая строка = без геолокации
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	cfg.App.BaseURL = strings.TrimRight(viper.GetString("BASE_URL"), "/")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:8080"
	}
	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")
	cfg.Redis.Password = viper.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = viper.GetInt("REDIS_DB")
	cfg.Razorpay.KeyID = viper.GetString("RAZORPAY_KEY_ID")
	cfg.Razorpay.KeySecret = viper.GetString("RAZORPAY_KEY_SECRET")
	cfg.GeoIP.DBPath = viper.GetString("GEOIP_DB_PATH")

	// Auth config - parse bearer tokens from comma-separated string
	// Format: token1:user1,token2:user2
	tokensRaw := viper.GetString("AUTH_TOKENS")
	cfg.Auth.Tokens = parseAuthTokens(tokensRaw)

	// Rate limit config
	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	return &cfg, nil
}

// parseAuthTokens parses comma-separated tokens in format "token1:user1,token2:user2"
func parseAuthTokens(raw string) map[string]string {
	tokens := make(map[string]string)
	if raw == "" {
		return tokens
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			tokens[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return tokens
}
