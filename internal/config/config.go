package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Family rejoin policies. See FamilyRejoinPolicy.
const (
	RejoinReject = "reject"
	RejoinAllow  = "allow"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	Env        string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	JWTSecret      string
	JWTExpiryHours int

	// Timezone names the IANA zone that defines a calendar day for
	// attendance gating and weekly grouping.
	Timezone string

	// FamilyRejoinPolicy decides what happens when a member that already
	// belongs to a family creates or joins another one.
	FamilyRejoinPolicy string

	RedisAddr           string
	RedisPassword       string
	NotifyChannelPrefix string

	SESRegion    string
	SESFromEmail string
	SESFromName  string

	KakaoUserInfoURL string

	LogLevel  string
	LogFormat string

	CORSOrigins            []string
	RateLimitRequests      int
	RateLimitWindowSeconds int
}

// Load reads configuration from an optional .env file and the environment,
// falling back to sensible defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./familyspace.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24*14)
	v.SetDefault("TIMEZONE", "Asia/Seoul")
	v.SetDefault("FAMILY_REJOIN_POLICY", RejoinReject)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("NOTIFY_CHANNEL_PREFIX", "familyspace:family:")
	v.SetDefault("SES_REGION", "ap-northeast-2")
	v.SetDefault("SES_FROM_EMAIL", "")
	v.SetDefault("SES_FROM_NAME", "Family Space")
	v.SetDefault("KAKAO_USERINFO_URL", "https://kapi.kakao.com/v2/user/me")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:             v.GetString("PORT"),
		Env:                    v.GetString("APP_ENV"),
		DatabaseType:           v.GetString("DB_TYPE"),
		DatabasePath:           v.GetString("DB_PATH"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTExpiryHours:         v.GetInt("JWT_EXPIRY_HOURS"),
		Timezone:               v.GetString("TIMEZONE"),
		FamilyRejoinPolicy:     strings.ToLower(v.GetString("FAMILY_REJOIN_POLICY")),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		NotifyChannelPrefix:    v.GetString("NOTIFY_CHANNEL_PREFIX"),
		SESRegion:              v.GetString("SES_REGION"),
		SESFromEmail:           v.GetString("SES_FROM_EMAIL"),
		SESFromName:            v.GetString("SES_FROM_NAME"),
		KakaoUserInfoURL:       v.GetString("KAKAO_USERINFO_URL"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		LogFormat:              v.GetString("LOG_FORMAT"),
		CORSOrigins:            splitList(v.GetString("CORS_ORIGINS")),
		RateLimitRequests:      v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	switch c.FamilyRejoinPolicy {
	case RejoinReject, RejoinAllow:
	default:
		return fmt.Errorf("invalid FAMILY_REJOIN_POLICY %q", c.FamilyRejoinPolicy)
	}
	if c.JWTExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	return nil
}

// Location returns the configured calendar zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JWTExpiry returns the session credential lifetime
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// RateLimitWindow returns the rate limiter window
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
