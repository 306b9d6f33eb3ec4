package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	ProfileDemo     = "demo"
	ProfileHardened = "hardened"
)

// Config holds runtime configuration loaded from environment variables.
// Profile collapses the historical demo/hardened server variants into one
// switch: password policy, cookie strictness, CSP and guest access all key
// off it.
type Config struct {
	Profile            string
	DatabaseURL        string
	SessionSecret      string
	JWTSecret          string
	JWTIssuer          string
	AccessTTLSeconds   int64
	RefreshTTLSeconds  int64
	SessionTTLSeconds  int64
	CorsOrigins        []string
	RateLimitWindowSec int
	RateLimitMax       int
	DailyQuestionLimit int
	BodyLimitBytes     int64
	BcryptCost         int
	LogDir             string
	LogRetentionDays   int
}

func Load() Config {
	profile := strings.ToLower(envOr("PROFILE", ProfileDemo))
	if profile != ProfileDemo && profile != ProfileHardened {
		profile = ProfileDemo
	}
	cfg := Config{
		Profile:            profile,
		DatabaseURL:        envOr("DATABASE_URL", ""),
		SessionSecret:      envOr("SESSION_SECRET", ""),
		JWTSecret:          mustEnv("JWT_SECRET"),
		JWTIssuer:          envOr("JWT_ISSUER", "excelbot"),
		AccessTTLSeconds:   int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds:  int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		SessionTTLSeconds:  int64(envOrInt("SESSION_TTL_SECONDS", 86400)),
		CorsOrigins:        parseCSV(envOr("CORS_ORIGINS", "")),
		RateLimitWindowSec: envOrInt("RATE_LIMIT_WINDOW_SECONDS", 900),
		RateLimitMax:       envOrInt("RATE_LIMIT_MAX", 100),
		DailyQuestionLimit: envOrInt("DAILY_QUESTION_LIMIT", 20),
		BodyLimitBytes:     int64(envOrInt("BODY_LIMIT_BYTES", 65536)),
		BcryptCost:         envOrInt("BCRYPT_COST", 10),
		LogDir:             envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:   envOrInt("LOG_RETENTION_DAYS", 7),
	}
	if cfg.Profile == ProfileHardened && cfg.DatabaseURL == "" {
		panic("hardened profile requires DATABASE_URL")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTSecret
	}
	return cfg
}

// Hardened reports whether the strict production profile is active.
func (c Config) Hardened() bool {
	return c.Profile == ProfileHardened
}

// MinPasswordLength is 6 on the public demo path and 8 on the hardened path,
// which additionally requires letter+digit complexity.
func (c Config) MinPasswordLength() int {
	if c.Hardened() {
		return 8
	}
	return 6
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
