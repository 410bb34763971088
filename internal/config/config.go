package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `mapstructure:"AUTH_JWKS_URL"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Downstream providers. Every call is bounded by ProviderTimeout and
	// has a defined fallback; an unset provider is degraded, not fatal.
	STTURL                 string `mapstructure:"STT_URL"`
	LLMPrimaryURL          string `mapstructure:"LLM_PRIMARY_URL"`
	LLMPrimaryKey          string `mapstructure:"LLM_PRIMARY_KEY"`
	LLMPrimaryModel        string `mapstructure:"LLM_PRIMARY_MODEL"`
	LLMSecondaryURL        string `mapstructure:"LLM_SECONDARY_URL"`
	LLMSecondaryKey        string `mapstructure:"LLM_SECONDARY_KEY"`
	LLMSecondaryModel      string `mapstructure:"LLM_SECONDARY_MODEL"`
	ProviderTimeoutSeconds int    `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`

	RTCAppID          string `mapstructure:"RTC_APP_ID"`
	RTCAppCertificate string `mapstructure:"RTC_APP_CERTIFICATE"`

	SessionTimeoutMinutes int `mapstructure:"SESSION_TIMEOUT_MINUTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LLM_PRIMARY_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("LLM_SECONDARY_MODEL", "gemini-2.0-flash")
	v.SetDefault("PROVIDER_TIMEOUT_SECONDS", 30)
	v.SetDefault("SESSION_TIMEOUT_MINUTES", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"REDIS_URL", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL",
		"CORS_ORIGINS", "STT_URL",
		"LLM_PRIMARY_URL", "LLM_PRIMARY_KEY", "LLM_PRIMARY_MODEL",
		"LLM_SECONDARY_URL", "LLM_SECONDARY_KEY", "LLM_SECONDARY_MODEL",
		"PROVIDER_TIMEOUT_SECONDS", "RTC_APP_ID", "RTC_APP_CERTIFICATE",
		"SESSION_TIMEOUT_MINUTES",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionTimeoutMinutes <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active. Do NOT use this in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ProviderTimeout is the bound applied to every downstream provider call.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

// SessionTimeout is the assisted-session idle window.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}
