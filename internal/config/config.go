// Package config loads server and worker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds every setting read from the environment.
type Config struct {
	// HTTP server
	Port        int    `env:"PORT,default=8080"`
	BaseURL     string `env:"BASE_URL,default=http://localhost:8080"`
	CORSOrigins string `env:"CORS_ORIGINS,default=*"`
	StaticPath  string `env:"STATIC_PATH"`

	// Database
	DBPath string `env:"DB_PATH,default=./data/splithub.db"`

	// Auth
	JWTSecret   string        `env:"JWT_SECRET,default=dev-secret-change-me-please"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY,default=168h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// Generative AI. An empty key disables the model and every AI endpoint
	// answers with its fallback.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-1.5-flash"`
	ChatHistory  int    `env:"CHAT_HISTORY_LIMIT,default=20"`

	// Cache. Without REDIS_URL an in-memory LRU is used.
	RedisURL  string        `env:"REDIS_URL"`
	CacheTTL  time.Duration `env:"CACHE_TTL,default=1h"`
	CacheSize int           `env:"CACHE_SIZE,default=512"`

	// AMQP. Without AMQP_URL events are written straight to the store.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE,default=splithub"`
	AMQPQueue    string `env:"AMQP_QUEUE,default=splithub.activity"`

	// Invitations
	InviteTTL time.Duration `env:"INVITE_TTL,default=24h"`

	// Rate limiting for AI and receipt endpoints, per caller.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=1"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=5"`

	// Receipts
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES,default=10485760"`

	// Worker schedules (robfig/cron spec strings)
	PurgeSchedule        string `env:"PURGE_SCHEDULE,default=@every 1h"`
	SubscriptionSchedule string `env:"SUBSCRIPTION_SCHEDULE,default=@every 6h"`
}

// MaxInviteTTL caps how long any invitation may stay valid.
const MaxInviteTTL = 7 * 24 * time.Hour

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// AIEnabled reports whether a generative model is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid base URL '%s': must be an absolute URL", c.BaseURL))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT secret must be at least 16 characters")
	}
	if c.TokenExpiry < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token expiry %v: must be at least 1 minute", c.TokenExpiry))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.InviteTTL <= 0 || c.InviteTTL > MaxInviteTTL {
		errs = append(errs, fmt.Sprintf("invalid invite TTL %v: must be between 0 and %v", c.InviteTTL, MaxInviteTTL))
	}

	if c.ChatHistory < 1 {
		errs = append(errs, fmt.Sprintf("invalid chat history limit %d: must be at least 1", c.ChatHistory))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, "rate limit must have a positive rate and a burst of at least 1")
	}

	if c.MaxUploadBytes < 1 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d", c.MaxUploadBytes))
	}

	for name, spec := range map[string]string{
		"purge":        c.PurgeSchedule,
		"subscription": c.SubscriptionSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s schedule '%s': %v", name, spec, err))
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errs = append(errs, fmt.Sprintf("invalid Redis URL '%s': scheme must be 'redis' or 'rediss'", c.RedisURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
