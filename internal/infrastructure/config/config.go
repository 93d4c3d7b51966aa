package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend  BackendConfig
	Timeouts TimeoutConfig
	Console  ConsoleConfig
	Assets   AssetsConfig
	Mirror   MirrorConfig
	Mongo    MongoConfig
	Redis    RedisConfig

	// SuperAdminEmails extends the built-in break-glass list.
	SuperAdminEmails []string `env:"SUPER_ADMIN_EMAILS"`
}

// BackendConfig selects the hosted backend. Leaving either value empty runs
// the console against the in-memory mock backend.
type BackendConfig struct {
	URL     string `env:"BACKEND_URL"`
	AnonKey string `env:"BACKEND_ANON_KEY"`

	AccessTokenTTL  time.Duration `env:"BACKEND_ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTokenTTL time.Duration `env:"BACKEND_REFRESH_TOKEN_TTL, default=720h"`
	MigrateOnStart  bool          `env:"BACKEND_MIGRATE,           default=true"`
}

// Enabled reports whether both backend settings are present.
func (b BackendConfig) Enabled() bool {
	return b.URL != "" && b.AnonKey != ""
}

type TimeoutConfig struct {
	Session    time.Duration `env:"SESSION_TIMEOUT,     default=10s"`
	Profile    time.Duration `env:"PROFILE_TIMEOUT,     default=10s"`
	SuperAdmin time.Duration `env:"SUPER_ADMIN_TIMEOUT, default=5s"`
	Branding   time.Duration `env:"BRANDING_TIMEOUT,    default=10s"`
}

type ConsoleConfig struct {
	MaxSessions  int           `env:"CONSOLE_MAX_SESSIONS,  default=10000"`
	IdleTTL      time.Duration `env:"CONSOLE_IDLE_TTL,      default=30m"`
	ReadyWait    time.Duration `env:"CONSOLE_READY_WAIT,    default=2s"`
	CookieSecure bool          `env:"CONSOLE_COOKIE_SECURE, default=false"`
	DefaultMode  string        `env:"CONSOLE_DEFAULT_MODE,  default=light"`
}

// AssetsConfig points at the S3-compatible bucket holding favicons. An empty
// endpoint and region disables uploads.
type AssetsConfig struct {
	Bucket       string `env:"ASSETS_BUCKET,        default=branding"`
	Region       string `env:"ASSETS_REGION"`
	Endpoint     string `env:"ASSETS_ENDPOINT"`
	PublicURL    string `env:"ASSETS_PUBLIC_URL"`
	AccessKey    string `env:"ASSETS_ACCESS_KEY"`
	SecretKey    string `env:"ASSETS_SECRET_KEY"`
	UsePathStyle bool   `env:"ASSETS_USE_PATH_STYLE, default=true"`
}

// Enabled reports whether favicon storage is configured.
func (a AssetsConfig) Enabled() bool {
	return a.Bucket != "" && (a.Region != "" || a.Endpoint != "")
}

type MirrorConfig struct {
	Workers int `env:"MIRROR_WORKERS, default=4"`
}

// MongoConfig configures the branding audit log. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=partner_console"`
}

// RedisConfig configures the shared branding cache. An empty address disables
// it. REDIS_ADDR may also be a redis:// URL.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,           default=0"`
	CacheTTL time.Duration `env:"BRANDING_CACHE_TTL, default=5m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
