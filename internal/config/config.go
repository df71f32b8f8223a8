package config

import (
	"errors"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the placeholder session signing key shipped in env-default
const DefaultJWTSecret = "change-me"

// ErrDefaultJWTSecret is returned when OAuth sign-in is enabled with the placeholder signing key
var ErrDefaultJWTSecret = errors.New("SESSION_JWT_SECRET must be set when THREADS_CLIENT_ID is configured")

// Config holds all application configuration
type Config struct {
	Server   Server   `yaml:"server"`
	Threads  Threads  `yaml:"threads"`
	Analysis Analysis `yaml:"analysis"`
	Session  Session  `yaml:"session"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	S3       S3       `yaml:"s3"`
	Log      Log      `yaml:"log"`
}

// S3 holds S3/MinIO storage configuration used for mock fixtures
type S3 struct {
	Enabled         bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"fixtures"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	FixtureKey      string `yaml:"fixture_key" env:"S3_FIXTURE_KEY" env-default:"mock/analysis.json"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"120s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	// RequestTimeout bounds a single inbound request, including the whole analysis pipeline.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"110s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Threads holds Threads Graph API and OAuth configuration
type Threads struct {
	BaseURL      string `yaml:"base_url" env:"THREADS_BASE_URL" env-default:"https://graph.threads.net"`
	APIVersion   string `yaml:"api_version" env:"THREADS_API_VERSION" env-default:"v1.0"`
	AuthorizeURL string `yaml:"authorize_url" env:"THREADS_AUTHORIZE_URL" env-default:"https://threads.net/oauth/authorize"`
	ClientID     string `yaml:"client_id" env:"THREADS_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"THREADS_CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri" env:"THREADS_REDIRECT_URI" env-default:"http://localhost:8080/auth/callback"`
	Scopes       string `yaml:"scopes" env:"THREADS_SCOPES" env-default:"threads_basic,threads_content_publish,threads_manage_insights"`
	UserAgent    string `yaml:"user_agent" env:"THREADS_USER_AGENT" env-default:"Mozilla/5.0 (compatible; ThreadTracker/1.0)"`
}

// Analysis holds limits and pacing of the analysis pipeline
type Analysis struct {
	PageSize       int           `yaml:"page_size" env:"ANALYSIS_PAGE_SIZE" env-default:"25"`
	PostCeiling    int           `yaml:"post_ceiling" env:"ANALYSIS_POST_CEILING" env-default:"25"`
	DetailLimit    int           `yaml:"detail_limit" env:"ANALYSIS_DETAIL_LIMIT" env-default:"15"`
	OutputLimit    int           `yaml:"output_limit" env:"ANALYSIS_OUTPUT_LIMIT" env-default:"20"`
	TopCommenters  int           `yaml:"top_commenters" env:"ANALYSIS_TOP_COMMENTERS" env-default:"10"`
	PageInterval   time.Duration `yaml:"page_interval" env:"ANALYSIS_PAGE_INTERVAL" env-default:"1s"`
	DetailInterval time.Duration `yaml:"detail_interval" env:"ANALYSIS_DETAIL_INTERVAL" env-default:"1500ms"`
	CallTimeout    time.Duration `yaml:"call_timeout" env:"ANALYSIS_CALL_TIMEOUT" env-default:"15s"`
	MockDelay      time.Duration `yaml:"mock_delay" env:"ANALYSIS_MOCK_DELAY" env-default:"1s"`
}

// Session holds login session configuration
type Session struct {
	// Backend is "memory" or "postgres"
	Backend       string        `yaml:"backend" env:"SESSION_BACKEND" env-default:"memory"`
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	CookieName    string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"threadstat_session"`
	CookieSecure  bool          `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE" env-default:"false"`
	JWTSecret     string        `yaml:"jwt_secret" env:"SESSION_JWT_SECRET" env-default:"change-me"`
	JWTIssuer     string        `yaml:"jwt_issuer" env:"SESSION_JWT_ISSUER" env-default:"threadstat"`
	JWTAudience   string        `yaml:"jwt_audience" env:"SESSION_JWT_AUDIENCE" env-default:"threadstat-dashboard"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"10m"`

	// StateBackend is "memory" or "redis"
	StateBackend string        `yaml:"state_backend" env:"SESSION_STATE_BACKEND" env-default:"memory"`
	StateTTL     time.Duration `yaml:"state_ttl" env:"SESSION_STATE_TTL" env-default:"10m"`
}

// Database holds database configuration
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	MaxConns     int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	MinConns     int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"1"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`
}

// Redis holds Redis configuration for the OAuth state store
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"threadstat:"`
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// SlogLevel maps the configured level name to a slog.Level
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate rejects combinations the server must not start with
func (c Config) Validate() error {
	if c.Threads.ClientID != "" && c.Session.JWTSecret == DefaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// Load reads configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
