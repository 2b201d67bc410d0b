package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all application settings
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	ScreenTime ScreenTimeConfig `mapstructure:"screentime"`
	Recommend  RecommendConfig
	Chat       ChatConfig
	Email      EmailConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig holds unified Redis settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of host:port. For 'single' the first address is used.
	Addrs []string `mapstructure:"addrs"`

	// Addr: single-address alternative, used when Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: sentinel master name (sentinel mode only)
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // milliseconds
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // milliseconds
}

// AuthConfig holds settings for verifying tokens issued by the hosted auth provider
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// ScreenTimeConfig holds settings of the screen-time limiter
type ScreenTimeConfig struct {
	// PollInterval is how often an open session is re-checked
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// RolloverSpec is the cron spec (UTC) of the day rollover job
	RolloverSpec string `mapstructure:"rollover_spec"`
	// NotifyParent emails the parent the first time a child exceeds the limit each day
	NotifyParent bool `mapstructure:"notify_parent"`
}

// RecommendConfig holds settings of the genre recommendation heuristic
type RecommendConfig struct {
	// UncertaintyThreshold is the number of uncertain turns after which random genres are added
	UncertaintyThreshold int `mapstructure:"uncertainty_threshold"`
	// RandomGenreCount is how many random genres to suggest
	RandomGenreCount int           `mapstructure:"random_genre_count"`
	CatalogCacheTTL  time.Duration `mapstructure:"catalog_cache_ttl"`
}

// ChatConfig holds settings of the chat backend client
type ChatConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	RateLimitPerMin  int           `mapstructure:"rate_limit_per_min"`
	MaxQuestionChars int           `mapstructure:"max_question_chars"`
}

// EmailConfig holds Resend settings; an empty API key disables email
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
}

// PostgresConnectionString builds the PostgreSQL DSN
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL builds the URL form used by golang-migrate and lib/pq
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("screentime.poll_interval", 60*time.Second)
	vip.SetDefault("screentime.rollover_spec", "0 0 * * *")
	vip.SetDefault("screentime.notify_parent", true)

	vip.SetDefault("recommend.uncertainty_threshold", 2)
	vip.SetDefault("recommend.random_genre_count", 3)
	vip.SetDefault("recommend.catalog_cache_ttl", 10*time.Minute)

	vip.SetDefault("chat.timeout", 30*time.Second)
	vip.SetDefault("chat.breaker_failures", 5)
	vip.SetDefault("chat.breaker_timeout", 30*time.Second)
	vip.SetDefault("chat.rate_limit_per_min", 30)
	vip.SetDefault("chat.max_question_chars", 500)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "json")
}

// Load reads the configuration file and explicitly bound environment variables
func Load(configPath string) (*Config, error) {
	vip := viper.New() // own instance, no global viper state

	setDefaults(vip)

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	vip.BindEnv("auth.issuer", "AUTH_ISSUER")
	vip.BindEnv("auth.audience", "AUTH_AUDIENCE")

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("screentime.poll_interval", "SCREENTIME_POLL_INTERVAL")
	vip.BindEnv("screentime.notify_parent", "SCREENTIME_NOTIFY_PARENT")

	vip.BindEnv("chat.base_url", "CHAT_BASE_URL")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("log.format", "LOG_FORMAT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// a missing file is fine, env vars and defaults still apply
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				log.Info().Str("path", configPath).Msg("config file not found, using environment and defaults")
			} else {
				log.Warn().Err(err).Str("path", configPath).Msg("could not read config file")
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.DBName).
		Str("redis_mode", cfg.Redis.Mode).
		Str("server_port", cfg.Server.Port).
		Dur("poll_interval", cfg.ScreenTime.PollInterval).
		Bool("chat_backend_set", cfg.Chat.BaseURL != "").
		Bool("email_enabled", cfg.Email.ResendAPIKey != "").
		Msg("configuration loaded")

	return &cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth JWT secret is required (check AUTH_JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.ScreenTime.PollInterval < time.Second {
		return fmt.Errorf("screentime.poll_interval must be at least 1s, got %s", c.ScreenTime.PollInterval)
	}
	if c.Recommend.UncertaintyThreshold < 1 {
		return fmt.Errorf("recommend.uncertainty_threshold must be positive")
	}
	if c.Recommend.RandomGenreCount < 1 {
		return fmt.Errorf("recommend.random_genre_count must be positive")
	}
	if c.Email.ResendAPIKey != "" && c.Email.From == "" {
		return fmt.Errorf("email.from is required when RESEND_API_KEY is set")
	}
	return nil
}
