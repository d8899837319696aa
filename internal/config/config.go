package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Events    EventsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Ranking   RankingConfig
	Logger    LoggerConfig
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	Environment            string `mapstructure:"APP_ENV"`
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_MINUTES"`
	AutoMigrate     bool   `mapstructure:"DB_AUTO_MIGRATE"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Host            string `mapstructure:"REDIS_HOST"`
	Port            int    `mapstructure:"REDIS_PORT"`
	Password        string `mapstructure:"REDIS_PASSWORD"`
	DB              int    `mapstructure:"REDIS_DB"`
	MaxRetries      int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize        int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn     int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
	CacheTTLSeconds int    `mapstructure:"REDIS_CACHE_TTL_SECONDS"`
}

// Event transport names accepted by EVENTS_TRANSPORT.
const (
	EventsTransportKafka   = "kafka"
	EventsTransportChannel = "channel"
)

// EventsConfig holds configuration for the event pipeline
type EventsConfig struct {
	// Transport selects the message transport: "kafka" or "channel".
	// The channel transport is in-process and intended for local runs and tests.
	Transport     string   `mapstructure:"EVENTS_TRANSPORT"`
	Brokers       []string `mapstructure:"EVENTS_KAFKA_BROKERS"`
	ConsumerGroup string   `mapstructure:"EVENTS_CONSUMER_GROUP"`
	RatingsTopic  string   `mapstructure:"EVENTS_RATINGS_TOPIC"`
	AgentsTopic   string   `mapstructure:"EVENTS_AGENTS_TOPIC"`
	PoisonTopic   string   `mapstructure:"EVENTS_POISON_TOPIC"`
}

// AuthConfig holds configuration for authentication
type AuthConfig struct {
	JWTSecret       string `mapstructure:"AUTH_JWT_SECRET"`
	TokenTTLMinutes int    `mapstructure:"AUTH_TOKEN_TTL_MINUTES"`
	BcryptCost      int    `mapstructure:"AUTH_BCRYPT_COST"`
	// AdminEmail/AdminPassword seed an admin account at startup when set.
	AdminEmail    string `mapstructure:"AUTH_ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"AUTH_ADMIN_PASSWORD"`
}

// RateLimitConfig holds configuration for request rate limiting
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST"`
}

// RankingConfig holds configuration for leaderboard behavior
type RankingConfig struct {
	// MinRatings is the minimum number of ratings an agent needs
	// before appearing in rankings.
	MinRatings    int `mapstructure:"RANKING_MIN_RATINGS"`
	WindowTTLDays int `mapstructure:"RANKING_WINDOW_TTL_DAYS"`
	DefaultLimit  int `mapstructure:"RANKING_DEFAULT_LIMIT"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	// Set defaults first
	setDefaults()

	viper.AddConfigPath(path)
	viper.SetConfigName("app") // Look for app.env
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read from environment variables

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	// Manually populate config from viper
	config.App.Environment = viper.GetString("APP_ENV")
	config.App.HTTPPort = viper.GetString("HTTP_PORT")
	config.App.ShutdownTimeoutSeconds = viper.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.DB.Host = viper.GetString("DB_HOST")
	config.DB.Port = viper.GetString("DB_PORT")
	config.DB.User = viper.GetString("DB_USER")
	config.DB.Password = viper.GetString("DB_PASSWORD")
	config.DB.Name = viper.GetString("DB_NAME")
	config.DB.SSLMode = viper.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = viper.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")
	config.DB.ConnMaxIdleTime = viper.GetInt("DB_CONN_MAX_IDLE_MINUTES")
	config.DB.AutoMigrate = viper.GetBool("DB_AUTO_MIGRATE")

	config.Redis.Host = viper.GetString("REDIS_HOST")
	config.Redis.Port = viper.GetInt("REDIS_PORT")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.MaxRetries = viper.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = viper.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = viper.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTLSeconds = viper.GetInt("REDIS_CACHE_TTL_SECONDS")

	config.Events.Transport = viper.GetString("EVENTS_TRANSPORT")
	config.Events.Brokers = splitList(viper.GetString("EVENTS_KAFKA_BROKERS"))
	config.Events.ConsumerGroup = viper.GetString("EVENTS_CONSUMER_GROUP")
	config.Events.RatingsTopic = viper.GetString("EVENTS_RATINGS_TOPIC")
	config.Events.AgentsTopic = viper.GetString("EVENTS_AGENTS_TOPIC")
	config.Events.PoisonTopic = viper.GetString("EVENTS_POISON_TOPIC")

	config.Auth.JWTSecret = viper.GetString("AUTH_JWT_SECRET")
	config.Auth.TokenTTLMinutes = viper.GetInt("AUTH_TOKEN_TTL_MINUTES")
	config.Auth.BcryptCost = viper.GetInt("AUTH_BCRYPT_COST")
	config.Auth.AdminEmail = viper.GetString("AUTH_ADMIN_EMAIL")
	config.Auth.AdminPassword = viper.GetString("AUTH_ADMIN_PASSWORD")

	config.RateLimit.Enabled = viper.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = viper.GetInt("RATE_LIMIT_BURST")

	config.Ranking.MinRatings = viper.GetInt("RANKING_MIN_RATINGS")
	config.Ranking.WindowTTLDays = viper.GetInt("RANKING_WINDOW_TTL_DAYS")
	config.Ranking.DefaultLimit = viper.GetInt("RANKING_DEFAULT_LIMIT")

	config.Logger.Level = viper.GetString("LOG_LEVEL")
	config.Logger.Format = viper.GetString("LOG_FORMAT")
	config.Logger.OutputPath = viper.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = viper.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = viper.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = viper.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = viper.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "agent_rating_service")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("DB_CONN_MAX_IDLE_MINUTES", 5)
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	viper.SetDefault("REDIS_CACHE_TTL_SECONDS", 300)

	viper.SetDefault("EVENTS_TRANSPORT", "channel")
	viper.SetDefault("EVENTS_KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("EVENTS_CONSUMER_GROUP", "agent-rating-service")
	viper.SetDefault("EVENTS_RATINGS_TOPIC", "ratings.recorded")
	viper.SetDefault("EVENTS_AGENTS_TOPIC", "agents.lifecycle")
	viper.SetDefault("EVENTS_POISON_TOPIC", "ratings.poison")

	viper.SetDefault("AUTH_JWT_SECRET", "")
	viper.SetDefault("AUTH_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("AUTH_BCRYPT_COST", 10)
	viper.SetDefault("AUTH_ADMIN_EMAIL", "")
	viper.SetDefault("AUTH_ADMIN_PASSWORD", "")

	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)

	viper.SetDefault("RANKING_MIN_RATINGS", 1)
	viper.SetDefault("RANKING_WINDOW_TTL_DAYS", 92)
	viper.SetDefault("RANKING_DEFAULT_LIMIT", 10)

	// Logger defaults
	env := viper.GetString("APP_ENV")
	if env == "production" {
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "json")
		viper.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		viper.SetDefault("LOG_LEVEL", "debug")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	viper.SetDefault("LOG_OUTPUT_PATH", "stdout")
	viper.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	viper.SetDefault("SERVICE_NAME", "agent-rating-service")
	viper.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks that required settings are present and consistent
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("AUTH_JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return errors.New("AUTH_TOKEN_TTL_MINUTES must be positive")
	}
	if c.Auth.AdminEmail != "" && len(c.Auth.AdminPassword) < 8 {
		return errors.New("AUTH_ADMIN_PASSWORD must be at least 8 characters when AUTH_ADMIN_EMAIL is set")
	}

	switch c.Events.Transport {
	case EventsTransportKafka:
		if len(c.Events.Brokers) == 0 {
			return errors.New("EVENTS_KAFKA_BROKERS must be set for the kafka transport")
		}
	case EventsTransportChannel:
	default:
		return fmt.Errorf("unknown events transport %q (want kafka or channel)", c.Events.Transport)
	}
	if c.Events.RatingsTopic == "" || c.Events.AgentsTopic == "" || c.Events.PoisonTopic == "" {
		return errors.New("event topics must not be empty")
	}

	if c.Ranking.MinRatings < 1 {
		return errors.New("RANKING_MIN_RATINGS must be at least 1")
	}
	if c.Ranking.DefaultLimit < 1 {
		return errors.New("RANKING_DEFAULT_LIMIT must be at least 1")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return errors.New("RATE_LIMIT_RPS must be positive when rate limiting is enabled")
		}
		if c.RateLimit.BurstCapacity < 1 {
			return errors.New("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
		}
	}

	return nil
}

// DSN returns the PostgreSQL Data Source Name
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// splitList parses a comma-separated env value into a slice
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
