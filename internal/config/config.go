package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB       DBConfig
	Server   ServerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Posters  PostersConfig
	Auth     AuthConfig
	Catalog  CatalogConfig
	Cycle    CycleConfig
	CORS     CORSConfig
	LogLevel string
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// RedisConfig holds the change-notification bus settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

// KafkaConfig holds the reminder sink settings
type KafkaConfig struct {
	Brokers       []string
	ReminderTopic string
}

// PostersConfig holds the poster object-store settings
type PostersConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds the token verification settings
type AuthConfig struct {
	JWTSecret string
}

// CatalogConfig holds the external movie catalog settings
type CatalogConfig struct {
	BaseURL string
	APIKey  string
	Region  string
}

// CycleConfig holds the daily cycle tuning knobs
type CycleConfig struct {
	MinTotalDecisions      int
	MinYesDecisions        int
	MaxNominationsPerUser  int
	UnderdogBoostThreshold int
	RevealToDashboard      time.Duration
	EvaluateDebounce       time.Duration
	DefaultFinishTime      string
	BreakIntervalMinutes   int
	BreakDurationMinutes   int
}

// CORSConfig holds the cross-origin request settings
type CORSConfig struct {
	AllowOrigins string
	AllowMethods string
	AllowHeaders string
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "movienight")
	config.DB.Password = getEnv("DB_PASSWORD", "movienight_password")
	config.DB.Name = getEnv("DB_NAME", "movienight_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")

	config.Redis.Address = getEnv("REDIS_ADDRESS", "localhost:6379")
	config.Redis.Password = getEnv("REDIS_PASSWORD", "")
	config.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	config.Redis.Channel = getEnv("REDIS_CYCLE_CHANNEL", "movienight:cycle-changes")

	config.Kafka.Brokers = []string{getEnv("KAFKA_BROKER", "localhost:9092")}
	config.Kafka.ReminderTopic = getEnv("KAFKA_REMINDER_TOPIC", "movienight.reminders")

	config.Posters.Endpoint = getEnv("POSTERS_ENDPOINT", "localhost:9000")
	config.Posters.AccessKey = getEnv("POSTERS_ACCESS_KEY", "minioadmin")
	config.Posters.SecretKey = getEnv("POSTERS_SECRET_KEY", "minioadmin")
	config.Posters.Bucket = getEnv("POSTERS_BUCKET", "movie-posters")
	config.Posters.UseSSL = getEnvAsBool("POSTERS_USE_SSL", false)

	config.Auth.JWTSecret = getEnv("JWT_SECRET", "movienight-dev-secret")

	config.Catalog.BaseURL = getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	config.Catalog.APIKey = getEnv("TMDB_API_KEY", "")
	config.Catalog.Region = getEnv("TMDB_REGION", "CA")

	config.Cycle.MinTotalDecisions = getEnvAsInt("MIN_TOTAL_DECISIONS", 3)
	config.Cycle.MinYesDecisions = getEnvAsInt("MIN_YES_DECISIONS", 2)
	config.Cycle.MaxNominationsPerUser = getEnvAsInt("MAX_NOMINATIONS_PER_USER", 3)
	config.Cycle.UnderdogBoostThreshold = getEnvAsInt("UNDERDOG_BOOST_THRESHOLD", 5)
	config.Cycle.RevealToDashboard = getEnvAsDuration("REVEAL_TO_DASHBOARD_DELAY", 10*time.Second)
	config.Cycle.EvaluateDebounce = getEnvAsDuration("EVALUATE_DEBOUNCE", 500*time.Millisecond)
	config.Cycle.DefaultFinishTime = getEnv("DEFAULT_FINISH_TIME", "03:30")
	config.Cycle.BreakIntervalMinutes = getEnvAsInt("BREAK_INTERVAL_MINUTES", 40)
	config.Cycle.BreakDurationMinutes = getEnvAsInt("BREAK_DURATION_MINUTES", 15)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	config.LogLevel = getEnv("LOG_LEVEL", "info")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
