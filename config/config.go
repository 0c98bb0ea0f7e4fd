package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Durable place store: memory, mongo or firestore.
	PlacesStore             string `mapstructure:"PLACES_STORE"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	DatabaseName            string `mapstructure:"DATABASE_NAME"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Result cache backend: memory or redis.
	CacheBackend string `mapstructure:"CACHE_BACKEND"`

	// Persistence dispatch: pool (in-process) or queue (asynq).
	PersistMode      string `mapstructure:"PERSIST_MODE"`
	PersistPoolSize  int    `mapstructure:"PERSIST_POOL_SIZE"`
	PersistQueueSize int    `mapstructure:"PERSIST_QUEUE_SIZE"`

	// Provider credentials.
	GooglePlacesAPIKey string `mapstructure:"GOOGLE_PLACES_API_KEY"`
	MapboxAccessToken  string `mapstructure:"MAPBOX_ACCESS_TOKEN"`

	LocalIndexPath string `mapstructure:"LOCAL_INDEX_PATH"`

	// Search tuning.
	SearchFloor             int     `mapstructure:"SEARCH_FLOOR"`
	SearchDefaultLimit      int     `mapstructure:"SEARCH_DEFAULT_LIMIT"`
	CacheTTLSeconds         int     `mapstructure:"CACHE_TTL_SECONDS"`
	SessionTokenTTLSeconds  int     `mapstructure:"SESSION_TOKEN_TTL_SECONDS"`
	ProviderTimeoutSeconds  int     `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`
	ProviderRatePerSecond   float64 `mapstructure:"PROVIDER_RATE_PER_SECOND"`
	MatchRadiusMeters       float64 `mapstructure:"MATCH_RADIUS_METERS"`
	NearbyCacheRadiusMeters float64 `mapstructure:"NEARBY_CACHE_RADIUS_METERS"`
	IndexRefreshMinutes     int     `mapstructure:"INDEX_REFRESH_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("PLACES_STORE", "memory")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "spotfinder")
	viper.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	viper.SetDefault("FIREBASE_PROJECT_ID", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("PERSIST_MODE", "pool")
	viper.SetDefault("PERSIST_POOL_SIZE", 4)
	viper.SetDefault("PERSIST_QUEUE_SIZE", 256)
	viper.SetDefault("GOOGLE_PLACES_API_KEY", "")
	viper.SetDefault("MAPBOX_ACCESS_TOKEN", "")
	viper.SetDefault("LOCAL_INDEX_PATH", "places_index.db")
	viper.SetDefault("SEARCH_FLOOR", 5)
	viper.SetDefault("SEARCH_DEFAULT_LIMIT", 10)
	viper.SetDefault("CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("SESSION_TOKEN_TTL_SECONDS", 300)
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 5)
	viper.SetDefault("PROVIDER_RATE_PER_SECOND", 10)
	viper.SetDefault("MATCH_RADIUS_METERS", 30.48)
	viper.SetDefault("NEARBY_CACHE_RADIUS_METERS", 50)
	viper.SetDefault("INDEX_REFRESH_MINUTES", 60)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// CacheTTL returns the result cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SessionTokenTTL returns how long an unused session token stays valid.
func (c Config) SessionTokenTTL() time.Duration {
	return time.Duration(c.SessionTokenTTLSeconds) * time.Second
}

// ProviderTimeout bounds every outbound provider call.
func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

// IndexRefreshInterval returns the periodic rebuild interval, zero when disabled.
func (c Config) IndexRefreshInterval() time.Duration {
	return time.Duration(c.IndexRefreshMinutes) * time.Minute
}
