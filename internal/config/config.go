package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Model      ModelConfig      `mapstructure:"model"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Fuzzy      FuzzyConfig      `mapstructure:"fuzzy"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MigrateOnStart bool          `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Brokers    []string      `mapstructure:"brokers"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Topics     struct {
		PlanGenerated  string `mapstructure:"plan_generated"`
		RecipeFeedback string `mapstructure:"recipe_feedback"`
		DeadLetter     string `mapstructure:"dead_letter"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// APIKeys lists issued keys as "key:tier" pairs.
	APIKeys   []string        `mapstructure:"api_keys"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig selects where recipes come from: "csv" or "postgres".
type CatalogConfig struct {
	Source  string `mapstructure:"source"`
	CSVPath string `mapstructure:"csv_path"`
}

type ModelConfig struct {
	Path          string  `mapstructure:"path"`
	FallbackScore float64 `mapstructure:"fallback_score"`
}

type RankingConfig struct {
	Weights          RankingWeights `mapstructure:"weights"`
	Calorie          CalorieConfig  `mapstructure:"calorie"`
	QuickPrepMinutes float64        `mapstructure:"quick_prep_minutes"`
	DefaultTopN      int            `mapstructure:"default_top_n"`
}

type RankingWeights struct {
	DietFit    float64 `mapstructure:"diet_fit"`
	Calorie    float64 `mapstructure:"calorie"`
	Quick      float64 `mapstructure:"quick"`
	Preference float64 `mapstructure:"preference"`
}

type CalorieConfig struct {
	Target          float64 `mapstructure:"target"`
	UnderweightCeil float64 `mapstructure:"underweight_ceiling"`
	OverweightCap   float64 `mapstructure:"overweight_cap"`
	UnderweightBMI  float64 `mapstructure:"underweight_bmi"`
	OverweightBMI   float64 `mapstructure:"overweight_bmi"`
}

type FuzzyConfig struct {
	// FallbackEnabled applies equal diet weights when no rule fires.
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
}

type PlannerConfig struct {
	DefaultPerMeal   int           `mapstructure:"default_per_meal"`
	MaxBatch         int           `mapstructure:"max_batch"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("database.url", "")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.migrate_on_start", true)

	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.max_retries", 3)
	viper.SetDefault("kafka.retry_delay", "1s")
	viper.SetDefault("kafka.topics.plan_generated", "meal-plan-generated")
	viper.SetDefault("kafka.topics.recipe_feedback", "recipe-feedback")
	viper.SetDefault("kafka.topics.dead_letter", "smartdiet-dlq")

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.api_keys", []string{})
	viper.SetDefault("auth.rate_limit.default", 1000)
	viper.SetDefault("auth.rate_limit.premium", 10000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("catalog.source", "csv")
	viper.SetDefault("catalog.csv_path", "./data/recipes.csv")

	viper.SetDefault("model.path", "")
	viper.SetDefault("model.fallback_score", 0.5)

	// Composite score weights
	viper.SetDefault("ranking.weights.diet_fit", 1.5)
	viper.SetDefault("ranking.weights.calorie", 3.0)
	viper.SetDefault("ranking.weights.quick", 1.0)
	viper.SetDefault("ranking.weights.preference", 3.5)

	viper.SetDefault("ranking.calorie.target", 450.0)
	viper.SetDefault("ranking.calorie.underweight_ceiling", 1000.0)
	viper.SetDefault("ranking.calorie.overweight_cap", 600.0)
	viper.SetDefault("ranking.calorie.underweight_bmi", 18.5)
	viper.SetDefault("ranking.calorie.overweight_bmi", 25.0)
	viper.SetDefault("ranking.quick_prep_minutes", 15.0)
	viper.SetDefault("ranking.default_top_n", 3)

	viper.SetDefault("fuzzy.fallback_enabled", true)

	viper.SetDefault("planner.default_per_meal", 3)
	viper.SetDefault("planner.max_batch", 20)
	viper.SetDefault("planner.batch_concurrency", 4)
	viper.SetDefault("planner.cache_ttl", "15m")

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
