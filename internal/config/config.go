package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Redis
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// OAuth
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`

	// Judge0
	JudgeURL           string        `mapstructure:"JUDGE0_URL"`
	JudgeAuthToken     string        `mapstructure:"JUDGE0_AUTH_TOKEN"`
	JudgeRunTimeout    time.Duration `mapstructure:"JUDGE0_RUN_TIMEOUT"`
	JudgeSubmitTimeout time.Duration `mapstructure:"JUDGE0_SUBMIT_TIMEOUT"`
	JudgeCacheTTL      time.Duration `mapstructure:"JUDGE0_CACHE_TTL"`

	// Generative AI
	GeminiAPIKey   string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel    string `mapstructure:"GEMINI_MODEL"`
	GeminiEndpoint string `mapstructure:"GEMINI_ENDPOINT"`

	// Kafka (optional activity stream)
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	// Quotas
	DailyFreeQuota int           `mapstructure:"DAILY_FREE_QUOTA"`
	RegenLimit     int           `mapstructure:"REGEN_LIMIT"`
	SolutionLimit  int           `mapstructure:"SOLUTION_LIMIT"`
	HintLimit      int           `mapstructure:"HINT_LIMIT"`
	ReviewLimit    int           `mapstructure:"REVIEW_LIMIT"`
	SolveXP        int           `mapstructure:"SOLVE_XP"`
	RunCooldown    time.Duration `mapstructure:"RUN_COOLDOWN"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
}

var AppConfig *Config

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GO_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "sqlite:arena.db")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("JUDGE0_URL", "https://ce.judge0.com")
	viper.SetDefault("JUDGE0_RUN_TIMEOUT", 15*time.Second)
	viper.SetDefault("JUDGE0_SUBMIT_TIMEOUT", 20*time.Second)
	viper.SetDefault("JUDGE0_CACHE_TTL", time.Hour)

	viper.SetDefault("GEMINI_MODEL", "gemini-flash-lite-latest")
	viper.SetDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta")

	viper.SetDefault("KAFKA_TOPIC", "arena.activity")

	viper.SetDefault("DAILY_FREE_QUOTA", 4)
	viper.SetDefault("REGEN_LIMIT", 3)
	viper.SetDefault("SOLUTION_LIMIT", 3)
	viper.SetDefault("HINT_LIMIT", 2)
	viper.SetDefault("REVIEW_LIMIT", 5)
	viper.SetDefault("SOLVE_XP", 10)
	viper.SetDefault("RUN_COOLDOWN", 2*time.Second)
	viper.SetDefault("SESSION_TTL", 7*24*time.Hour)
}

// Keys without a default are invisible to Unmarshal unless bound explicitly.
var envOnlyKeys = []string{
	"JWT_SECRET",
	"REDIS_PASSWORD",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"GOOGLE_CALLBACK_URL",
	"JUDGE0_AUTH_TOKEN",
	"GEMINI_API_KEY",
	"KAFKA_BROKERS",
}

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()
	for _, key := range envOnlyKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if AppConfig.JWTSecret == "" {
		log.Println("JWT_SECRET not set, using an insecure development secret")
		AppConfig.JWTSecret = "dev-secret-change-me"
	}
}

// Defaults returns a config populated only with built-in defaults. Tests use it
// instead of LoadConfig so the environment does not leak in.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Env:                "test",
		LogLevel:           "disabled",
		DatabaseURL:        "sqlite:file::memory:?cache=shared",
		JWTSecret:          "test_secret_key_12345",
		JudgeURL:           "https://ce.judge0.com",
		JudgeRunTimeout:    15 * time.Second,
		JudgeSubmitTimeout: 20 * time.Second,
		JudgeCacheTTL:      time.Hour,
		GeminiModel:        "gemini-flash-lite-latest",
		GeminiEndpoint:     "https://generativelanguage.googleapis.com/v1beta",
		KafkaTopic:         "arena.activity",
		DailyFreeQuota:     4,
		RegenLimit:         3,
		SolutionLimit:      3,
		HintLimit:          2,
		ReviewLimit:        5,
		SolveXP:            10,
		RunCooldown:        2 * time.Second,
		SessionTTL:         7 * 24 * time.Hour,
	}
}
