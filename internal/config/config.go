package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	SMTP         SMTPConfig
	Payment      PaymentConfig
	Subscription SubscriptionConfig
	Ai           AIConfig
	Catalog      CatalogConfig
	RateLimit    RateLimitConfig
	OAuth        OAuthConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	JwtTTL             time.Duration
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

type DatabaseConfig struct {
	Connection string
	LogQueries bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type PaymentConfig struct {
	Provider            string // "stripe" or "midtrans"
	StripeSecretKey     string
	StripeWebhookSecret string
	MidtransServerKey   string
	MidtransProduction  bool
	Timeout             time.Duration
}

// SubscriptionConfig is the single paid package. Price and currency never come
// from the client.
type SubscriptionConfig struct {
	PackageID     string
	PackageName   string
	Amount        int64 // minor units
	Currency      string
	TrialDuration time.Duration
	BillingPeriod time.Duration
}

type AIConfig struct {
	LLMProvider    string // "ollama" or "openai"
	LLMModel       string
	OllamaBaseURL  string
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	RequestTimeout time.Duration
}

type CatalogConfig struct {
	BaseURL     string
	APIKey      string
	ResultLimit int
	CacheTTL    time.Duration
	RatePerSec  float64
}

type RateLimitConfig struct {
	AuthAttempts int
	AuthWindow   time.Duration
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			JwtTTL:             getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			LogQueries: getEnvAsBool("DB_LOG_QUERIES", false),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Recipe"),
		},
		Payment: PaymentConfig{
			Provider:            getEnv("PAYMENT_PROVIDER", "stripe"),
			StripeSecretKey:     getEnv("STRIPE_API_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MidtransServerKey:   getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransProduction:  getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			Timeout:             getEnvAsDuration("PAYMENT_TIMEOUT", 15*time.Second),
		},
		Subscription: SubscriptionConfig{
			PackageID:     getEnv("SUBSCRIPTION_PACKAGE_ID", "premium_monthly"),
			PackageName:   getEnv("SUBSCRIPTION_PACKAGE_NAME", "AI Recipe Premium"),
			Amount:        getEnvAsInt64("SUBSCRIPTION_AMOUNT", 999),
			Currency:      strings.ToLower(getEnv("SUBSCRIPTION_CURRENCY", "usd")),
			TrialDuration: getEnvAsDuration("TRIAL_DURATION", 7*24*time.Hour),
			BillingPeriod: getEnvAsDuration("BILLING_PERIOD", 30*24*time.Hour),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Catalog: CatalogConfig{
			BaseURL:     getEnv("CATALOG_BASE_URL", ""),
			APIKey:      getEnv("CATALOG_API_KEY", ""),
			ResultLimit: getEnvAsInt("CATALOG_RESULT_LIMIT", 10),
			CacheTTL:    getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
			RatePerSec:  getEnvAsFloat("CATALOG_RATE_PER_SEC", 5),
		},
		RateLimit: RateLimitConfig{
			AuthAttempts: getEnvAsInt("AUTH_RATE_LIMIT_ATTEMPTS", 5),
			AuthWindow:   getEnvAsDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/google/callback"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("15m", "168h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
