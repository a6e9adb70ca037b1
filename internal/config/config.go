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
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Auth      AuthConfig
	Ai        AIConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JwtSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type AIConfig struct {
	DefaultProvider    string // "ollama", "openai" or "huggingface"
	DefaultModel       string // e.g. "llama3", "gpt-4o-mini"
	OllamaBaseURL      string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	HuggingFaceAPIKey  string
	HuggingFaceBaseURL string
	RequestTimeout     time.Duration
}

type PaymentConfig struct {
	MidtransServerKey string
	MidtransIsProd    bool
}

type RateLimitConfig struct {
	PublicChatPerMinute int
	PublicChatBurst     int
}

type TelemetryConfig struct {
	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	ConfigCacheTTL   time.Duration
	ModelCacheTTL    time.Duration
	EventStreamName  string
	EventSubjectRoot string
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
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "llm.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Chatbot Studio"),
		},
		Auth: AuthConfig{
			JwtSecret:          getEnv("JWT_SECRET", ""),
			TokenTTL:           getEnvAsDuration("JWT_TTL", 72*time.Hour),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Ai: AIConfig{
			DefaultProvider:    getEnv("LLM_PROVIDER", "ollama"),
			DefaultModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			RequestTimeout:     getEnvAsDuration("LLM_REQUEST_TIMEOUT", 120*time.Second),
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransIsProd:    getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
		},
		RateLimit: RateLimitConfig{
			PublicChatPerMinute: getEnvAsInt("PUBLIC_CHAT_RATE_PER_MINUTE", 20),
			PublicChatBurst:     getEnvAsInt("PUBLIC_CHAT_BURST", 5),
		},
		Telemetry: TelemetryConfig{
			OtelEnabled:      getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OtelServiceName:  getEnv("OTEL_SERVICE_NAME", "ai-chatbot-be"),
			ConfigCacheTTL:   getEnvAsDuration("GLOBAL_CONFIG_CACHE_TTL", 5*time.Minute),
			ModelCacheTTL:    getEnvAsDuration("AI_MODEL_CACHE_TTL", 5*time.Minute),
			EventStreamName:  getEnv("EVENT_STREAM_NAME", "CHATBOT_EVENTS"),
			EventSubjectRoot: getEnv("EVENT_SUBJECT_ROOT", "chatbot"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
