package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for bookings and schedule overrides.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Conversation session backends.
const (
	SessionStoreRedis    = "redis"
	SessionStoreDynamoDB = "dynamodb"
	SessionStoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Scheduling
	ClinicTimezone  string
	SlotWindowStart string
	SlotWindowEnd   string
	SlotInterval    time.Duration

	// Storage
	StorageBackend string
	DataDir        string
	BookingsFile   string
	ScheduleFile   string
	DatabaseURL    string

	// Redis (conversation sessions, FAQ repository)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Conversation
	ConversationTTL        time.Duration
	ConversationWindow     int
	ConversationCapacity   int
	ConversationStore      string
	ConversationTable      string
	ChatRateLimitRPS       float64
	ChatRateLimitBurst     int
	LLMTimeout             time.Duration
	LLMMaxRetries          int
	LLMTemperature         float64
	LLMMaxTokens           int
	AWSRegion              string
	AWSAccessKeyID         string
	AWSSecretAccessKey     string
	BedrockModelID         string
	BedrockEmbeddingModel  string
	GeminiAPIKey           string
	GeminiModelID          string
	GeminiEmbeddingModelID string

	// FAQ search
	FAQDataFile       string
	FAQSearchLimit    int
	FAQScoreThreshold float64

	// Confirmation email
	EmailProvider     string
	EmailFromAddress  string
	EmailFromName     string
	SendGridAPIKey    string
	ClinicDisplayName string
	NotifyQueueURL    string
}

// Load reads configuration from environment variables
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Port:               getEnv("PORT", "8000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		ClinicTimezone:  getEnv("CLINIC_TIMEZONE", ""),
		SlotWindowStart: getEnv("SLOT_WINDOW_START", "09:00"),
		SlotWindowEnd:   getEnv("SLOT_WINDOW_END", "17:00"),
		SlotInterval:    getEnvAsDuration("SLOT_INTERVAL", 30*time.Minute),

		StorageBackend: strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", StorageFile))),
		DataDir:        dataDir,
		BookingsFile:   getEnv("BOOKINGS_FILE", dataDir+"/bookings.json"),
		ScheduleFile:   getEnv("SCHEDULE_FILE", dataDir+"/doctor_schedule.json"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ConversationTTL:        getEnvAsDuration("CONVERSATION_TTL", 24*time.Hour),
		ConversationWindow:     getEnvAsInt("CONVERSATION_WINDOW", 10),
		ConversationCapacity:   getEnvAsInt("CONVERSATION_CAPACITY", 1000),
		ConversationStore:      strings.ToLower(strings.TrimSpace(getEnv("CONVERSATION_STORE", ""))),
		ConversationTable:      getEnv("CONVERSATION_TABLE", "clinic-conversations"),
		ChatRateLimitRPS:       getEnvAsFloat("CHAT_RATE_LIMIT_RPS", 2),
		ChatRateLimitBurst:     getEnvAsInt("CHAT_RATE_LIMIT_BURST", 10),
		LLMTimeout:             getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
		LLMMaxRetries:          getEnvAsInt("LLM_MAX_RETRIES", 1),
		LLMTemperature:         getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:           getEnvAsInt("LLM_MAX_TOKENS", 500),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		BedrockModelID:         getEnv("BEDROCK_MODEL_ID", ""),
		BedrockEmbeddingModel:  getEnv("BEDROCK_EMBEDDING_MODEL_ID", ""),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:          getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		GeminiEmbeddingModelID: getEnv("GEMINI_EMBEDDING_MODEL_ID", "text-embedding-004"),

		FAQDataFile:       getEnv("FAQ_DATA_FILE", dataDir+"/clinic_info.json"),
		FAQSearchLimit:    getEnvAsInt("FAQ_SEARCH_LIMIT", 2),
		FAQScoreThreshold: getEnvAsFloat("FAQ_SCORE_THRESHOLD", 0.5),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Clinic Scheduling"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		ClinicDisplayName: getEnv("CLINIC_DISPLAY_NAME", "the clinic"),
		NotifyQueueURL:    getEnv("NOTIFY_QUEUE_URL", ""),
	}
}

// SessionBackend resolves CONVERSATION_STORE, defaulting to redis when REDIS_ADDR
// is set and to memory otherwise.
func (c *Config) SessionBackend() string {
	switch c.ConversationStore {
	case SessionStoreRedis, SessionStoreDynamoDB, SessionStoreMemory:
		return c.ConversationStore
	}
	if strings.TrimSpace(c.RedisAddr) != "" {
		return SessionStoreRedis
	}
	return SessionStoreMemory
}

// LLMConfigured reports whether any chat model provider is configured.
func (c *Config) LLMConfigured() bool {
	return strings.TrimSpace(c.BedrockModelID) != "" || strings.TrimSpace(c.GeminiAPIKey) != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
