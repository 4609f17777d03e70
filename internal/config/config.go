package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	StaticFilesPath string
	AudioPath       string
	Timezone        string

	// Generative gateway
	GeminiAPIKey      string
	GeminiBaseURL     string
	VertexProject     string
	VertexLocation    string
	LessonModel       string
	ChatModel         string
	SpeechModel       string
	SpeechVoice       string
	GatewayTimeout    time.Duration
	GatewayMaxRetries int

	// API protection
	AuthSecret        string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Streak reminders
	ReminderEmail         string
	ReminderHour          int
	ReminderCheckInterval time.Duration
	SESFromEmail          string
	SESFromName           string
	AWSRegion             string
	AppBaseURL            string

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./lumiere.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		AudioPath:       getEnv("AUDIO_PATH", "./data/audio"),
		Timezone:        getEnv("TIMEZONE", ""),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		VertexProject:     getEnv("VERTEX_PROJECT", ""),
		VertexLocation:    getEnv("VERTEX_LOCATION", "us-central1"),
		LessonModel:       getEnv("LESSON_MODEL", "gemini-2.5-flash"),
		ChatModel:         getEnv("CHAT_MODEL", "gemini-2.5-flash"),
		SpeechModel:       getEnv("SPEECH_MODEL", "gemini-2.5-flash-preview-tts"),
		SpeechVoice:       getEnv("SPEECH_VOICE", "Puck"),
		GatewayTimeout:    getEnvDuration("GATEWAY_TIMEOUT", 60*time.Second),
		GatewayMaxRetries: getEnvInt("GATEWAY_MAX_RETRIES", 2),

		AuthSecret:        getEnv("AUTH_SECRET", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		ReminderEmail:         getEnv("REMINDER_EMAIL", ""),
		ReminderHour:          getEnvInt("REMINDER_HOUR", 19),
		ReminderCheckInterval: getEnvDuration("REMINDER_CHECK_INTERVAL", 30*time.Minute),
		SESFromEmail:          getEnv("SES_FROM_EMAIL", ""),
		SESFromName:           getEnv("SES_FROM_NAME", "Lumière"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:8080"),

		Debug: getEnvBool("DEBUG", false),
	}
}

// Location resolves the configured time zone used for calendar dates.
// An empty or unknown TIMEZONE falls back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown TIMEZONE %q, using local time: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// UsesVertex reports whether the gateway should authenticate against Vertex AI
// with application default credentials instead of an API key.
func (c *Config) UsesVertex() bool {
	return c.VertexProject != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
