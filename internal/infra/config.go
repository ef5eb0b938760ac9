package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	RedisURL      string
	RedisPassword string
	QueueGroup    string
	MaxAttempts   int

	StoragePath    string
	StorageBaseURL string

	ImageryAPIKey  string
	ImageryBaseURL string
	TextAPIKey     string
	TextBaseURL    string
	SpeechAPIKey   string
	SpeechBaseURL  string
	RenderAPIKey   string
	RenderBaseURL  string

	WatchdogInterval time.Duration
	JobTimeout       time.Duration

	ImageWorkers    int
	TextWorkers     int
	VoiceWorkers    int
	CaptionsWorkers int
	VideoWorkers    int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		QueueGroup:    getEnv("QUEUE_GROUP", "productify-workers"),
		MaxAttempts:   getEnvInt("QUEUE_MAX_ATTEMPTS", 3),

		StoragePath:    getEnv("STORAGE_PATH", "./data/storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		ImageryAPIKey:  os.Getenv("IMAGERY_API_KEY"),
		ImageryBaseURL: os.Getenv("IMAGERY_BASE_URL"),
		TextAPIKey:     os.Getenv("TEXT_API_KEY"),
		TextBaseURL:    os.Getenv("TEXT_BASE_URL"),
		SpeechAPIKey:   os.Getenv("SPEECH_API_KEY"),
		SpeechBaseURL:  os.Getenv("SPEECH_BASE_URL"),
		RenderAPIKey:   os.Getenv("RENDER_API_KEY"),
		RenderBaseURL:  os.Getenv("RENDER_BASE_URL"),

		WatchdogInterval: time.Minute * time.Duration(getEnvInt("WATCHDOG_INTERVAL_MINUTES", 15)),
		JobTimeout:       time.Minute * time.Duration(getEnvInt("JOB_TIMEOUT_MINUTES", 60)),

		ImageWorkers:    getEnvInt("IMAGE_WORKERS", 2),
		TextWorkers:     getEnvInt("TEXT_WORKERS", 3),
		VoiceWorkers:    getEnvInt("VOICE_WORKERS", 2),
		CaptionsWorkers: getEnvInt("CAPTIONS_WORKERS", 2),
		VideoWorkers:    getEnvInt("VIDEO_WORKERS", 1),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
