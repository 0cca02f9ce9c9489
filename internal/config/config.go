// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageSQLite    StorageBackend = "sqlite"
	StorageFirestore StorageBackend = "firestore"
)

// Config holds all application configuration.
type Config struct {
	Port string

	// Storage
	StorageBackend StorageBackend
	DBPath         string
	GCPProjectID   string
	GCPLocation    string

	// LLM
	ModelName  string
	UseMockLLM bool

	// Telephony
	TwilioAuthToken     string // empty disables webhook signature validation
	WebhookBaseURL      string
	GatherTimeout       int    // seconds Twilio waits for speech to start
	GatherSpeechTimeout string // seconds of silence that end an utterance
	Language            string

	// Turn orchestration
	CallTimeout         time.Duration // session TTL and max inactivity
	ResponseTimeout     time.Duration // hard deadline on any one model call
	HistoryWindowSize   int           // turns of context passed to generation
	ConfidenceThreshold float64
	CallHistoryLimit    int // completed calls retained for status queries
	ClosingPhrases      []string
	TerminatingIntents  []domain.Intent
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StorageBackend: StorageBackend(getEnv("STORAGE_BACKEND", "memory")),
		DBPath:         getEnv("DB_PATH", "./data/voice_service.db"),
		GCPProjectID:   getEnv("GCP_PROJECT", ""),
		GCPLocation:    getEnv("GCP_LOCATION", "us-central1"),

		ModelName:  getEnv("MODEL_NAME", "gemini-2.5-flash-lite"),
		UseMockLLM: getEnvBool("USE_MOCK_LLM", false),

		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		WebhookBaseURL:      getEnv("WEBHOOK_BASE_URL", "http://localhost:8080"),
		GatherTimeout:       getEnvInt("GATHER_TIMEOUT", 2),
		GatherSpeechTimeout: getEnv("GATHER_SPEECH_TIMEOUT", "1"),
		Language:            getEnv("LANGUAGE", "en-US"),

		CallTimeout:         getEnvSeconds("CALL_TIMEOUT_SECONDS", 180),
		ResponseTimeout:     getEnvSeconds("RESPONSE_TIMEOUT_SECONDS", 5),
		HistoryWindowSize:   getEnvInt("HISTORY_WINDOW_SIZE", 3),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.6),
		CallHistoryLimit:    getEnvInt("CALL_HISTORY_LIMIT", 500),
		ClosingPhrases:      getEnvList("CLOSING_PHRASES", defaultClosingPhrases),
		TerminatingIntents:  parseIntents(getEnvList("TERMINATING_INTENTS", defaultTerminatingIntents)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var defaultClosingPhrases = []string{
	"thank you", "thanks", "that's all", "goodbye", "bye",
	"no thanks", "nothing else", "that helps", "perfect",
}

var defaultTerminatingIntents = []string{"emergency", "complaint"}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite, StorageFirestore:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StorageBackend == StorageSQLite && c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty for sqlite storage")
	}
	if c.StorageBackend == StorageFirestore && c.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT must be set for firestore storage")
	}
	if !c.UseMockLLM && c.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT must be set unless USE_MOCK_LLM is enabled")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT_SECONDS must be > 0")
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("RESPONSE_TIMEOUT_SECONDS must be > 0")
	}
	if c.HistoryWindowSize <= 0 {
		return fmt.Errorf("HISTORY_WINDOW_SIZE must be > 0")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be between 0 and 1")
	}
	if c.CallHistoryLimit <= 0 {
		return fmt.Errorf("CALL_HISTORY_LIMIT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvSeconds(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackSeconds)) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func parseIntents(labels []string) []domain.Intent {
	out := make([]domain.Intent, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		// Skip labels outside the closed intent set rather than letting them
		// collapse to "general" and terminate every call.
		if domain.ParseIntent(l) == domain.Intent(l) {
			out = append(out, domain.Intent(l))
		}
	}
	return out
}
