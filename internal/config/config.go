// Package config provides environment configuration for the bot daemon.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// Model provider credentials. Multiple keys per provider enable
	// round-robin failover in the gateway.
	OpenAIAPIKeys    []string
	AnthropicAPIKeys []string
	GenerationModel  string
	EmbeddingModel   string

	// Memory system tuning
	MaxFullMessages      int
	CompressionThreshold int
	IndexBatchSize       int
	RetrievalTopK        int
	RelevanceFloor       float64
	EmbeddingCacheSize   int
	InlineTranscriptMax  int

	// Gateway retry behaviour
	RetryBackoff  time.Duration
	StatsInterval time.Duration

	// Upload staging
	StagingDir string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Model providers
		OpenAIAPIKeys:    getListEnv("OPENAI_API_KEYS"),
		AnthropicAPIKeys: getListEnv("ANTHROPIC_API_KEYS"),
		GenerationModel:  getEnv("GENERATION_MODEL", "gpt-4o"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		// Memory system
		MaxFullMessages:      getIntEnv("MAX_FULL_MESSAGES", 10),
		CompressionThreshold: getIntEnv("COMPRESSION_THRESHOLD", 60),
		IndexBatchSize:       getIntEnv("INDEX_BATCH_SIZE", 50),
		RetrievalTopK:        getIntEnv("RETRIEVAL_TOP_K", 3),
		RelevanceFloor:       getFloatEnv("RELEVANCE_FLOOR", 0.7),
		EmbeddingCacheSize:   getIntEnv("EMBEDDING_CACHE_SIZE", 1000),
		InlineTranscriptMax:  getIntEnv("INLINE_TRANSCRIPT_MAX", 1000),

		// Gateway
		RetryBackoff:  getDurationEnv("GATEWAY_RETRY_BACKOFF", 2*time.Second),
		StatsInterval: getDurationEnv("GATEWAY_STATS_INTERVAL", 30*time.Minute),

		// Staging
		StagingDir: getEnv("STAGING_DIR", os.TempDir()),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
