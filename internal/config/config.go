// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig is returned when a required key is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Vector store backends.
const (
	VectorStoreMemory = "memory"
	VectorStoreQdrant = "qdrant"
)

// Config holds every setting the server and CLI need.
type Config struct {
	// Credentials (required)
	UpstageAPIKey     string `mapstructure:"UPSTAGE_API_KEY"`
	SerpAPIKey        string `mapstructure:"SERP_API_KEY"`
	NaverClientID     string `mapstructure:"NAVER_CLIENT_ID"`
	NaverClientSecret string `mapstructure:"NAVER_CLIENT_SECRET"`
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`

	// Server
	Port       string `mapstructure:"PORT"`
	ServerMode bool   `mapstructure:"SERVER_MODE"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	// Chat and embedding provider (OpenAI-compatible)
	UpstageBaseURL     string `mapstructure:"UPSTAGE_BASE_URL"`
	ChatModel          string `mapstructure:"CHAT_MODEL"`
	EmbeddingModel     string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingBatchSize int    `mapstructure:"EMBEDDING_BATCH_SIZE"`

	// Assistant
	AssistantModel      string        `mapstructure:"ASSISTANT_MODEL"`
	AssistantRunTimeout time.Duration `mapstructure:"ASSISTANT_RUN_TIMEOUT"`

	// Search
	NaverBaseURL   string        `mapstructure:"NAVER_BASE_URL"`
	NaverDisplay   int           `mapstructure:"NAVER_DISPLAY"`
	SerpAPIBaseURL string        `mapstructure:"SERPAPI_BASE_URL"`
	SearchTimeout  time.Duration `mapstructure:"SEARCH_TIMEOUT"`

	// Retrieval
	// The number of retrieved chunks is fixed at 3 and is not configurable.
	MMRFetchK    int     `mapstructure:"MMR_FETCH_K"`
	MMRLambda    float64 `mapstructure:"MMR_LAMBDA"`
	ChunkSize    int     `mapstructure:"CHUNK_SIZE"`
	ChunkOverlap int     `mapstructure:"CHUNK_OVERLAP"`

	// Vector store
	VectorStore string `mapstructure:"VECTOR_STORE"`
	QdrantHost  string `mapstructure:"QDRANT_HOST"`
	QdrantPort  int    `mapstructure:"QDRANT_PORT"`

	// Tracing
	OTelEnabled     bool   `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

var requiredKeys = []string{
	"UPSTAGE_API_KEY",
	"SERP_API_KEY",
	"NAVER_CLIENT_ID",
	"NAVER_CLIENT_SECRET",
	"OPENAI_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("SERVER_MODE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTAGE_BASE_URL", "https://api.upstage.ai/v1")
	v.SetDefault("CHAT_MODEL", "solar-mini")
	v.SetDefault("EMBEDDING_MODEL", "embedding-query")
	v.SetDefault("EMBEDDING_BATCH_SIZE", 100)

	v.SetDefault("ASSISTANT_MODEL", "gpt-4o")
	v.SetDefault("ASSISTANT_RUN_TIMEOUT", 60*time.Second)

	v.SetDefault("NAVER_BASE_URL", "https://openapi.naver.com")
	v.SetDefault("NAVER_DISPLAY", 10)
	v.SetDefault("SERPAPI_BASE_URL", "https://serpapi.com")
	v.SetDefault("SEARCH_TIMEOUT", 10*time.Second)

	v.SetDefault("MMR_FETCH_K", 20)
	v.SetDefault("MMR_LAMBDA", 0.5)
	v.SetDefault("CHUNK_SIZE", 500)
	v.SetDefault("CHUNK_OVERLAP", 100)

	v.SetDefault("VECTOR_STORE", VectorStoreMemory)
	v.SetDefault("QDRANT_HOST", "localhost")
	v.SetDefault("QDRANT_PORT", 6334)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SERVICE_NAME", "news-rag-server")
}

// Load reads a .env file if present, then the process environment.
// It fails when any required credential is missing.
func Load() (*Config, error) {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	// Unmarshal only sees keys viper knows about, so bind each one explicitly.
	for _, key := range append(requiredKeys, v.AllKeys()...) {
		if err := v.BindEnv(strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing credential at once, and rejects
// settings the pipeline cannot run with.
func (c *Config) Validate() error {
	values := map[string]string{
		"UPSTAGE_API_KEY":     c.UpstageAPIKey,
		"SERP_API_KEY":        c.SerpAPIKey,
		"NAVER_CLIENT_ID":     c.NaverClientID,
		"NAVER_CLIENT_SECRET": c.NaverClientSecret,
		"OPENAI_API_KEY":      c.OpenAIAPIKey,
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.MMRFetchK <= 0 {
		return fmt.Errorf("MMR_FETCH_K must be positive, got %d", c.MMRFetchK)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("MMR_LAMBDA must be in [0, 1], got %v", c.MMRLambda)
	}
	if c.AssistantRunTimeout <= 0 {
		return fmt.Errorf("ASSISTANT_RUN_TIMEOUT must be positive, got %s", c.AssistantRunTimeout)
	}

	switch c.VectorStore {
	case VectorStoreMemory, VectorStoreQdrant:
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}
	return nil
}
