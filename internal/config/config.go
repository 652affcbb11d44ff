package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Azure AI Search connection
	SearchEndpoint   string
	SearchAPIKey     string
	SearchIndex      string
	SearchAPIVersion string

	// Azure OpenAI connection
	OpenAIEndpoint   string
	OpenAIAPIKey     string
	OpenAIAPIVersion string
	EmbedDeployment  string
	ChatDeployment   string

	// Outbound call discipline
	MaxRPM         int
	EmbedBatchSize int

	// Chunking defaults
	ChunkMaxLen  int
	ChunkOverlap int

	// Ingestion
	DataRoot      string
	DocType       string
	CacheFile     string
	InterFileWait time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8000"),

		SearchEndpoint:   os.Getenv("AZURE_SEARCH_ENDPOINT"),
		SearchAPIKey:     os.Getenv("AZURE_SEARCH_API_KEY"),
		SearchIndex:      os.Getenv("AZURE_SEARCH_INDEX"),
		SearchAPIVersion: envOr("AZURE_SEARCH_API_VERSION", "2024-07-01"),

		OpenAIEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		OpenAIAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		OpenAIAPIVersion: envOr("AZURE_OPENAI_API_VERSION", "2024-10-21"),
		EmbedDeployment:  os.Getenv("AZURE_OPENAI_EMBED_DEPLOYMENT"),
		ChatDeployment:   os.Getenv("AZURE_OPENAI_CHAT_DEPLOYMENT"),

		MaxRPM:         envInt("MAX_RPM", 60),
		EmbedBatchSize: envInt("EMBED_BATCH_SIZE", 16),

		ChunkMaxLen:  envInt("CHUNK_MAX_LEN", 1600),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),

		DataRoot:      envOr("DATA_ROOT", "data_samples/stack_overflow"),
		DocType:       envOr("DOC_TYPE", "stackoverflow_thread"),
		CacheFile:     envOr("CACHE_FILE", "embeddings_cache.json"),
		InterFileWait: envDuration("INTER_FILE_WAIT", time.Second),
	}

	if cfg.MaxRPM <= 0 {
		cfg.MaxRPM = 60
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 16
	}
	if cfg.ChunkMaxLen <= 0 {
		cfg.ChunkMaxLen = 1600
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 200
	}

	return cfg
}

// Validate checks that all remote service settings are present. The chunking
// and rate knobs always have defaults, so only credentials can fail here.
func (c Config) Validate() error {
	if c.SearchEndpoint == "" {
		return fmt.Errorf("AZURE_SEARCH_ENDPOINT is required")
	}
	if c.SearchAPIKey == "" {
		return fmt.Errorf("AZURE_SEARCH_API_KEY is required")
	}
	if c.SearchIndex == "" {
		return fmt.Errorf("AZURE_SEARCH_INDEX is required")
	}
	if c.OpenAIEndpoint == "" {
		return fmt.Errorf("AZURE_OPENAI_ENDPOINT is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("AZURE_OPENAI_API_KEY is required")
	}
	if c.EmbedDeployment == "" {
		return fmt.Errorf("AZURE_OPENAI_EMBED_DEPLOYMENT is required")
	}
	if c.ChatDeployment == "" {
		return fmt.Errorf("AZURE_OPENAI_CHAT_DEPLOYMENT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
