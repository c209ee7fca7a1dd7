package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
)

const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"

	VectorStorePinecone = "pinecone"
	VectorStoreRedis    = "redis"
	VectorStorePostgres = "postgres"
	VectorStoreMemory   = "memory"

	// PostgresEmbeddingDimension is the vector column size created by
	// migrations/000001_create_metadata_chunks.up.sql.
	PostgresEmbeddingDimension = 768
)

// Config holds application configuration
type Config struct {
	Port             string
	Env              string
	LogLevel         string
	LogFormat        string
	MetricsEnabled   bool
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Generation and embedding provider
	LLMProvider           string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiEmbeddingModel  string
	GeminiSafetyThreshold string
	EmbeddingDimension    int
	QueryTopK             int

	// AWS (Bedrock provider, index manifests)
	AWSRegion               string
	AWSAccessKeyID          string
	AWSSecretAccessKey      string
	AWSEndpointOverride     string
	BedrockModelID          string
	BedrockEmbeddingModelID string

	// Vector store
	VectorStore        string
	PineconeAPIKey     string
	PineconeIndexName  string
	PineconeIndexHost  string
	PineconeControlURL string
	PineconeCloud      string
	PineconeRegion     string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	RedisVectorPrefix  string
	DatabaseURL        string

	// Offline indexing job
	IndexerSourcePath   string
	IndexerObjectFiles  []string
	IndexerBatchSize    int
	IndexerEmbedRPS     float64
	IndexManifestBucket string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		MetricsEnabled:   getEnvAsBool("METRICS_ENABLED", true),
		HTTPReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),

		LLMProvider:           strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderGemini))),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiEmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "models/text-embedding-004"),
		GeminiSafetyThreshold: getEnv("GEMINI_SAFETY_THRESHOLD", ""),
		EmbeddingDimension:    getEnvAsInt("EMBEDDING_DIMENSION", 768),
		QueryTopK:             getEnvAsInt("QUERY_TOP_K", 5),

		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:     getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:          getEnv("BEDROCK_MODEL_ID", ""),
		BedrockEmbeddingModelID: getEnv("BEDROCK_EMBEDDING_MODEL_ID", ""),

		VectorStore:        strings.ToLower(strings.TrimSpace(getEnv("VECTOR_STORE", VectorStorePinecone))),
		PineconeAPIKey:     getEnv("PINECONE_API_KEY", ""),
		PineconeIndexName:  getEnv("PINECONE_INDEX_NAME", "salesforce-metadata"),
		PineconeIndexHost:  getEnv("PINECONE_INDEX_HOST", ""),
		PineconeControlURL: getEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),
		PineconeCloud:      getEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     getEnv("PINECONE_REGION", "us-east-1"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		RedisVectorPrefix:  getEnv("REDIS_VECTOR_PREFIX", "sfmeta"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		IndexerSourcePath:   getEnv("INDEXER_SOURCE_PATH", "force-app/main/default/"),
		IndexerObjectFiles:  getEnvAsList("INDEXER_OBJECT_FILES", []string{"Lead.json", "Opportunity.json"}),
		IndexerBatchSize:    getEnvAsInt("INDEXER_BATCH_SIZE", 100),
		IndexerEmbedRPS:     getEnvAsFloat("INDEXER_EMBED_RPS", 5),
		IndexManifestBucket: getEnv("INDEX_MANIFEST_BUCKET", ""),
	}
}

// Validate reports configuration that cannot work for the selected providers.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderBedrock:
		if strings.TrimSpace(c.BedrockModelID) == "" {
			errs = append(errs, errors.New("BEDROCK_MODEL_ID is required for the bedrock provider"))
		}
		if strings.TrimSpace(c.BedrockEmbeddingModelID) == "" {
			errs = append(errs, errors.New("BEDROCK_EMBEDDING_MODEL_ID is required for the bedrock provider"))
		}
		if sizes := llm.BedrockEmbeddingDimensions(c.BedrockEmbeddingModelID); sizes != nil && !slices.Contains(sizes, c.EmbeddingDimension) {
			errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSION %d is not supported by %s (want one of %v)", c.EmbeddingDimension, c.BedrockEmbeddingModelID, sizes))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.VectorStore {
	case VectorStorePinecone:
		if strings.TrimSpace(c.PineconeAPIKey) == "" {
			errs = append(errs, errors.New("PINECONE_API_KEY is required for the pinecone vector store"))
		}
	case VectorStoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis vector store"))
		}
	case VectorStorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres vector store"))
		}
		if c.EmbeddingDimension != PostgresEmbeddingDimension {
			errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSION must be %d for the postgres vector store, got %d", PostgresEmbeddingDimension, c.EmbeddingDimension))
		}
	case VectorStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported VECTOR_STORE %q", c.VectorStore))
	}

	if c.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSION must be positive"))
	}
	if c.QueryTopK <= 0 {
		errs = append(errs, errors.New("QUERY_TOP_K must be positive"))
	}

	return errors.Join(errs...)
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

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
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
