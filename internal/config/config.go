package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Embed failure policy for index builds. Failing the whole build is the
// default: silently dropping chunks corrupts retrieval coverage.
const (
	EmbedPolicyFail = "fail"
	EmbedPolicyDrop = "drop"
)

// Score policy for out-of-range model scores.
const (
	ScorePolicyClamp  = "clamp"
	ScorePolicyReject = "reject"
)

const (
	VectorStoreMemory = "memory"
	VectorStoreQdrant = "qdrant"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
	Retry    RetryConfig
	Cleanup  CleanupConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey string
}

type PipelineConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	TopK              int
	EmbedConcurrency  int
	EmbedFailPolicy   string
	ScorePolicy       string
	VectorStore       string
	MaxFileSize       int64
	CompletionTimeout time.Duration
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

type LogConfig struct {
	FilePath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_ats"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_chunks"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Pipeline: PipelineConfig{
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 50),
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 5),
			EmbedConcurrency:  getEnvAsInt("EMBED_CONCURRENCY", 3),
			EmbedFailPolicy:   getEnv("EMBED_FAIL_POLICY", EmbedPolicyFail),
			ScorePolicy:       getEnv("SCORE_POLICY", ScorePolicyClamp),
			VectorStore:       getEnv("VECTOR_STORE", VectorStoreMemory),
			MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			CompletionTimeout: getEnvAsDuration("COMPLETION_TIMEOUT", "60s"),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
			MaxDelay:     getEnvAsDuration("RETRY_MAX_DELAY", "30s"),
		},
		Cleanup: CleanupConfig{
			Interval:  getEnvAsDuration("CLEANUP_INTERVAL", "1h"),
			Retention: getEnvAsDuration("CLEANUP_RETENTION", "168h"),
		},
		Log: LogConfig{
			FilePath: getEnv("LOG_FILE", "./logs/app.log"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
