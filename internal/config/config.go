package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32
	EmbeddingModel    string
	DBPath            string
	QdrantURL         string
	QdrantCollection  string
	QdrantVectorSize  int
	APIPort           string
	LogLevel          string
	LogFormat         string
	ChunkSize         int
	ChunkOverlap      int
	MaxUploadBytes    int64
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	// Try to find project root by looking for a .env file
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
		// text-embedding-004 outputs 768-dimensional vectors. If the
		// embedding model changes, QDRANT_VECTOR_SIZE must change with it
		// and the Qdrant collection must be recreated.
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		DBPath:           getEnv("DB_PATH", "./data/rag-pdf-assistant.db"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "pdf_chunks"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	temperature, err := parseFloat32("GEMINI_TEMPERATURE", "0.1")
	if err != nil {
		return nil, err
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("GEMINI_TEMPERATURE must be between 0 and 2")
	}
	cfg.GeminiTemperature = temperature

	vectorSize, err := parseInt("QDRANT_VECTOR_SIZE", "768")
	if err != nil {
		return nil, err
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	chunkSize, err := parseInt("CHUNK_SIZE", "500")
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	cfg.ChunkSize = chunkSize

	chunkOverlap, err := parseInt("CHUNK_OVERLAP", "200")
	if err != nil {
		return nil, err
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be non-negative and smaller than CHUNK_SIZE")
	}
	cfg.ChunkOverlap = chunkOverlap

	maxUploadMB, err := parseInt("MAX_UPLOAD_MB", "50")
	if err != nil {
		return nil, err
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	// Create ./data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key, defaultValue string) (int, error) {
	value, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return value, nil
}

func parseFloat32(key, defaultValue string) (float32, error) {
	value, err := strconv.ParseFloat(getEnv(key, defaultValue), 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return float32(value), nil
}
