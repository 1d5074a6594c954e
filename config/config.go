package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
	Memory   MemoryConfig
	AgentHub AgentHubConfig
	Scraper  ScraperConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/chayo?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// OpenAIConfig holds API credentials and model selection for chat,
// validation and embedding calls.
type OpenAIConfig struct {
	APIKey              string
	BaseURL             string // optional, for OpenAI-compatible gateways
	ChatModel           string
	ValidationModel     string // cheaper model for answer validation / relevance classification
	EmbeddingModel      string
	EmbeddingDimensions int
}

// MemoryConfig holds the similarity/confidence thresholds driving the
// knowledge store. These are tuning constants, so they stay configurable
// rather than hard-coded at call sites.
type MemoryConfig struct {
	SearchThreshold   float64 // minimum similarity for retrieval
	ConflictThreshold float64 // similarity above which a write is a potential duplicate
	ReplaceConfidence float64 // new-write confidence required to supersede
	ReplaceSimilarity float64 // match similarity required to supersede
	SearchLimit       int
}

// AgentHubConfig holds the external agent-link service settings.
type AgentHubConfig struct {
	BaseURL           string
	MinAnsweredFields int // threshold before an agent chat link is created
}

// ScraperConfig holds website scraping settings.
type ScraperConfig struct {
	Enabled         bool
	MaxContentBytes int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "60"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/chayo?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "chayo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			BaseURL:             getEnv("OPENAI_BASE_URL", ""),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
			ValidationModel:     getEnv("OPENAI_VALIDATION_MODEL", "gpt-4o-mini"),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
		},
		Memory: MemoryConfig{
			SearchThreshold:   getEnvFloat("MEMORY_SEARCH_THRESHOLD", 0.8),
			ConflictThreshold: getEnvFloat("MEMORY_CONFLICT_THRESHOLD", 0.85),
			ReplaceConfidence: getEnvFloat("MEMORY_REPLACE_CONFIDENCE", 0.9),
			ReplaceSimilarity: getEnvFloat("MEMORY_REPLACE_SIMILARITY", 0.9),
			SearchLimit:       getEnvInt("MEMORY_SEARCH_LIMIT", 5),
		},
		AgentHub: AgentHubConfig{
			BaseURL:           getEnv("AGENT_HUB_URL", ""),
			MinAnsweredFields: getEnvInt("AGENT_HUB_MIN_ANSWERED_FIELDS", 5),
		},
		Scraper: ScraperConfig{
			Enabled:         getEnv("SCRAPER_ENABLED", "true") == "true",
			MaxContentBytes: getEnvInt("SCRAPER_MAX_CONTENT_BYTES", 200000),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
