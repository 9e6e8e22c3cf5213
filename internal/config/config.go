package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Pipeline PipelineConfig `toml:"pipeline"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

// PipelineConfig holds the chunking, retrieval and generation knobs.
type PipelineConfig struct {
	ChunkSize          int     `toml:"chunk_size"`
	ChunkOverlap       int     `toml:"chunk_overlap"`
	TopK               int     `toml:"top_k"`
	MaxTopK            int     `toml:"max_top_k"`
	MinSimilarity      float64 `toml:"min_similarity"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	MaxPDFSizeMB       int     `toml:"max_pdf_size_mb"`
	BusyTimeoutSeconds int     `toml:"busy_timeout_seconds"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
}

type StorageConfig struct {
	Backend    string `toml:"backend"` // "sqlite" or "memory"
	SQLitePath string `toml:"sqlite_path"`
}

// RedisConfig configures the answer cache. An empty Addr disables it.
type RedisConfig struct {
	Addr             string `toml:"addr"`
	Password         string `toml:"password"`
	DB               int    `toml:"db"`
	AnswerTTLSeconds int    `toml:"answer_ttl_seconds"`
}

// RabbitMQConfig configures async ingestion. An empty URL disables it.
type RabbitMQConfig struct {
	URL         string `toml:"url"`
	IngestQueue string `toml:"ingest_queue"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MaxPDFSizeBytes() int64 {
	return int64(c.Pipeline.MaxPDFSizeMB) << 20
}

func (c *Config) validate() error {
	p := c.Pipeline
	if p.ChunkSize <= 0 {
		return fmt.Errorf("pipeline.chunk_size must be positive, got %d", p.ChunkSize)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("pipeline.chunk_overlap must satisfy 0 <= overlap < chunk_size, got %d", p.ChunkOverlap)
	}
	if p.TopK <= 0 || p.MaxTopK < p.TopK {
		return fmt.Errorf("pipeline.top_k/max_top_k invalid: %d/%d", p.TopK, p.MaxTopK)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "docchat",
			Env:     "dev",
			Host:    "127.0.0.1",
			Port:    8080,
			GinMode: "debug",
		},
		Pipeline: PipelineConfig{
			ChunkSize:          900,
			ChunkOverlap:       150,
			TopK:               6,
			MaxTopK:            20,
			MinSimilarity:      0.15,
			MaxOutputTokens:    256,
			MaxPDFSizeMB:       25,
			BusyTimeoutSeconds: 90,
		},
		LLM: LLMConfig{
			BaseURL:        "http://127.0.0.1:11434/v1",
			APIKey:         "",
			Model:          "llama3.2:1b",
			EmbeddingModel: "all-minilm",
		},
		Storage: StorageConfig{
			Backend:    "sqlite",
			SQLitePath: "data/docchat.db",
		},
		Redis: RedisConfig{
			Addr:             "",
			Password:         "",
			DB:               0,
			AnswerTTLSeconds: 300,
		},
		RabbitMQ: RabbitMQConfig{
			URL:         "",
			IngestQueue: "docchat.ingest",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Pipeline.ChunkSize = getEnvAsInt("PIPELINE_CHUNK_SIZE", cfg.Pipeline.ChunkSize)
	cfg.Pipeline.ChunkOverlap = getEnvAsInt("PIPELINE_CHUNK_OVERLAP", cfg.Pipeline.ChunkOverlap)
	cfg.Pipeline.TopK = getEnvAsInt("PIPELINE_TOP_K", cfg.Pipeline.TopK)
	cfg.Pipeline.MaxTopK = getEnvAsInt("PIPELINE_MAX_TOP_K", cfg.Pipeline.MaxTopK)
	cfg.Pipeline.MinSimilarity = getEnvAsFloat("PIPELINE_MIN_SIMILARITY", cfg.Pipeline.MinSimilarity)
	cfg.Pipeline.MaxOutputTokens = getEnvAsInt("PIPELINE_MAX_OUTPUT_TOKENS", cfg.Pipeline.MaxOutputTokens)
	cfg.Pipeline.MaxPDFSizeMB = getEnvAsInt("PIPELINE_MAX_PDF_SIZE_MB", cfg.Pipeline.MaxPDFSizeMB)
	cfg.Pipeline.BusyTimeoutSeconds = getEnvAsInt("PIPELINE_BUSY_TIMEOUT_SECONDS", cfg.Pipeline.BusyTimeoutSeconds)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbeddingModel = getEnv("LLM_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.SQLitePath = getEnv("STORAGE_SQLITE_PATH", cfg.Storage.SQLitePath)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.AnswerTTLSeconds = getEnvAsInt("REDIS_ANSWER_TTL_SECONDS", cfg.Redis.AnswerTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.IngestQueue = getEnv("RABBITMQ_INGEST_QUEUE", cfg.RabbitMQ.IngestQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
