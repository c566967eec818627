package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `json:"server"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Agent     AgentConfig     `json:"agent"`
	Database  DatabaseConfig  `json:"database"`
	Cache     CacheConfig     `json:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

type ServerConfig struct {
	Host                  string   `json:"host"`
	Port                  int      `json:"port"`
	LogLevel              string   `json:"log_level"`
	CORSOrigins           []string `json:"cors_origins"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
}

type OpenAIConfig struct {
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type AgentConfig struct {
	DefaultModel   string  `json:"default_model"`
	Variant        string  `json:"variant"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	MaxIterations  int     `json:"max_iterations"`
	AdaptivePrompt bool    `json:"adaptive_prompt"`
	Reflection     bool    `json:"reflection"`
}

type DatabaseConfig struct {
	SongsPath  string           `json:"songs_path"`
	Executions ExecutionsConfig `json:"executions"`
}

type ExecutionsConfig struct {
	Driver        string `json:"driver"` // "sqlite" or "postgres"
	Path          string `json:"path"`
	PostgresDSN   string `json:"postgres_dsn"`
	RetentionDays int    `json:"retention_days"`
}

type CacheConfig struct {
	Backend    string `json:"backend"` // "memory" or "redis"
	MaxSize    int    `json:"max_size"`
	TTLSeconds int    `json:"ttl_seconds"`
	RedisURL   string `json:"redis_url"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

// Default returns a configuration populated with workable defaults so the
// binaries run without a config file (the OpenAI key still comes from env).
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                  "0.0.0.0",
			Port:                  8000,
			LogLevel:              "info",
			CORSOrigins:           []string{"http://localhost:8501", "http://localhost:8000"},
			RequestTimeoutSeconds: 60,
		},
		OpenAI: OpenAIConfig{
			Endpoint:       "https://api.openai.com/v1",
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			TimeoutSeconds: 120,
		},
		Agent: AgentConfig{
			DefaultModel:   "gpt-4o-mini",
			Variant:        "cot",
			Temperature:    0.1,
			MaxTokens:      1000,
			MaxIterations:  5,
			AdaptivePrompt: true,
			Reflection:     true,
		},
		Database: DatabaseConfig{
			SongsPath: "data/pink_floyd_songs.db",
			Executions: ExecutionsConfig{
				Driver:        "sqlite",
				Path:          "data/executions.db",
				RetentionDays: 30,
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxSize:    100,
			TTLSeconds: 300,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
		},
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable
// references. Fields absent from the file keep their Default() values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	cfg := Default()
	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
