// Package config handles configuration loading for UnderwriteAI.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"        yaml:"llm"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"  yaml:"retrieval"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary      string  `mapstructure:"primary"       yaml:"primary"` // "openai", "anthropic", "ollama"
	OpenAIKey    string  `mapstructure:"openai_key"    yaml:"openai_key"`
	AnthropicKey string  `mapstructure:"anthropic_key" yaml:"anthropic_key"`
	OllamaURL    string  `mapstructure:"ollama_url"    yaml:"ollama_url"`
	Model        string  `mapstructure:"model"         yaml:"model"`
	Temperature  float64 `mapstructure:"temperature"   yaml:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"    yaml:"max_tokens"`
}

// RetrievalConfig holds policy document indexing and retrieval settings.
type RetrievalConfig struct {
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`
	DocsDir        string `mapstructure:"docs_dir"        yaml:"docs_dir"` // guideline folder indexed at startup
	FeedURL        string `mapstructure:"feed_url"        yaml:"feed_url"` // optional policy bulletin feed
	TopK           int    `mapstructure:"top_k"           yaml:"top_k"`
	ChunkSize      int    `mapstructure:"chunk_size"      yaml:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"   yaml:"chunk_overlap"`
}

// ThresholdsConfig holds the risk-flag cutoffs used by the ratio engine.
type ThresholdsConfig struct {
	MaxDTI               float64 `mapstructure:"max_dti"                yaml:"max_dti"`
	MaxBackEndDTI        float64 `mapstructure:"max_back_end_dti"       yaml:"max_back_end_dti"`
	MaxLTV               float64 `mapstructure:"max_ltv"                yaml:"max_ltv"`
	MaxCreditUtilization float64 `mapstructure:"max_credit_utilization" yaml:"max_credit_utilization"`
	MinSavingsToIncome   float64 `mapstructure:"min_savings_to_income"  yaml:"min_savings_to_income"`
	MinNetWorthToIncome  float64 `mapstructure:"min_net_worth_to_income" yaml:"min_net_worth_to_income"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxUploadMB int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.underwriteai/config.yaml (home directory)
//  3. /etc/underwriteai/config.yaml (system)
//
// Environment variables override config file values.
// Format: UNDERWRITEAI_<SECTION>_<KEY>, e.g., UNDERWRITEAI_LLM_OPENAI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".underwriteai"))
	v.AddConfigPath("/etc/underwriteai")

	v.SetEnvPrefix("UNDERWRITEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("UNDERWRITEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 4096)

	// Retrieval defaults
	v.SetDefault("retrieval.embedding_model", "text-embedding-3-small")
	v.SetDefault("retrieval.docs_dir", "./policy_docs")
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.chunk_size", 400)
	v.SetDefault("retrieval.chunk_overlap", 40)

	// Threshold defaults match standard conventional-loan guidance.
	v.SetDefault("thresholds.max_dti", 43.0)
	v.SetDefault("thresholds.max_back_end_dti", 36.0)
	v.SetDefault("thresholds.max_ltv", 80.0)
	v.SetDefault("thresholds.max_credit_utilization", 30.0)
	v.SetDefault("thresholds.min_savings_to_income", 10.0)
	v.SetDefault("thresholds.min_net_worth_to_income", 0.0)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.max_upload_mb", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("UNDERWRITEAI_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
