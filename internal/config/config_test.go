package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"UNDERWRITEAI_LLM_OPENAI_KEY", "UNDERWRITEAI_LLM_ANTHROPIC_KEY",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// LLM defaults
	if cfg.LLM.Primary != "openai" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "openai")
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "gpt-4o")
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("LLM.Temperature: got %f, want 0.1", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("LLM.MaxTokens: got %d, want 4096", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaURL: got %q", cfg.LLM.OllamaURL)
	}

	// Retrieval defaults
	if cfg.Retrieval.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("Retrieval.EmbeddingModel: got %q", cfg.Retrieval.EmbeddingModel)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("Retrieval.TopK: got %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.ChunkSize != 400 {
		t.Errorf("Retrieval.ChunkSize: got %d, want 400", cfg.Retrieval.ChunkSize)
	}
	if cfg.Retrieval.ChunkOverlap != 40 {
		t.Errorf("Retrieval.ChunkOverlap: got %d, want 40", cfg.Retrieval.ChunkOverlap)
	}
	if cfg.Retrieval.DocsDir != "./policy_docs" {
		t.Errorf("Retrieval.DocsDir: got %q", cfg.Retrieval.DocsDir)
	}

	// Threshold defaults
	if cfg.Thresholds.MaxDTI != 43.0 {
		t.Errorf("Thresholds.MaxDTI: got %f, want 43.0", cfg.Thresholds.MaxDTI)
	}
	if cfg.Thresholds.MaxBackEndDTI != 36.0 {
		t.Errorf("Thresholds.MaxBackEndDTI: got %f, want 36.0", cfg.Thresholds.MaxBackEndDTI)
	}
	if cfg.Thresholds.MaxLTV != 80.0 {
		t.Errorf("Thresholds.MaxLTV: got %f, want 80.0", cfg.Thresholds.MaxLTV)
	}
	if cfg.Thresholds.MaxCreditUtilization != 30.0 {
		t.Errorf("Thresholds.MaxCreditUtilization: got %f, want 30.0", cfg.Thresholds.MaxCreditUtilization)
	}
	if cfg.Thresholds.MinSavingsToIncome != 10.0 {
		t.Errorf("Thresholds.MinSavingsToIncome: got %f, want 10.0", cfg.Thresholds.MinSavingsToIncome)
	}
	if cfg.Thresholds.MinNetWorthToIncome != 0.0 {
		t.Errorf("Thresholds.MinNetWorthToIncome: got %f, want 0.0", cfg.Thresholds.MinNetWorthToIncome)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.API.MaxUploadMB != 20 {
		t.Errorf("API.MaxUploadMB: got %d, want 20", cfg.API.MaxUploadMB)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	// Create a temp config file
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
llm:
  primary: "anthropic"
  model: "claude-sonnet-4-20250514"
  temperature: 0.3
  max_tokens: 8192
retrieval:
  docs_dir: "/srv/guidelines"
  top_k: 5
thresholds:
  max_dti: 45.0
  max_ltv: 90.0
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	// Unset env vars
	os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")
	os.Unsetenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.Primary != "anthropic" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "anthropic")
	}
	if cfg.LLM.Model != "claude-sonnet-4-20250514" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 8192 {
		t.Errorf("LLM.MaxTokens: got %d, want 8192", cfg.LLM.MaxTokens)
	}
	if cfg.Retrieval.DocsDir != "/srv/guidelines" {
		t.Errorf("Retrieval.DocsDir: got %q", cfg.Retrieval.DocsDir)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("Retrieval.TopK: got %d, want 5", cfg.Retrieval.TopK)
	}
	// Unset retrieval keys keep their defaults
	if cfg.Retrieval.ChunkSize != 400 {
		t.Errorf("Retrieval.ChunkSize: got %d, want default 400", cfg.Retrieval.ChunkSize)
	}
	if cfg.Thresholds.MaxDTI != 45.0 {
		t.Errorf("Thresholds.MaxDTI: got %f, want 45.0", cfg.Thresholds.MaxDTI)
	}
	if cfg.Thresholds.MaxLTV != 90.0 {
		t.Errorf("Thresholds.MaxLTV: got %f, want 90.0", cfg.Thresholds.MaxLTV)
	}
	if cfg.Thresholds.MaxBackEndDTI != 36.0 {
		t.Errorf("Thresholds.MaxBackEndDTI: got %f, want default 36.0", cfg.Thresholds.MaxBackEndDTI)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	cfg := &Config{}

	os.Setenv("UNDERWRITEAI_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	os.Setenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY", "sk-ant-test")
	defer func() {
		os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")
		os.Unsetenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY")
	}()

	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.LLM.AnthropicKey != "sk-ant-test" {
		t.Errorf("AnthropicKey: got %q", cfg.LLM.AnthropicKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")
	os.Unsetenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY")

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "from-config"},
	}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	// Keys with 8 or fewer characters should be fully masked
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	// Keys with more than 8 characters show first 3 + ... + last 3
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")
	os.Unsetenv("UNDERWRITEAI_LLM_ANTHROPIC_KEY")

	cfg := &Config{}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 2 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceNone {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
		}
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")

	cfg := &Config{
		LLM: LLMConfig{
			OpenAIKey: "sk-test-very-long-key-value",
		},
	}
	statuses := CheckAPIKeys(cfg)

	found := false
	for _, s := range statuses {
		if s.Name == "OpenAI API Key" {
			found = true
			if !s.IsSet {
				t.Error("OpenAI key should be set")
			}
			if s.Source != KeySourceConfig {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
			}
			if s.Masked != "sk-...lue" {
				t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
			}
		}
	}
	if !found {
		t.Error("OpenAI API Key status not found")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	os.Setenv("UNDERWRITEAI_LLM_OPENAI_KEY", "sk-env-key-for-testing")
	defer os.Unsetenv("UNDERWRITEAI_LLM_OPENAI_KEY")

	cfg := &Config{
		LLM: LLMConfig{
			OpenAIKey: "sk-env-key-for-testing",
		},
	}
	statuses := CheckAPIKeys(cfg)

	for _, s := range statuses {
		if s.Name == "OpenAI API Key" {
			if s.Source != KeySourceEnv {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
			}
		}
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	// No env, no value
	os.Unsetenv("TEST_VAR")
	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone {
		t.Errorf("empty value: got source %q, want %q", s.Source, KeySourceNone)
	}
	if s.IsSet {
		t.Error("empty value should not be set")
	}

	// Value from config (no env)
	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}
	if !s.IsSet {
		t.Error("config value should be set")
	}

	// Value from env
	os.Setenv("TEST_VAR", "env-value-long-enough")
	defer os.Unsetenv("TEST_VAR")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
