package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.TopK)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 100 {
		t.Errorf("expected chunking 1000/100, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("expected fetch_timeout 10s, got %s", cfg.FetchTimeout)
	}
	if cfg.ModelTimeout != 90*time.Second {
		t.Errorf("expected model_timeout 90s, got %s", cfg.ModelTimeout)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.adverify.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-sonnet-4-5-20250929"
	original.EmbeddingProvider = ProviderHash
	original.TopK = 8
	original.ModelTimeout = 45 * time.Second
	original.CORSAllowAll = true
	original.KnowledgeInclude = []string{"**/*.md"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "model_timeout: 45s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.EmbeddingProvider != ProviderHash {
		t.Errorf("embedding_provider: got %q", loaded.EmbeddingProvider)
	}
	if loaded.TopK != 8 {
		t.Errorf("top_k: got %d, want 8", loaded.TopK)
	}
	if loaded.ModelTimeout != 45*time.Second {
		t.Errorf("model_timeout: got %s, want 45s", loaded.ModelTimeout)
	}
	if !loaded.CORSAllowAll {
		t.Error("cors_allow_all: got false")
	}
	if got := loaded.IngestInclude(); len(got) != 1 || got[0] != "**/*.md" {
		t.Errorf("knowledge_include: got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
	if len(cfg.IngestInclude()) != len(DefaultKnowledgeInclude) {
		t.Errorf("expected default ingest globs, got %v", cfg.IngestInclude())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("ADVERIFY_PROVIDER", "google")
	t.Setenv("ADVERIFY_TOP_K", "3")
	t.Setenv("ADVERIFY_FETCH_TIMEOUT", "2s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderGoogle {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderGoogle)
	}
	if loaded.TopK != 3 {
		t.Errorf("top_k override failed: got %d", loaded.TopK)
	}
	if loaded.FetchTimeout != 2*time.Second {
		t.Errorf("fetch_timeout override failed: got %s", loaded.FetchTimeout)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	// No .env is fine.
	if err := LoadDotEnv(); err != nil {
		t.Fatalf("LoadDotEnv without file: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADVERIFY_DOTENV_TEST=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADVERIFY_DOTENV_TEST", "")
	os.Unsetenv("ADVERIFY_DOTENV_TEST")
	if err := LoadDotEnv(); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ADVERIFY_DOTENV_TEST"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"hash embeddings", func(c *Config) { c.EmbeddingProvider = ProviderHash }, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"hash is not a chat provider", func(c *Config) { c.Provider = ProviderHash }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"anthropic has no embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"top_k zero", func(c *Config) { c.TopK = 0 }, true},
		{"chunk size zero", func(c *Config) { c.ChunkSize = 0 }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }, true},
		{"zero model timeout", func(c *Config) { c.ModelTimeout = 0 }, true},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderOllama); p.EmbeddingProvider != ProviderOllama {
		t.Errorf("ollama should embed locally, got %q", p.EmbeddingProvider)
	}
	if p := GetPreset("unknown"); p.Model != "gpt-4" {
		t.Errorf("expected fallback to gpt-4, got %q", p.Model)
	}
}

func TestDataPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/adverify"
	if got := cfg.DBPath(); got != "/var/lib/adverify/adverify.db" {
		t.Errorf("DBPath() = %q", got)
	}
	if got := cfg.VectorDir(); got != "/var/lib/adverify/vectordb" {
		t.Errorf("VectorDir() = %q", got)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
		{ProviderHash, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, s := range []string{"0", "abc", "65536", ""} {
		if validatePort(s) == nil {
			t.Errorf("validatePort(%q) should fail", s)
		}
	}
	if err := validatePort("8080"); err != nil {
		t.Errorf("validatePort(8080): %v", err)
	}
}
