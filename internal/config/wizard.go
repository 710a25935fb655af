package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderMiniMax:
		return "MINIMAX_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// RunWizard asks for the provider, models and server settings, saves the
// result to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to adverify! Let's configure the verification pipeline.")
	fmt.Println()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "google", "ollama", "openrouter", "minimax"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	modelPrompt := promptui.Prompt{Label: "Model", Default: preset.Model}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	embedPrompt := promptui.Select{
		Label: "Select embedding provider (hash works offline)",
		Items: []string{string(preset.EmbeddingProvider), "openai", "google", "ollama", "hash"},
	}
	_, embedStr, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding provider selection: %w", err)
	}
	embedProvider := ProviderType(embedStr)
	embedModel := preset.EmbeddingModel
	if embedProvider != preset.EmbeddingProvider {
		embedModel = GetPreset(embedProvider).EmbeddingModel
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = strings.TrimSpace(model)
	cfg.EmbeddingProvider = embedProvider
	cfg.EmbeddingModel = embedModel
	if embedProvider == ProviderHash {
		cfg.EmbeddingModel = ""
	}

	dataPrompt := promptui.Prompt{Label: "Data directory", Default: cfg.DataDir}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s (or run `adverify auth set %s`) before verifying ads.\n", envVar, provider)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}
