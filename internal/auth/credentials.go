package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// keyEnvVars maps each model provider to the environment variable its
// client reads.
var keyEnvVars = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"google":     "GOOGLE_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"minimax":    "MINIMAX_API_KEY",
}

// Credentials holds stored provider API keys, keyed by provider name.
type Credentials struct {
	APIKeys map[string]string `json:"api_keys,omitempty"`
}

// KeyProviders returns the providers that accept a stored API key.
func KeyProviders() []string {
	out := make([]string, 0, len(keyEnvVars))
	for p := range keyEnvVars {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// KeyEnvVar returns the environment variable for provider, or "".
func KeyEnvVar(provider string) string {
	return keyEnvVars[provider]
}

// CredentialPath returns the path to the credentials file (~/.adverify/credentials.json).
func CredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".adverify", "credentials.json"), nil
}

// LoadCredentials reads the credentials file.
// Returns empty credentials if the file doesn't exist.
func LoadCredentials() (*Credentials, error) {
	path, err := CredentialPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{APIKeys: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.APIKeys == nil {
		creds.APIKeys = map[string]string{}
	}
	return &creds, nil
}

// SaveCredentials writes the credentials file with restricted permissions.
func SaveCredentials(creds *Credentials) error {
	path, err := CredentialPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// GetAPIKey returns the API key for the given provider.
// It checks the environment variable first, then falls back to stored credentials.
func GetAPIKey(provider string) string {
	env, ok := keyEnvVars[provider]
	if !ok {
		return ""
	}
	if key := os.Getenv(env); key != "" {
		return key
	}

	creds, err := LoadCredentials()
	if err != nil {
		return ""
	}
	return creds.APIKeys[provider]
}

// ApplyStoredKeys exports stored keys into the environment for every
// provider whose variable is unset, so provider constructors that read the
// environment pick them up. It returns the providers it filled in.
func ApplyStoredKeys() ([]string, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	var applied []string
	for _, p := range KeyProviders() {
		key := creds.APIKeys[p]
		env := keyEnvVars[p]
		if key == "" || os.Getenv(env) != "" {
			continue
		}
		if err := os.Setenv(env, key); err != nil {
			return applied, fmt.Errorf("setting %s: %w", env, err)
		}
		applied = append(applied, p)
	}
	return applied, nil
}
