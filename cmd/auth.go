package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials for LLM providers",
	Long: `Store and manage API credentials for LLM providers.

Credentials are stored in ~/.adverify/credentials.json and used
as a fallback when environment variables are not set.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set [provider]",
	Short: "Store an API key for a provider",
	Long: `Prompts for an API key and stores it for persistent use.

Valid providers: ` + strings.Join(auth.KeyProviders(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have credentials",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a provider.

If no provider is specified, removes all stored credentials.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd, authStatusCmd, authLogoutCmd)
}

func checkKeyProvider(p string) error {
	if auth.KeyEnvVar(p) == "" {
		return fmt.Errorf("unknown provider %q (valid: %s)", p, strings.Join(auth.KeyProviders(), ", "))
	}
	return nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	provider := args[0]
	if err := checkKeyProvider(provider); err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label: provider + " API key",
		Mask:  '*',
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("API key is required")
			}
			return nil
		},
	}
	key, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}

	creds, err := auth.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	creds.APIKeys[provider] = strings.TrimSpace(key)
	if err := auth.SaveCredentials(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Printf("%s credentials stored successfully!\n", provider)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	creds, err := auth.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	path, _ := auth.CredentialPath()
	fmt.Printf("Credentials file: %s\n\n", path)

	fmt.Println("Provider     Status")
	fmt.Println("--------     ------")
	for _, p := range auth.KeyProviders() {
		status := "not configured"
		switch {
		case os.Getenv(auth.KeyEnvVar(p)) != "" && creds.APIKeys[p] == "":
			status = "configured (env var)"
		case creds.APIKeys[p] != "":
			status = "configured (stored)"
		}
		fmt.Printf("%-12s %s\n", p, status)
	}
	fmt.Printf("%-12s %s\n", "ollama", "available (local)")
	fmt.Printf("%-12s %s\n", "hash", "available (offline embeddings)")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	creds, err := auth.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if len(args) == 0 {
		creds = &auth.Credentials{APIKeys: map[string]string{}}
		fmt.Println("All stored credentials removed.")
	} else {
		if err := checkKeyProvider(args[0]); err != nil {
			return err
		}
		delete(creds.APIKeys, args[0])
		fmt.Printf("%s credentials removed.\n", args[0])
	}

	return auth.SaveCredentials(creds)
}
