package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [ad text]",
	Short: "Verify an advertisement from the command line",
	Long: `Runs the verification pipeline on one advertisement and prints the
credibility score, explanation, issues and recommendations. With no
argument, or "-", the ad text is read from stdin. Nothing is stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("url", "", "landing page URL to add as context")
	verifyCmd.Flags().Bool("json", false, "print the outcome as JSON")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	url, _ := cmd.Flags().GetString("url")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	content, err := readAdText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := openKnowledge(ctx, cfg, nil)
	if err != nil {
		return err
	}
	engine, err := buildEngine(ctx, cfg, kb, nil)
	if err != nil {
		return err
	}

	outcome, err := engine.Verify(ctx, content, url)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}
	printOutcome(cmd.OutOrStdout(), outcome)
	return nil
}

func readAdText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading ad text from stdin: %w", err)
	}
	return string(data), nil
}

var (
	scoreGood = color.New(color.FgGreen, color.Bold).SprintFunc()
	scoreMid  = color.New(color.FgYellow, color.Bold).SprintFunc()
	scoreBad  = color.New(color.FgRed, color.Bold).SprintFunc()
	heading   = color.New(color.Bold).SprintFunc()
)

// scoreColor picks the verdict color. The bands are presentation only.
func scoreColor(score float64) func(a ...interface{}) string {
	switch {
	case score >= 0.7:
		return scoreGood
	case score >= 0.4:
		return scoreMid
	default:
		return scoreBad
	}
}

func printOutcome(w io.Writer, o *verifier.Outcome) {
	paint := scoreColor(o.CredibilityScore)
	fmt.Fprintf(w, "%s %s\n\n", heading("Credibility Score:"), paint(fmt.Sprintf("%.2f/1.00", o.CredibilityScore)))
	fmt.Fprintf(w, "%s\n%s\n", heading("Analysis:"), strings.TrimSpace(o.Explanation))
	if len(o.Issues) > 0 {
		fmt.Fprintf(w, "\n%s\n", heading("Issues Identified:"))
		for _, issue := range o.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
	if len(o.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", heading("Recommendations:"))
		for _, rec := range o.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}
