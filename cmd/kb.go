package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/progress"
	"github.com/ziadkadry99/ad-verify/internal/vectordb"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the advertising guidelines knowledge base",
	Long: `The knowledge base is seeded with FTC truth-in-advertising guidance,
social media advertising rules and a catalog of misleading tactics. Use
these commands to add your own guideline documents, search it, or rebuild
it from the seed corpus.`,
}

var kbIngestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Add guideline documents from a directory",
	Long:  `Walks the directory (default: knowledge_dir from the config) and adds every file matching knowledge_include (default **/*.md and **/*.txt).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKBIngest,
}

var kbSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBSearch,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove every chunk of one source",
	Long:  `Deletes the chunks stored under a source: the name given to the ingest API, or the relative path of an ingested file. Seed sources can be deleted too and come back on rebuild.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

var kbRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Drop every chunk and reseed from the built-in corpus",
	Long:  `Rebuild is required after switching the embedding provider or model. Ingested documents are removed and must be ingested again.`,
	RunE:  runKBRebuild,
}

var kbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the number of indexed chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kb, err := openKnowledge(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Knowledge base: %s\n", cfg.VectorDir())
		fmt.Printf("Embeddings:     %s %s\n", cfg.EmbeddingProvider, cfg.EmbeddingModel)
		fmt.Printf("Chunks:         %d\n", kb.Count())
		return nil
	},
}

func init() {
	kbIngestCmd.Flags().Bool("ci", false, "plain progress output for CI logs")
	kbSearchCmd.Flags().Int("k", 5, "maximum number of results")
	kbSearchCmd.Flags().Bool("json", false, "output results as JSON")
	kbSearchCmd.Flags().String("kind", "", "only search seed or ingested chunks")

	kbCmd.AddCommand(kbIngestCmd, kbSearchCmd, kbDeleteCmd, kbRebuildCmd, kbStatusCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.KnowledgeDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory given and knowledge_dir is not set")
	}

	kb, err := openKnowledge(ctx, cfg, nil)
	if err != nil {
		return err
	}

	var reporter progress.Reporter = progress.NewReporter()
	if ci, _ := cmd.Flags().GetBool("ci"); ci {
		reporter = progress.NewCIReporter(os.Stderr)
	}

	stats, err := kb.IngestFiles(ctx, dir, cfg.IngestInclude(), cfg.KnowledgeExclude, reporter)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d file(s): %d new chunk(s), %d unchanged, %d skipped. Total chunks: %d\n",
		stats.Files, stats.Chunks, stats.Unchanged, stats.Skipped, kb.Count())
	return nil
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, _ := cmd.Flags().GetInt("k")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	kindFlag, _ := cmd.Flags().GetString("kind")

	kind := vectordb.DocumentKind(kindFlag)
	switch kind {
	case "", vectordb.KindSeed, vectordb.KindIngested:
	default:
		return fmt.Errorf("--kind must be %q or %q", vectordb.KindSeed, vectordb.KindIngested)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := openKnowledge(ctx, cfg, nil)
	if err != nil {
		return err
	}

	chunks, err := kb.Search(ctx, args[0], k, kind)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	fmt.Print(knowledge.FormatChunks(chunks))
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := openKnowledge(ctx, cfg, nil)
	if err != nil {
		return err
	}
	n, err := kb.DeleteSource(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chunk(s) from %s. Total chunks: %d\n", n, args[0], kb.Count())
	return nil
}

func runKBRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := openKnowledge(ctx, cfg, nil)
	if err != nil {
		return err
	}
	if err := kb.Rebuild(ctx); err != nil {
		return err
	}
	fmt.Printf("Knowledge base rebuilt: %d chunk(s)\n", kb.Count())
	return nil
}
