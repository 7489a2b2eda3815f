package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/startupscout/internal/report"
	"github.com/ppiankov/startupscout/internal/store"
)

var noReport bool

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <thread-url|post-id|file>",
	Short: "Extract startups from the comments of one thread",
	Long: `Scrape reads the comments of a single thread and, for each one that
mentions a startup, asks the model for structured details and stores them.

Comments are skipped before any model call when they are empty, deleted,
shorter than pipeline.min_length, or do not mention a startup keyword.
Comments already stored by an earlier run are skipped as well.

Example:
  startupscout scrape https://www.reddit.com/r/startups/comments/1lxc97s/share_your_startup_quarterly_post/
  startupscout scrape 1lxc97s --limit 15
  startupscout scrape comments.yaml --source file
  startupscout scrape <url> --provider openai --model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addPipelineFlags(scrapeCmd)
	scrapeCmd.Flags().BoolVar(&noReport, "no-report", false, "do not print the startup listing after scraping")
}

// addPipelineFlags registers the flags shared by scrape and watch
func addPipelineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("limit", 30, "maximum number of comments to read")
	flags.String("source", "reddit", "comment source (reddit, file)")
	flags.String("provider", "ollama", "LLM provider (ollama, openai, anthropic)")
	flags.String("model", "llama2", "LLM model name")
	flags.String("llm-url", "", "LLM endpoint base URL (provider default when empty)")
	flags.Int("concurrency", 1, "number of comments processed at once")
	flags.Bool("no-cache", false, "disable the model response cache")
	flags.Bool("reprocess", false, "send comments to the model even if already stored")
}

// bindPipelineFlags maps the shared flags onto config keys. Binding happens
// at run time so scrape and watch do not overwrite each other's bindings.
func bindPipelineFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	_ = v.BindPFlag("pipeline.limit", flags.Lookup("limit"))
	_ = v.BindPFlag("source.kind", flags.Lookup("source"))
	_ = v.BindPFlag("llm.provider", flags.Lookup("provider"))
	_ = v.BindPFlag("llm.model", flags.Lookup("model"))
	_ = v.BindPFlag("llm.base_url", flags.Lookup("llm-url"))
	_ = v.BindPFlag("pipeline.concurrency", flags.Lookup("concurrency"))

	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		v.Set("cache.enabled", !noCache)
	}
	if flags.Changed("reprocess") {
		reprocess, _ := flags.GetBool("reprocess")
		v.Set("pipeline.skip_processed", !reprocess)
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	ref := args[0]

	bindPipelineFlags(cmd, viper.GetViper())
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scraping: %s\n", ref)
		fmt.Fprintf(os.Stderr, "Model:    %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Store.Path)
		fmt.Fprintln(os.Stderr)
	}

	return store.With(cfg.Store, logger, func(st *store.Store) error {
		p, err := newPipeline(cfg, st, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "🚀 Starting comment scraping and analysis...\n")

		stats, err := p.Run(ctx, ref, cfg.Pipeline.Limit)
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ %s\n", stats)
		if stats.Interrupted {
			fmt.Fprintf(os.Stderr, "⚠️  Interrupted before all comments were processed\n")
		}

		if noReport {
			return nil
		}

		fmt.Println()
		rows, err := st.ListStartups(context.WithoutCancel(ctx))
		if err != nil {
			return err
		}
		return report.Render(os.Stdout, rows, cfg.Report.Format)
	})
}
