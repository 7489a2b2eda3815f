package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/startupscout/internal/llm"
	"github.com/ppiankov/startupscout/internal/store"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the model endpoint and database are usable",
	Long: `Check pings the configured inference endpoint and opens the database,
applying migrations if needed, without reading any comments.

Example:
  startupscout check
  startupscout check --provider openai`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("provider", "ollama", "LLM provider (ollama, openai, anthropic)")
	checkCmd.Flags().String("llm-url", "", "LLM endpoint base URL (provider default when empty)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	_ = viper.BindPFlag("llm.provider", cmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.base_url", cmd.Flags().Lookup("llm-url"))

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return err
	}

	failed := false

	if err := provider.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", provider.Name(), err)
		failed = true
	} else {
		fmt.Fprintf(os.Stderr, "✓ %s reachable (model %s)\n", provider.Name(), cfg.LLM.Model)
	}

	err = store.With(cfg.Store, logger, func(st *store.Store) error {
		n, err := st.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ database %s (%d startups)\n", st.Path(), n)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ database %s: %v\n", cfg.Store.Path, err)
		failed = true
	}

	if failed {
		return fmt.Errorf("check failed")
	}
	return nil
}
