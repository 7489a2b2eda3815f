package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/startupscout/internal/report"
	"github.com/ppiankov/startupscout/internal/store"
)

var reportQuery string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List the startups stored so far",
	Long: `Report prints every stored startup ordered by name, or the result of
an arbitrary read-only query against the startups table.

Example:
  startupscout report
  startupscout report --format json
  startupscout report --query "SELECT location, COUNT(*) FROM startups GROUP BY location"`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("format", "text", "output format (text, json, yaml)")
	reportCmd.Flags().StringVar(&reportQuery, "query", "", "SELECT statement to run instead of the default listing")

	_ = viper.BindPFlag("report.format", reportCmd.Flags().Lookup("format"))
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	return store.With(cfg.Store, logger, func(st *store.Store) error {
		if reportQuery != "" {
			result, err := st.Query(ctx, reportQuery)
			if err != nil {
				return err
			}
			return report.RenderQuery(os.Stdout, result, cfg.Report.Format)
		}

		rows, err := st.ListStartups(ctx)
		if err != nil {
			return err
		}
		return report.Render(os.Stdout, rows, cfg.Report.Format)
	})
}
