package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/logging"
	"github.com/ppiankov/startupscout/internal/pipeline"
	"github.com/ppiankov/startupscout/internal/store"
)

var watchInterval time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <thread-url|post-id>",
	Short: "Re-scrape one thread on an interval",
	Long: `Watch runs scrape against the same thread every --interval until
interrupted. New comments are picked up on each run; comments stored by an
earlier run are skipped. A run that is still going when the next one is due
delays it rather than overlapping.

Example:
  startupscout watch https://www.reddit.com/r/startups/comments/1lxc97s/ --interval 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addPipelineFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "time between runs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ref := args[0]
	if watchInterval < time.Minute {
		return fmt.Errorf("interval must be at least 1m, got %v", watchInterval)
	}

	bindPipelineFlags(cmd, viper.GetViper())
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return store.With(cfg.Store, logger, func(st *store.Store) error {
		p, err := newPipeline(cfg, st, logger)
		if err != nil {
			return err
		}
		runs, total, err := watch(ctx, p, ref, cfg.Pipeline.Limit, watchInterval, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ %d runs, %s\n", runs, &total)
		return nil
	})
}

// watchTotals accumulates run results across scheduler goroutines
type watchTotals struct {
	mu    sync.Mutex
	runs  int
	stats pipeline.Stats
}

func (w *watchTotals) begin() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs++
	return w.runs
}

func (w *watchTotals) add(stats *pipeline.Stats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Merge(stats)
}

func (w *watchTotals) snapshot() (int, pipeline.Stats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs, w.stats
}

// watch runs p every interval, starting immediately, until ctx is done. It
// returns the number of runs started and the merged stats.
func watch(ctx context.Context, p *pipeline.Pipeline, ref string, limit int, interval time.Duration, logger *zap.Logger) (int, pipeline.Stats, error) {
	log := logging.Component(logger, "watch")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logging.NewGocronLogger(logger)),
	)
	if err != nil {
		return 0, pipeline.Stats{}, fmt.Errorf("failed to create scheduler: %w", err)
	}

	totals := &watchTotals{}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			run := totals.begin()

			stats, err := p.Run(ctx, ref, limit)
			if err != nil {
				log.Error("run failed", zap.Int("run", run), zap.Error(err))
				return
			}

			totals.add(stats)
			log.Info("run finished", append(stats.Fields(), zap.Int("run", run))...)
		}),
		gocron.WithName("scrape "+ref),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return 0, pipeline.Stats{}, fmt.Errorf("failed to schedule job: %w", err)
	}

	log.Info("watching thread", zap.String("ref", ref), zap.Duration("interval", interval))
	s.Start()

	<-ctx.Done()

	if err := s.Shutdown(); err != nil {
		return 0, pipeline.Stats{}, fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	runs, stats := totals.snapshot()
	return runs, stats, nil
}
