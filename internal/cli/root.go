package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/logging"
	"github.com/ppiankov/startupscout/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "startupscout",
	Short: "startupscout - extract startups mentioned in discussion threads",
	Long: `startupscout reads the comments of a discussion thread, keeps the ones
that talk about startups, asks a language model to pull out the startup
name, location, website and description, and stores the results in SQLite.

Running it again on the same thread never stores a startup twice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("startupscout %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.startupscout/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "startups.db", "SQLite database path")

	// Bind flags to viper
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".startupscout"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// STARTUPSCOUT_LLM_API_KEY maps to llm.api_key
	viper.SetEnvPrefix("STARTUPSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that env variables reach Unmarshal
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("source.kind", d.Source.Kind)
	v.SetDefault("source.base_url", d.Source.BaseURL)
	v.SetDefault("source.user_agent", d.Source.UserAgent)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("source.max_body_bytes", d.Source.MaxBodyBytes)
	v.SetDefault("source.requests_per_second", d.Source.RequestsPerSecond)
	v.SetDefault("source.burst", d.Source.Burst)
	v.SetDefault("source.respect_robots", d.Source.RespectRobots)
	v.SetDefault("source.http_proxy", d.Source.HTTPProxy)
	v.SetDefault("source.https_proxy", d.Source.HTTPSProxy)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.top_p", d.LLM.TopP)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.http_proxy", d.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", d.LLM.HTTPSProxy)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("pipeline.limit", d.Pipeline.Limit)
	v.SetDefault("pipeline.min_length", d.Pipeline.MinLength)
	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.skip_processed", d.Pipeline.SkipProcessed)
	v.SetDefault("pipeline.keywords", d.Pipeline.Keywords)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.dir", d.Cache.Dir)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("report.format", d.Report.Format)
}

// loadConfig resolves defaults, config file, env and flags into a validated Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads configuration and builds the logger shared by a command
func setup() (*model.Config, *zap.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
