// stocklyzer - terminal stock analysis.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/internal/datasource"
	"github.com/stocklyzer/stocklyzer/internal/render"
	"github.com/stocklyzer/stocklyzer/internal/service"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stocklyzer",
	Short: "stocklyzer - stock analysis in your terminal",
	Long: `stocklyzer fetches market data for a ticker and renders a full
analysis report: price action, 52-week range position, multi-year price
growth, financial statement history with period-over-period growth, and a
WACC estimate.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if timeout, _ := cmd.Flags().GetInt("timeout"); timeout > 0 {
			cfg.Provider.TimeoutSec = timeout
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("timeout", 0, "provider request timeout in seconds (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tickerCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocklyzer %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Ticker Command ---

var tickerCmd = &cobra.Command{
	Use:   "ticker [symbol]",
	Short: "Analyze a stock and render the full report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := initializeLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		source := datasource.NewYahoo(cfg.Provider, cfg.Valuation.TreasurySymbol, logger)
		svc := service.New(cfg, source, logger)

		info, err := svc.AnalyzeStock(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		noColor, _ := cmd.Flags().GetBool("no-color")
		render.New(cmd.OutOrStdout(), !noColor).Render(info)
		return nil
	},
}

func init() {
	tickerCmd.Flags().Bool("no-color", false, "disable colored output")
}

// initializeLogger builds the zap logger from the logging configuration.
func initializeLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch lc.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", lc.Level)
	}

	var zc zap.Config
	switch lc.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", lc.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
