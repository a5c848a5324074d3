// Package config handles configuration loading for stocklyzer.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"  yaml:"provider"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Valuation ValuationConfig `mapstructure:"valuation" yaml:"valuation"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	QuoteCacheSec     int    `mapstructure:"quote_cache_sec"     yaml:"quote_cache_sec"`
	StatementCacheSec int    `mapstructure:"statement_cache_sec" yaml:"statement_cache_sec"`
	RateLimit         int    `mapstructure:"rate_limit"          yaml:"rate_limit"` // requests per second
}

// AnalysisConfig holds statement aggregation and growth settings.
type AnalysisConfig struct {
	MaxPeriods           int     `mapstructure:"max_periods"             yaml:"max_periods"`
	AnnualRevenueCapX    float64 `mapstructure:"annual_revenue_cap_x"    yaml:"annual_revenue_cap_x"`
	QuarterlyRevenueCapX float64 `mapstructure:"quarterly_revenue_cap_x" yaml:"quarterly_revenue_cap_x"`
	AssetsCapX           float64 `mapstructure:"assets_cap_x"            yaml:"assets_cap_x"`
	MaxQualityWarnings   int     `mapstructure:"max_quality_warnings"    yaml:"max_quality_warnings"`
}

// ValuationConfig holds DCF/WACC estimation settings.
type ValuationConfig struct {
	RequiredReturn      float64 `mapstructure:"required_return"       yaml:"required_return"`
	PerpetualGrowthRate float64 `mapstructure:"perpetual_growth_rate" yaml:"perpetual_growth_rate"`
	DefaultBeta         float64 `mapstructure:"default_beta"          yaml:"default_beta"`
	TreasurySymbol      string  `mapstructure:"treasury_symbol"       yaml:"treasury_symbol"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stocklyzer/config.yaml (home directory)
//  3. /etc/stocklyzer/config.yaml (system)
//
// Environment variables override config file values.
// Format: STOCKLYZER_<SECTION>_<KEY>, e.g., STOCKLYZER_LOGGING_LEVEL
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stocklyzer"))
	v.AddConfigPath("/etc/stocklyzer")

	v.SetEnvPrefix("STOCKLYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("STOCKLYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.timeout_sec", 15)
	v.SetDefault("provider.quote_cache_sec", 60)
	v.SetDefault("provider.statement_cache_sec", 3600)
	v.SetDefault("provider.rate_limit", 5)

	// Analysis defaults
	v.SetDefault("analysis.max_periods", 4)
	v.SetDefault("analysis.annual_revenue_cap_x", 100.0)
	v.SetDefault("analysis.quarterly_revenue_cap_x", 50.0)
	v.SetDefault("analysis.assets_cap_x", 500.0)
	v.SetDefault("analysis.max_quality_warnings", 3)

	// Valuation defaults
	v.SetDefault("valuation.required_return", 0.10)
	v.SetDefault("valuation.perpetual_growth_rate", 0.025)
	v.SetDefault("valuation.default_beta", 1.0)
	v.SetDefault("valuation.treasury_symbol", "^TNX")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
