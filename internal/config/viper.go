// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported inference providers.
const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
		Provider          string `mapstructure:"provider" yaml:"provider"`
		Model             string `mapstructure:"model" yaml:"model"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
		TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		Concurrency       int    `mapstructure:"concurrency" yaml:"concurrency"`
		APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Pipeline struct {
		BatchSize         int     `mapstructure:"batch_size" yaml:"batch_size"`
		TransferTolerance float64 `mapstructure:"transfer_tolerance" yaml:"transfer_tolerance"`
		DateLayout        string  `mapstructure:"date_layout" yaml:"date_layout"`
		Delimiter         string  `mapstructure:"delimiter" yaml:"delimiter"`
		Report            bool    `mapstructure:"report" yaml:"report"`
	} `mapstructure:"pipeline" yaml:"pipeline"`

	Taxonomy struct {
		KeywordsFile string `mapstructure:"keywords_file" yaml:"keywords_file"`
	} `mapstructure:"taxonomy" yaml:"taxonomy"`

	Store struct {
		Driver     string `mapstructure:"driver" yaml:"driver"`
		SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
		CSVPath    string `mapstructure:"csv_path" yaml:"csv_path"`
		BigQuery   struct {
			Project string `mapstructure:"project" yaml:"project"`
			Dataset string `mapstructure:"dataset" yaml:"dataset"`
			Table   string `mapstructure:"table" yaml:"table"`
		} `mapstructure:"bigquery" yaml:"bigquery"`
	} `mapstructure:"store" yaml:"store"`
}

// DelimiterRune returns the input delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Pipeline.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// InitializeConfig loads configuration with hierarchical precedence:
// defaults, then the config file, then environment variables. An empty
// configFile searches the standard locations.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.stmt-ingest")
		v.AddConfigPath(".stmt-ingest")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key comes from the unprefixed variable
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.concurrency", 4)
	v.SetDefault("ai.api_key", "")

	v.SetDefault("pipeline.batch_size", 10)
	v.SetDefault("pipeline.transfer_tolerance", 0.01)
	v.SetDefault("pipeline.date_layout", "2006-01-02")
	v.SetDefault("pipeline.delimiter", ",")
	v.SetDefault("pipeline.report", false)

	v.SetDefault("taxonomy.keywords_file", "")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "stmt-ingest.db")
	v.SetDefault("store.csv_path", "transactions.csv")
	v.SetDefault("store.bigquery.project", "")
	v.SetDefault("store.bigquery.dataset", "")
	v.SetDefault("store.bigquery.table", "transactions")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if utf8.RuneCountInString(config.Pipeline.Delimiter) != 1 {
		return fmt.Errorf("pipeline.delimiter must be a single character, got: %q", config.Pipeline.Delimiter)
	}

	if config.Pipeline.BatchSize < 1 {
		return fmt.Errorf("pipeline.batch_size must be positive, got: %d", config.Pipeline.BatchSize)
	}

	if config.Pipeline.TransferTolerance <= 0 || config.Pipeline.TransferTolerance >= 1 {
		return fmt.Errorf("pipeline.transfer_tolerance must be between 0 and 1, got: %f", config.Pipeline.TransferTolerance)
	}

	if config.AI.Enabled {
		if config.AI.Provider != ProviderGemini && config.AI.Provider != ProviderGenAI {
			return fmt.Errorf("ai.provider must be '%s' or '%s', got: %s", ProviderGemini, ProviderGenAI, config.AI.Provider)
		}

		// genai falls back to the SDK's own environment credentials.
		if config.AI.Provider == ProviderGemini && config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required for the %s provider", ProviderGemini)
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}

		if config.AI.Concurrency < 1 {
			return fmt.Errorf("ai.concurrency must be positive, got: %d", config.AI.Concurrency)
		}
	}

	switch config.Store.Driver {
	case "sqlite", "csv", "memory":
	case "bigquery":
		bq := config.Store.BigQuery
		if bq.Project == "" || bq.Dataset == "" || bq.Table == "" {
			return fmt.Errorf("store.bigquery.project, dataset and table are required for the bigquery driver")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'sqlite', 'csv', 'bigquery' or 'memory')", config.Store.Driver)
	}

	return nil
}
