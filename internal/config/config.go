// Package config loads application configuration from file and
// environment and owns global logger setup.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/propscan/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Trustpilot TrustpilotConfig `yaml:"trustpilot" mapstructure:"trustpilot"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig configures fetching and retry behavior.
type ScrapeConfig struct {
	SourcesPath             string `yaml:"sources_path" mapstructure:"sources_path"`
	Workers                 int    `yaml:"workers" mapstructure:"workers"`
	MaxRetries              int    `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs             int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PerHostRate             int    `yaml:"per_host_rate" mapstructure:"per_host_rate"`
	BackoffMinSecs          int    `yaml:"backoff_min_secs" mapstructure:"backoff_min_secs"`
	BackoffMaxSecs          int    `yaml:"backoff_max_secs" mapstructure:"backoff_max_secs"`
	RateLimitBackoffMinSecs int    `yaml:"rate_limit_backoff_min_secs" mapstructure:"rate_limit_backoff_min_secs"`
	RateLimitBackoffMaxSecs int    `yaml:"rate_limit_backoff_max_secs" mapstructure:"rate_limit_backoff_max_secs"`
}

// BrowserConfig configures headless rendering.
type BrowserConfig struct {
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SettleWaitSecs int `yaml:"settle_wait_secs" mapstructure:"settle_wait_secs"`
}

// TrustpilotConfig configures review score lookups.
type TrustpilotConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OutputConfig configures export targets.
type OutputConfig struct {
	CSVPath  string `yaml:"csv_path" mapstructure:"csv_path"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// StoreConfig configures score persistence.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROPSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.sources_path", "sources.yaml")
	v.SetDefault("scrape.workers", 4)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.per_host_rate", 2)
	v.SetDefault("scrape.backoff_min_secs", 2)
	v.SetDefault("scrape.backoff_max_secs", 5)
	v.SetDefault("scrape.rate_limit_backoff_min_secs", 10)
	v.SetDefault("scrape.rate_limit_backoff_max_secs", 20)
	v.SetDefault("browser.timeout_secs", 60)
	v.SetDefault("browser.settle_wait_secs", 3)
	v.SetDefault("trustpilot.enabled", true)
	v.SetDefault("trustpilot.base_url", "https://www.trustpilot.com")
	v.SetDefault("output.csv_path", "plans.csv")
	v.SetDefault("output.xlsx_path", "plans.xlsx")
	v.SetDefault("store.path", "propscan.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LoadSources reads the source catalog from a YAML file. An empty catalog
// is an error so a bad path fails loudly instead of producing empty output.
func LoadSources(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read sources %s", path)
	}

	var catalog struct {
		Sources []model.Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, eris.Wrapf(err, "config: parse sources %s", path)
	}
	if len(catalog.Sources) == 0 {
		return nil, eris.Errorf("config: no sources defined in %s", path)
	}

	for i, src := range catalog.Sources {
		if src.Name == "" || src.URL == "" {
			return nil, eris.Errorf("config: source %d missing name or url", i)
		}
	}
	return catalog.Sources, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
