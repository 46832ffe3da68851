package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the cache/log database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the address resolver and its providers.
type GeocodeConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	UseGoogle       bool    `yaml:"use_google" mapstructure:"use_google"`
	GoogleAPIKey    string  `yaml:"google_api_key" mapstructure:"google_api_key"`
	MinIntervalSecs float64 `yaml:"min_interval_secs" mapstructure:"min_interval_secs"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CountrySuffix   string  `yaml:"country_suffix" mapstructure:"country_suffix"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// AnalyticsConfig holds the analytics thresholds. These are business
// heuristics with no derivation; defaults match the historical behavior.
type AnalyticsConfig struct {
	TopCustomersPerCategory int     `yaml:"top_customers_per_category" mapstructure:"top_customers_per_category"`
	LongTenureDays          int     `yaml:"long_tenure_days" mapstructure:"long_tenure_days"`
	RetentionSharePct       float64 `yaml:"retention_share_pct" mapstructure:"retention_share_pct"`
}

// FetchConfig configures remote workbook downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the upload/download server.
type ServerConfig struct {
	Port          int    `yaml:"port" mapstructure:"port"`
	UploadDir     string `yaml:"upload_dir" mapstructure:"upload_dir"`
	MaxUploadMB   int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	AllowedOrigin string `yaml:"allowed_origin" mapstructure:"allowed_origin"`
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
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "insight.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("geocode.enabled", false)
	v.SetDefault("geocode.use_google", false)
	v.SetDefault("geocode.min_interval_secs", 1.1)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.country_suffix", "Australia")
	v.SetDefault("geocode.user_agent", "insight-cli/1.0")
	v.SetDefault("analytics.top_customers_per_category", 5)
	v.SetDefault("analytics.long_tenure_days", 365)
	v.SetDefault("analytics.retention_share_pct", 20)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.user_agent", "insight-cli/1.0")

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
