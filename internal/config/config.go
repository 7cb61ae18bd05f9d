package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pitchlab/pitchlab/internal/analyzer"
)

// Config is the top-level pitchlab configuration.
type Config struct {
	DBPath    string    `mapstructure:"db_path"`
	User      string    `mapstructure:"user"`
	Analytics Analytics `mapstructure:"analytics"`
	Output    Output    `mapstructure:"output"`
	Watch     Watch     `mapstructure:"watch"`
}

// Analytics overrides the dashboard windows and thresholds.
type Analytics struct {
	SummaryWindow          int     `mapstructure:"summary_window"`
	TrendWindow            int     `mapstructure:"trend_window"`
	MinTrendPoints         int     `mapstructure:"min_trend_points"`
	ErrorWindow            int     `mapstructure:"error_window"`
	TopErrors              int     `mapstructure:"top_errors"`
	FrequentErrorPercent   float64 `mapstructure:"frequent_error_percent"`
	SeriesWindow           int     `mapstructure:"series_window"`
	ObjectionsWarningBelow int     `mapstructure:"objections_warning_below"`
	PlateauScore           int     `mapstructure:"plateau_score"`
	ExcellenceScore        int     `mapstructure:"excellence_score"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch configures the watch command.
type Watch struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Notify   bool          `mapstructure:"notify"`
}

// AnalyzerOptions converts the analytics section into analyzer options.
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options(c.Analytics)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("user", DefaultUser)

	v.SetDefault("analytics.summary_window", DefaultAnalytics.SummaryWindow)
	v.SetDefault("analytics.trend_window", DefaultAnalytics.TrendWindow)
	v.SetDefault("analytics.min_trend_points", DefaultAnalytics.MinTrendPoints)
	v.SetDefault("analytics.error_window", DefaultAnalytics.ErrorWindow)
	v.SetDefault("analytics.top_errors", DefaultAnalytics.TopErrors)
	v.SetDefault("analytics.frequent_error_percent", DefaultAnalytics.FrequentErrorPercent)
	v.SetDefault("analytics.series_window", DefaultAnalytics.SeriesWindow)
	v.SetDefault("analytics.objections_warning_below", DefaultAnalytics.ObjectionsWarningBelow)
	v.SetDefault("analytics.plateau_score", DefaultAnalytics.PlateauScore)
	v.SetDefault("analytics.excellence_score", DefaultAnalytics.ExcellenceScore)

	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("watch.debounce", DefaultWatch.Debounce)
	v.SetDefault("watch.notify", DefaultWatch.Notify)
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A .env file in the working
// directory is loaded first, then PITCHLAB_* environment variables override
// file values.
func Load(cfgFile string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	if strings.TrimSpace(cfg.User) == "" {
		cfg.User = DefaultUser
	}

	return &cfg, nil
}

// DBPath returns the default path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
