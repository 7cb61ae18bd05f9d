// Package config provides configuration loading and defaults for pitchlab.
package config

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/analyzer"
)

// DefaultConfigDir is the default location for pitchlab configuration.
const DefaultConfigDir = "~/.config/pitchlab"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "pitchlab.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. PITCHLAB_DB_PATH.
const EnvPrefix = "PITCHLAB"

// DefaultUser is the scope used when no user is configured.
const DefaultUser = "local"

// DefaultAnalytics mirrors the analyzer's built-in windows and thresholds.
var DefaultAnalytics = Analytics(analyzer.DefaultOptions())

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultWatch holds the default watch settings.
var DefaultWatch = Watch{
	Debounce: 500 * time.Millisecond,
	Notify:   true,
}
