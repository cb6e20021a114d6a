// Package config resolves planner settings from defaults, an optional config file,
// PLANNER_* environment variables and command-line flags (in increasing precedence).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"site-planner/internal/journal"
	"site-planner/internal/store"
	"site-planner/internal/timeline"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "PLANNER"
	DefaultDir = "~/.planner"
	configName = "config"
)

const (
	JournalNone   = "none"
	JournalJSONL  = "jsonl"
	JournalSQLite = "sqlite"
)

type Config struct {
	Dir      string           `mapstructure:"dir" json:"dir"`
	Backend  string           `mapstructure:"backend" json:"backend"`
	Zoom     string           `mapstructure:"zoom" json:"zoom"`
	Padding  timeline.Padding `mapstructure:"padding" json:"padding"`
	FeedCap  int              `mapstructure:"feed_cap" json:"feedCap"`
	Autosave time.Duration    `mapstructure:"autosave" json:"autosave"`
	Journal  string           `mapstructure:"journal" json:"journal"`
	LogLevel string           `mapstructure:"log_level" json:"logLevel"`
	LogFile  string           `mapstructure:"log_file" json:"logFile,omitempty"`
	Format   string           `mapstructure:"format" json:"format"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"dir":       "dir",
	"backend":   "backend",
	"zoom":      "zoom",
	"format":    "format",
	"log-level": "log_level",
	"log-file":  "log_file",
	"journal":   "journal",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", DefaultDir)
	v.SetDefault("backend", store.BackendJSON)
	v.SetDefault("zoom", string(timeline.ZoomWeek))
	v.SetDefault("padding.left", timeline.DefaultPadding.Left)
	v.SetDefault("padding.right", timeline.DefaultPadding.Right)
	v.SetDefault("feed_cap", journal.DefaultFeedCap)
	v.SetDefault("autosave", "2s")
	v.SetDefault("journal", JournalJSONL)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("format", "json")
}

// Load reads configuration. file may name an explicit config file; otherwise config.yaml
// (or .json/.toml) is looked up in the planner dir and the working directory. Flags that
// were set on the command line win over everything else.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		if dir, err := homedir.Expand(v.GetString("dir")); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	dir, err := homedir.Expand(strings.TrimSpace(cfg.Dir))
	if err != nil {
		return Config{}, err
	}
	cfg.Dir = dir
	if cfg.LogFile != "" {
		if cfg.LogFile, err = homedir.Expand(cfg.LogFile); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("config: dir is empty")
	}
	if !contains(store.Backends, strings.ToLower(c.Backend)) {
		return fmt.Errorf("config: unknown backend %q (want %s)", c.Backend, strings.Join(store.Backends, "|"))
	}
	if _, err := timeline.ParseZoom(c.Zoom); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Padding.Left < 0 || c.Padding.Right < 0 {
		return errors.New("config: padding must not be negative")
	}
	if c.FeedCap <= 0 {
		return fmt.Errorf("config: feed_cap must be positive (got %d)", c.FeedCap)
	}
	if !contains([]string{JournalNone, JournalJSONL, JournalSQLite}, strings.ToLower(c.Journal)) {
		return fmt.Errorf("config: unknown journal %q (want none|jsonl|sqlite)", c.Journal)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ZoomLevel returns the validated zoom.
func (c Config) ZoomLevel() timeline.Zoom {
	z, err := timeline.ParseZoom(c.Zoom)
	if err != nil {
		return timeline.ZoomWeek
	}
	return z
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
