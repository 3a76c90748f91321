// Package config loads FocusFlow settings from defaults, focusflow.yml files
// and FOCUSFLOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/23CSBS271/focus-flow/views"
)

// Auth modes accepted by the API server.
const (
	AuthNone  = "none"
	AuthHS256 = "hs256"
	AuthJWKS  = "jwks"
)

// Config holds every setting shared by the CLI and the API server.
type Config struct {
	APIBaseURL  string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	UserID      string        `mapstructure:"user_id" yaml:"user_id"`
	BearerToken string        `mapstructure:"bearer_token" yaml:"bearer_token,omitempty"`
	RedisURL    string        `mapstructure:"redis_url" yaml:"redis_url,omitempty"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	StrictOrdering    bool   `mapstructure:"strict_ordering" yaml:"strict_ordering"`
	DailyWeekStart    string `mapstructure:"daily_week_start" yaml:"daily_week_start"`
	WeeklyWeekStart   string `mapstructure:"weekly_week_start" yaml:"weekly_week_start"`
	CalendarWeekStart string `mapstructure:"calendar_week_start" yaml:"calendar_week_start"`
	HideCompletedPast bool   `mapstructure:"hide_completed_past" yaml:"hide_completed_past"`

	ListenAddr              string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	StorageConnectionString string        `mapstructure:"storage_connection_string" yaml:"storage_connection_string,omitempty"`
	TasksTable              string        `mapstructure:"tasks_table" yaml:"tasks_table"`
	ProfilesTable           string        `mapstructure:"profiles_table" yaml:"profiles_table"`
	EventsQueue             string        `mapstructure:"events_queue" yaml:"events_queue"`
	AuthMode                string        `mapstructure:"auth_mode" yaml:"auth_mode"`
	AuthSecret              string        `mapstructure:"auth_secret" yaml:"auth_secret,omitempty"`
	AuthDomain              string        `mapstructure:"auth_domain" yaml:"auth_domain,omitempty"`
	AuthAudience            string        `mapstructure:"auth_audience" yaml:"auth_audience,omitempty"`
	DedupeTTL               time.Duration `mapstructure:"dedupe_ttl" yaml:"dedupe_ttl"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

var defaults = map[string]any{
	"api_base_url":              "http://localhost:8080",
	"user_id":                   "",
	"bearer_token":              "",
	"redis_url":                 "",
	"cache_ttl":                 "30s",
	"strict_ordering":           false,
	"daily_week_start":          "sunday",
	"weekly_week_start":         "monday",
	"calendar_week_start":       "sunday",
	"hide_completed_past":       false,
	"listen_addr":               ":8080",
	"storage_connection_string": "",
	"tasks_table":               "Tasks",
	"profiles_table":            "Profiles",
	"events_queue":              "task-events",
	"auth_mode":                 AuthNone,
	"auth_secret":               "",
	"auth_domain":               "",
	"auth_audience":             "",
	"dedupe_ttl":                "24h",
	"debug":                     false,
}

// Load resolves configuration with precedence
// ENV vars > project config > global config > defaults.
// A non-empty path replaces both config files.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("FOCUSFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Explicit bindings so Unmarshal sees keys that only come from the env.
	for k := range defaults {
		if err := v.BindEnv(k, "FOCUSFLOW_"+strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		if globalPath := GlobalPath(); fileExists(globalPath) {
			v.SetConfigFile(globalPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading global config: %w", err)
			}
		}
		if projectPath := ProjectPath(); fileExists(projectPath) {
			v.SetConfigFile(projectPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AuthMode) {
	case AuthNone, AuthHS256, AuthJWKS:
	default:
		return fmt.Errorf("auth_mode must be one of none, hs256, jwks; got %q", c.AuthMode)
	}
	for key, val := range map[string]string{
		"daily_week_start":    c.DailyWeekStart,
		"weekly_week_start":   c.WeeklyWeekStart,
		"calendar_week_start": c.CalendarWeekStart,
	} {
		if _, err := ParseWeekday(val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.CacheTTL < 0 || c.DedupeTTL < 0 {
		return fmt.Errorf("ttl values must not be negative")
	}
	return nil
}

// Projector builds view options from the week start settings.
func (c *Config) Projector() (views.Projector, error) {
	p := views.DefaultProjector()
	daily, err := ParseWeekday(c.DailyWeekStart)
	if err != nil {
		return p, fmt.Errorf("daily_week_start: %w", err)
	}
	weekly, err := ParseWeekday(c.WeeklyWeekStart)
	if err != nil {
		return p, fmt.Errorf("weekly_week_start: %w", err)
	}
	calendar, err := ParseWeekday(c.CalendarWeekStart)
	if err != nil {
		return p, fmt.Errorf("calendar_week_start: %w", err)
	}
	p.Daily.WeekStart = daily
	p.Daily.HideCompletedPast = c.HideCompletedPast
	p.Weekly.WeekStart = weekly
	p.Calendar.WeekStart = calendar
	return p, nil
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// GlobalPath returns $XDG_CONFIG_HOME/focusflow/focusflow.yml or
// ~/.config/focusflow/focusflow.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focusflow", "focusflow.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "focusflow", "focusflow.yml")
}

// ProjectPath returns the config path in the working directory.
func ProjectPath() string {
	return "focusflow.yml"
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
