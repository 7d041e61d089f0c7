// Package config loads the daemon configuration from TOML files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lmasson/cadence/internal/metarules"
)

type Config struct {
	// Last.fm credentials (required for scrobbling)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Player selection
	Player PlayerConfig `koanf:"player"`

	Scrobbling    ScrobblingConfig    `koanf:"scrobbling"`
	Notifications NotificationsConfig `koanf:"notifications"`

	// Extra metadata rules, appended to the built-in defaults
	Rules RulesConfig `koanf:"rules"`
}

// LastfmConfig holds Last.fm API credentials.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	Username  string `koanf:"username"` // overrides the authorized account for recent-plays lookups
}

// PlayerConfig selects the player to observe.
type PlayerConfig struct {
	BusName string `koanf:"bus_name"` // e.g. "org.mpris.MediaPlayer2.spotify"; empty = any
}

// ScrobblingConfig holds scrobbling behavior settings.
type ScrobblingConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// RulesConfig holds user-defined metadata rules.
type RulesConfig struct {
	Replace []ReplaceRule `koanf:"replace"`
	Filter  []FilterRule  `koanf:"filter"`
}

// ReplaceRule is a [[rules.replace]] entry.
type ReplaceRule struct {
	Pattern     string   `koanf:"pattern"`
	Replacement string   `koanf:"replacement"`
	Fields      []string `koanf:"fields"` // subset of title/artist/album; default title+artist
}

// FilterRule is a [[rules.filter]] entry.
type FilterRule struct {
	Pattern string `koanf:"pattern"`
	Match   string `koanf:"match"` // regex (default), exact, contains
	Logic   string `koanf:"logic"` // exclude (default), include, includeAny, excludeAny, all, none
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Player.BusName = strings.TrimSpace(cfg.Player.BusName)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{
		// 1. $XDG_CONFIG_HOME/cadence/config.toml
		filepath.Join(xdg.ConfigHome, "cadence", "config.toml"),
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasLastfmConfig returns true if Last.fm credentials are configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// ScrobblingEnabled reports the enabled flag, defaulting to true.
func (c *Config) ScrobblingEnabled() bool {
	return c.Scrobbling.Enabled == nil || *c.Scrobbling.Enabled
}

// NotificationsEnabled reports the notifications flag, defaulting to true.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// ExtraReplacementRules converts the configured [[rules.replace]] entries.
func (c *Config) ExtraReplacementRules() []metarules.ReplacementRule {
	rules := make([]metarules.ReplacementRule, 0, len(c.Rules.Replace))
	for _, r := range c.Rules.Replace {
		rule := metarules.NewReplacementRule(r.Pattern, r.Replacement)
		if len(r.Fields) > 0 {
			fields := make([]string, 0, len(r.Fields))
			for _, f := range r.Fields {
				fields = append(fields, strings.ToLower(f))
			}
			rule.TargetFields = fields
		}
		rules = append(rules, rule)
	}
	return rules
}

// ExtraFilterRules converts the configured [[rules.filter]] entries.
func (c *Config) ExtraFilterRules() []metarules.FilterRule {
	rules := make([]metarules.FilterRule, 0, len(c.Rules.Filter))
	for _, r := range c.Rules.Filter {
		rule := metarules.NewFilterRule(r.Pattern)
		if r.Match != "" {
			rule.MatchType = metarules.MatchType(r.Match)
		}
		if r.Logic != "" {
			rule.Logic = metarules.FilterLogic(r.Logic)
		}
		rules = append(rules, rule)
	}
	return rules
}
