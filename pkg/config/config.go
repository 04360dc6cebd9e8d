// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type PrometheusConfig struct {
	Port     int    `mapstructure:"port"`
	Textfile string `mapstructure:"textfile"`
}

// Config is the full drivecheck configuration. Flags and environment
// variables are applied on top of it by the command layer.
type Config struct {
	Disks      []string         `mapstructure:"disks"`
	Discovery  string           `mapstructure:"discovery"` // glob or scan
	Smartctl   string           `mapstructure:"smartctl"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Output     string           `mapstructure:"output"` // table or json
	NoColor    bool             `mapstructure:"no_color"`
	SysfsRoot  string           `mapstructure:"sysfs_root"`
	Lang       string           `mapstructure:"lang"`
	NodeName   string           `mapstructure:"node_name"`
	InstanceID string           `mapstructure:"instance_id"`
	Interval   int              `mapstructure:"interval"` // seconds, serve only
	NATS       NATSConfig       `mapstructure:"nats"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

const (
	DiscoveryGlob = "glob"
	DiscoveryScan = "scan"
)

func Default() Config {
	return Config{
		Discovery: DiscoveryGlob,
		Smartctl:  "smartctl",
		Timeout:   30 * time.Second,
		Output:    "table",
		SysfsRoot: "/",
		Interval:  60,
		NATS: NATSConfig{
			Subject: "drive.health",
		},
		Prometheus: PrometheusConfig{
			Port: 8080,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("disks", d.Disks)
	v.SetDefault("discovery", d.Discovery)
	v.SetDefault("smartctl", d.Smartctl)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("output", d.Output)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("sysfs_root", d.SysfsRoot)
	v.SetDefault("lang", d.Lang)
	v.SetDefault("node_name", d.NodeName)
	v.SetDefault("instance_id", d.InstanceID)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.subject", d.NATS.Subject)
	v.SetDefault("prometheus.port", d.Prometheus.Port)
	v.SetDefault("prometheus.textfile", d.Prometheus.Textfile)
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	switch c.Discovery {
	case DiscoveryGlob, DiscoveryScan:
	default:
		return fmt.Errorf("invalid discovery %q (want %s or %s)", c.Discovery, DiscoveryGlob, DiscoveryScan)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", c.Interval)
	}
	if c.Prometheus.Port < 0 || c.Prometheus.Port > 65535 {
		return fmt.Errorf("invalid prometheus port %d", c.Prometheus.Port)
	}
	return nil
}

// Loader reads a config file. An empty path yields the defaults.
type Loader struct {
	v    *viper.Viper
	path string
}

func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	}
	return &Loader{v: v, path: path}
}

func (l *Loader) Load() (Config, error) {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return cfg, nil
}

// Watch calls onChange with the re-read config whenever the file changes.
// Without a file it does nothing.
func (l *Loader) Watch(onChange func(Config, error)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Str("op", e.Op.String()).Msg("config_changed")
		onChange(l.decode())
	})
	l.v.WatchConfig()
}
