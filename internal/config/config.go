// Package config loads the application configuration from a file, the
// environment and command-line flags.
//
// Keys are nested with dots ("engine.primary.depth"). Every key can be set
// from the environment with the MACBASE_ prefix and underscores for dots
// (MACBASE_ENGINE_PRIMARY_DEPTH). Precedence, highest first: flags that were
// set, environment, config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/oracle"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MACBASE"

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the application configuration.
type Config struct {
	Engine  Engine  `mapstructure:"engine"`
	Server  Server  `mapstructure:"server"`
	Archive Archive `mapstructure:"archive"`
}

// Engine configures the analyzer engines.
type Engine struct {
	// Path is the UCI engine binary, looked up in PATH when not absolute.
	Path       string        `mapstructure:"path"`
	Primary    oracle.Config `mapstructure:"primary"`
	Background oracle.Config `mapstructure:"background"`
	Stream     oracle.Config `mapstructure:"stream"`
}

// Server configures the HTTP server.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins lists the websocket origins accepted besides the
	// server's own host. "*" accepts any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Archive configures the PGN archive.
type Archive struct {
	// Backend is one of "disk", "gcs", "s3" or "memory".
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// Codec is one of "zstd", "gzip" or "none".
	Codec string `mapstructure:"codec"`
	// CacheSize is the number of games kept in memory; 0 disables the cache.
	CacheSize int `mapstructure:"cache_size"`
	// CacheBytes bounds the PGN bytes kept in memory; 0 leaves it unbounded.
	CacheBytes int64 `mapstructure:"cache_bytes"`
	// Workers is the number of concurrent writes during an import.
	Workers int `mapstructure:"workers"`
}

// Bindings maps configuration keys to command-line flags.
type Bindings map[string]*pflag.Flag

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: Engine{
			Path:       macbase.DefaultEnginePath,
			Primary:    macbase.DefaultPrimaryConfig,
			Background: macbase.DefaultBackgroundConfig,
			Stream:     macbase.DefaultStreamConfig,
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Archive: Archive{
			Backend:    "disk",
			Path:       "./archive",
			Codec:      "zstd",
			CacheSize:  1024,
			CacheBytes: 64 << 20,
			Workers:    4,
		},
	}
}

// Load reads the configuration. When path is empty, macbase.{yaml,toml,json}
// is looked up in the working directory and in $HOME/.config/macbase; a
// missing file is not an error. A flag in bindings overrides its key only
// when it was set on the command line.
func Load(path string, bindings Bindings) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range bindings {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag.Name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("macbase")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/macbase")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so the environment can override it.
func setDefaults(v *viper.Viper, d *Config) {
	engines := map[string]oracle.Config{
		"primary":    d.Engine.Primary,
		"background": d.Engine.Background,
		"stream":     d.Engine.Stream,
	}
	v.SetDefault("engine.path", d.Engine.Path)
	for name, c := range engines {
		v.SetDefault("engine."+name+".depth", c.Depth)
		v.SetDefault("engine."+name+".threads", c.Threads)
		v.SetDefault("engine."+name+".hash_mb", c.HashMB)
		v.SetDefault("engine."+name+".multipv", c.MultiPV)
	}

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("archive.backend", d.Archive.Backend)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.bucket", d.Archive.Bucket)
	v.SetDefault("archive.prefix", d.Archive.Prefix)
	v.SetDefault("archive.region", d.Archive.Region)
	v.SetDefault("archive.endpoint", d.Archive.Endpoint)
	v.SetDefault("archive.codec", d.Archive.Codec)
	v.SetDefault("archive.cache_size", d.Archive.CacheSize)
	v.SetDefault("archive.cache_bytes", d.Archive.CacheBytes)
	v.SetDefault("archive.workers", d.Archive.Workers)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	for name, e := range map[string]oracle.Config{
		"primary":    c.Engine.Primary,
		"background": c.Engine.Background,
		"stream":     c.Engine.Stream,
	} {
		if e.Depth < 1 || e.Threads < 1 || e.HashMB < 1 || e.MultiPV < 1 {
			return fmt.Errorf("%w: engine.%s: %s", ErrInvalid, name, e)
		}
	}

	switch c.Archive.Backend {
	case "disk", "memory":
	case "gcs", "s3":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("%w: archive.bucket is required for the %s backend", ErrInvalid, c.Archive.Backend)
		}
	default:
		return fmt.Errorf("%w: archive.backend %q", ErrInvalid, c.Archive.Backend)
	}
	switch c.Archive.Codec {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("%w: archive.codec %q", ErrInvalid, c.Archive.Codec)
	}
	if c.Archive.CacheSize < 0 {
		return fmt.Errorf("%w: archive.cache_size %d", ErrInvalid, c.Archive.CacheSize)
	}
	if c.Archive.CacheBytes < 0 {
		return fmt.Errorf("%w: archive.cache_bytes %d", ErrInvalid, c.Archive.CacheBytes)
	}
	if c.Archive.Workers < 1 {
		return fmt.Errorf("%w: archive.workers %d", ErrInvalid, c.Archive.Workers)
	}
	return nil
}
