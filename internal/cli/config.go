package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/cache"
	"github.com/matzehuels/gvbind/pkg/gv"
	"github.com/matzehuels/gvbind/pkg/pipeline"
	"github.com/matzehuels/gvbind/pkg/store"
)

// Cache backends accepted in [cache] backend.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the optional config file. Flags override every value.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

type LayoutConfig struct {
	Engine string `toml:"engine,omitempty"`
	Preset string `toml:"preset,omitempty"`
}

type RenderConfig struct {
	Formats     []string `toml:"formats"`
	DPI         float64  `toml:"dpi,omitempty"`
	Background  string   `toml:"background,omitempty"`
	Transparent bool     `toml:"transparent"`
	AntiAlias   bool     `toml:"anti_alias"`
	// EmbeddedFonts renders text with the bundled Go fonts instead of
	// fonts installed on the host.
	EmbeddedFonts bool `toml:"embedded_fonts"`
}

type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir,omitempty"`
	RedisAddr     string   `toml:"redis_addr,omitempty"`
	RedisPassword string   `toml:"redis_password,omitempty"`
	RedisDB       int      `toml:"redis_db,omitempty"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
}

type ServerConfig struct {
	Addr          string   `toml:"addr"`
	MongoURI      string   `toml:"mongo_uri,omitempty"`
	MongoDatabase string   `toml:"mongo_database"`
	ArtifactTTL   Duration `toml:"artifact_ttl"`
}

// Duration is a time.Duration written as a Go duration string ("36h").
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Formats:   []string{pipeline.DefaultFormat.String()},
			AntiAlias: true,
		},
		Cache: CacheConfig{
			Backend: backendFile,
			Prefix:  appName + ":",
			TTL:     Duration(cache.TTLArtifact),
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MongoDatabase: appName,
			ArtifactTTL:   Duration(store.DefaultTTL),
		},
	}
}

// loadConfig reads path on top of the defaults. A missing file is not an
// error; unknown keys are.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if extra := md.Undecoded(); len(extra) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, extra[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return fmt.Errorf("cache backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == backendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis needs redis_addr")
	}
	if c.Layout.Engine != "" {
		if _, err := gv.ParseEngine(c.Layout.Engine); err != nil {
			return err
		}
	}
	if c.Layout.Preset != "" {
		if _, err := gv.Preset(c.Layout.Preset); err != nil {
			return err
		}
	}
	for _, f := range c.Render.Formats {
		if _, err := gv.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// configPath returns the config file location using the XDG standard
// (~/.config/gvbind/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.configFile)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Config.write(cmd.OutOrStdout())
		},
	})

	return cmd
}
