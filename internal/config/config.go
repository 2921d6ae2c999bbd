// Package config loads chip8cfg settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"chip8cfg/internal/chip8"
	"chip8cfg/internal/output"
	"chip8cfg/internal/render"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "chip8cfg.toml"

// EnvPrefix prefixes environment overrides, e.g. CHIP8CFG_THEME=mono.
const EnvPrefix = "CHIP8CFG"

// Config holds analysis and output settings.
type Config struct {
	// LoadBase is the address the program is loaded at.
	LoadBase int `mapstructure:"load_base" toml:"load_base"`
	// Entry is the procedure entry as a byte offset from LoadBase.
	Entry int `mapstructure:"entry" toml:"entry"`

	Format  string `mapstructure:"format" toml:"format"`   // block report: text, json, yaml, msgpack
	RankDir string `mapstructure:"rankdir" toml:"rankdir"` // DOT layout direction
	Theme   string `mapstructure:"theme" toml:"theme"`     // plain, nasa, mono
	Labels  bool   `mapstructure:"labels" toml:"labels"`   // disassembly in DOT nodes
	OutDir  string `mapstructure:"out_dir" toml:"out_dir"`

	LogLevel string `mapstructure:"log_level" toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LoadBase: chip8.DefaultLoadBase,
		Entry:    0,
		Format:   string(output.FormatText),
		RankDir:  "LR",
		Theme:    "plain",
		Labels:   false,
		OutDir:   "out",
		LogLevel: "info",
	}
}

// keys lists every setting; flags are bound by replacing '_' with '-'.
var keys = []string{"load_base", "entry", "format", "rankdir", "theme", "labels", "out_dir", "log_level"}

// Load resolves the configuration. Precedence: flags, environment, config
// file, defaults. An empty path looks for DefaultFile in the working
// directory and silently falls back to defaults when it does not exist.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind %s: %w", key, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", DefaultFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("load_base", d.LoadBase)
	v.SetDefault("entry", d.Entry)
	v.SetDefault("format", d.Format)
	v.SetDefault("rankdir", d.RankDir)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("labels", d.Labels)
	v.SetDefault("out_dir", d.OutDir)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate checks settings that would otherwise fail deep in the analysis.
func (c *Config) Validate() error {
	var errs []error
	if c.LoadBase < 0 || c.LoadBase > 0xFFF {
		errs = append(errs, fmt.Errorf("load_base 0x%x outside the 12-bit address space", c.LoadBase))
	}
	if c.Entry < 0 || c.Entry%chip8.InstSize != 0 {
		errs = append(errs, fmt.Errorf("entry %d must be a non-negative even offset", c.Entry))
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToUpper(c.RankDir) {
	case "LR", "RL", "TB", "BT":
	default:
		errs = append(errs, fmt.Errorf("rankdir %q must be one of LR, RL, TB, BT", c.RankDir))
	}
	if _, err := render.ThemeByName(c.Theme); err != nil {
		errs = append(errs, err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ReportFormat returns the parsed block report format.
func (c *Config) ReportFormat() output.Format {
	f, err := output.ParseFormat(c.Format)
	if err != nil {
		return output.FormatText
	}
	return f
}

// EntryAddress returns the procedure entry as a chip8 address.
func (c *Config) EntryAddress() chip8.Address { return chip8.Address(c.Entry) }

// MarshalTOML encodes c as a TOML document.
func (c *Config) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: encode toml: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Default().MarshalTOML()
	if err != nil {
		return err
	}
	header := "# chip8cfg configuration\n# entry is a byte offset from load_base; load_base is usually 512 (0x200).\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ParseTOML decodes a TOML document over the defaults without viper.
// Missing keys keep their default values.
func ParseTOML(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
