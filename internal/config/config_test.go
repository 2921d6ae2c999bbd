package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip8cfg/internal/output"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, output.FormatText, cfg.ReportFormat())
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("rankdir = \"TB\"\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "TB", cfg.RankDir)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "c.toml", `
load_base = 0x300
entry = 4
theme = "mono"
labels = true
format = "yaml"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0x300, cfg.LoadBase)
	assert.EqualValues(t, 4, cfg.EntryAddress())
	assert.Equal(t, "mono", cfg.Theme)
	assert.True(t, cfg.Labels)
	assert.Equal(t, output.FormatYAML, cfg.ReportFormat())
	assert.Equal(t, "LR", cfg.RankDir)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "c.yaml", "theme: nasa\nlog_level: debug\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "nasa", cfg.Theme)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "c.toml", "theme = \"mono\"\nrankdir = \"TB\"\nentry = 2\n")
	t.Setenv("CHIP8CFG_THEME", "nasa")
	t.Setenv("CHIP8CFG_ENTRY", "6")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rankdir", "LR", "")
	flags.Int("entry", 0, "")
	require.NoError(t, flags.Parse([]string{"--entry", "8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "nasa", cfg.Theme, "env beats file")
	assert.Equal(t, 8, cfg.Entry, "changed flag beats env")
	assert.Equal(t, "TB", cfg.RankDir, "unchanged flag does not beat file")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.ErrorContains(t, err, "config: read")

	path := writeFile(t, "odd.toml", "entry = 3\n")
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, "entry 3")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"lowercase rankdir", func(c *Config) { c.RankDir = "tb" }, ""},
		{"negative entry", func(c *Config) { c.Entry = -2 }, "entry -2"},
		{"odd entry", func(c *Config) { c.Entry = 1 }, "entry 1"},
		{"load base", func(c *Config) { c.LoadBase = 0x1000 }, "load_base"},
		{"format", func(c *Config) { c.Format = "dot" }, "dot"},
		{"rankdir", func(c *Config) { c.RankDir = "XY" }, "rankdir"},
		{"theme", func(c *Config) { c.Theme = "neon" }, "neon"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	c := Default()
	c.Entry = 1
	c.Theme = "neon"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "neon")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "load_base = 512")

	cfg, err := ParseTOML(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// Viper reads the same document back.
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.ErrorContains(t, WriteDefault(path, false), "already exists")
	assert.NoError(t, WriteDefault(path, true))
}

func TestParseTOML(t *testing.T) {
	cfg, err := ParseTOML([]byte("theme = \"nasa\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "nasa", cfg.Theme)
	assert.Equal(t, "LR", cfg.RankDir)

	_, err = ParseTOML([]byte("theme = \n"))
	assert.ErrorContains(t, err, "decode toml")

	_, err = ParseTOML([]byte("format = \"xml\"\n"))
	assert.Error(t, err)
}
