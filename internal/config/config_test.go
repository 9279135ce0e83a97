package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string
	Host   string `toml:"server.host" env:"HOST"`
	Port   int    `toml:"server.port" env:"PORT"`
	Debug  bool   `toml:"debug" env:"DEBUG"`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfigFile(t, "debug = true\n\n[server]\nhost = \"0.0.0.0\"\nport = 9000\n")

	opts := testOptions{Config: path, Host: "127.0.0.1", Port: 8080}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Host != "0.0.0.0" {
		t.Errorf("Host = %s, want 0.0.0.0", opts.Host)
	}
	if opts.Port != 9000 {
		t.Errorf("Port = %d, want 9000", opts.Port)
	}
	if !opts.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfigFile(t, "[server]\nport = 9000\n")
	t.Setenv(EnvPrefix+"PORT", "9100")

	opts := testOptions{Config: path}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", opts.Port)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	path := writeConfigFile(t, "[server]\nport = 9000\n")
	t.Setenv(EnvPrefix+"PORT", "9100")

	opts := testOptions{Config: path}
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&opts.Port, "port", 8080, "")
	if err := cmd.Flags().Set("port", "7000"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(&opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != 7000 {
		t.Errorf("Port = %d, want CLI value 7000", opts.Port)
	}
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	opts := testOptions{Config: "/nonexistent/config.toml", Port: 8080}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed on missing file: %v", err)
	}
	if opts.Port != 8080 {
		t.Errorf("Port = %d, want untouched default 8080", opts.Port)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfigFile(t, "[logging]\nlevel = \"debug\"\nformat = \"json\"\nprobe = \"warn\"\n")

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("unexpected base config: %+v", cfg)
	}
	if cfg.Modules["probe"] != "warn" {
		t.Errorf("module override = %q, want warn", cfg.Modules["probe"])
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("/nonexistent/config.toml")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	cases := map[string]string{
		"Port":         "port",
		"LoggingLevel": "logging-level",
		"Host":         "host",
	}
	for in, want := range cases {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%s) = %s, want %s", in, got, want)
		}
	}
}
