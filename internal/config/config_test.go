package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.TickPeriod() != 100*time.Millisecond {
		t.Errorf("tick period = %v", cfg.TickPeriod())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
port = 9000

[simulation]
time_scale = 4.0
spawn_arrivals = true

[[seed.parked]]
callsign = "SWA1"
gate = "3"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host default lost: %q", cfg.Server.Host)
	}
	if cfg.Simulation.TimeScale != 4 || !cfg.Simulation.SpawnArrivals {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.PushbackSeconds != 20 {
		t.Errorf("pushback default lost: %v", cfg.Simulation.PushbackSeconds)
	}
	if len(cfg.Seed.Parked) != 1 || cfg.Seed.Parked[0].Callsign != "SWA1" {
		t.Errorf("parked = %+v", cfg.Seed.Parked)
	}
	if len(cfg.Seed.Arrivals) != 0 {
		t.Errorf("default arrivals merged into explicit seed: %+v", cfg.Seed.Arrivals)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file loaded")
	}
	bad := writeFile(t, "bad.toml", "[server\nport = ")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("Load(bad) = %v", err)
	}
}

func TestLoadWithFallback(t *testing.T) {
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing path accepted")
	}

	path := writeFile(t, "config.toml", "[server]\nport = 9100\n")
	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"rate", func(c *Config) { c.Server.CommandsPerSecond = 0 }, "commands_per_second"},
		{"tick", func(c *Config) { c.Simulation.TickMillis = 0 }, "tick_ms"},
		{"scale", func(c *Config) { c.Simulation.TimeScale = -1 }, "time_scale"},
		{"taxi speed", func(c *Config) { c.Simulation.TaxiSpeedKts = 0 }, "taxi_speed_kts"},
		{"spawn interval", func(c *Config) {
			c.Simulation.SpawnArrivals = true
			c.Simulation.SpawnIntervalSecs = 0
		}, "spawn_interval_seconds"},
		{"layout", func(c *Config) { c.Airport.LayoutPath = "/does/not/exist.yaml" }, "airport layout"},
		{"duplicate callsign", func(c *Config) {
			c.Seed.Arrivals = append(c.Seed.Arrivals, ArrivalAircraft{Callsign: "UAL123", Runway: "9"})
		}, "duplicate callsign"},
		{"blank gate", func(c *Config) { c.Seed.Parked[0].Gate = "" }, "no gate or runway"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"storage", func(c *Config) { c.Storage.Type = "postgres" }, "invalid storage type"},
		{"sqlite path", func(c *Config) { c.Storage.SQLiteBasePath = "" }, "sqlite_base_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Default()
	cfg.Simulation.JournalBufferSize = 0
	cfg.Storage.MaxRowsInAPI = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.JournalBufferSize != 256 || cfg.Storage.MaxRowsInAPI != 500 {
		t.Errorf("defaults not filled: %d %d", cfg.Simulation.JournalBufferSize, cfg.Storage.MaxRowsInAPI)
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(1.5); got != 1500*time.Millisecond {
		t.Errorf("Seconds(1.5) = %v", got)
	}
}
