package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP and websocket listener settings
	Simulation SimulationConfig `toml:"simulation"` // Clock, rates and arrival spawner
	Airport    AirportConfig    `toml:"airport"`    // Layout source
	Seed       SeedConfig       `toml:"seed"`       // Aircraft present at startup
	Display    DisplayConfig    `toml:"display"`    // Text dashboard in simulator mode
	Console    ConsoleConfig    `toml:"console"`    // Command console client
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Storage    StorageConfig    `toml:"storage"`    // Command journal persistence
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the API and websocket
	Host               string   `toml:"host"`                  // Host address to bind to (127.0.0.1 for localhost only)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // Origins allowed for CORS requests (["*"] for all)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
	CommandsPerSecond  float64  `toml:"commands_per_second"`   // Per-connection websocket command rate
	CommandBurst       int      `toml:"command_burst"`         // Burst allowance for the command rate limiter
}

// SimulationConfig controls how simulated time advances
type SimulationConfig struct {
	TickMillis        int     `toml:"tick_ms"`                // Wall-clock period between ticks
	TimeScale         float64 `toml:"time_scale"`             // Simulated seconds per wall-clock second
	PushbackSeconds   float64 `toml:"pushback_seconds"`       // Duration of a pushback
	RolloutSeconds    float64 `toml:"rollout_seconds"`        // Duration of the landing rollout
	ApproachSeconds   float64 `toml:"approach_seconds"`       // Approach fix to threshold
	TurnaroundSeconds float64 `toml:"turnaround_seconds"`     // Full gate turnaround
	TaxiSpeedKts      float64 `toml:"taxi_speed_kts"`         // Ground speed on taxiways
	RadioLogSize      int     `toml:"radio_log_size"`         // Radio messages kept in the snapshot
	SpawnArrivals     bool    `toml:"spawn_arrivals"`         // Periodically create approaching aircraft
	SpawnIntervalSecs float64 `toml:"spawn_interval_seconds"` // Simulated seconds between spawn attempts
	MaxArrivals       int     `toml:"max_arrivals"`           // Upper bound of aircraft on approach at once
	RandomSeed        int64   `toml:"random_seed"`            // 0 = seed from the wall clock
	JournalBufferSize int     `toml:"journal_buffer_size"`    // Pending journal entries before drops
}

// AirportConfig selects the airport layout
type AirportConfig struct {
	LayoutPath string `toml:"layout_path"` // TOML or YAML layout; empty = built-in default
}

// SeedConfig lists the aircraft created at startup
type SeedConfig struct {
	Parked   []ParkedAircraft  `toml:"parked"`
	Arrivals []ArrivalAircraft `toml:"arrivals"`
}

// ParkedAircraft starts at a gate
type ParkedAircraft struct {
	Callsign string `toml:"callsign"`
	Gate     string `toml:"gate"`
}

// ArrivalAircraft starts on approach to a runway
type ArrivalAircraft struct {
	Callsign string `toml:"callsign"`
	Runway   string `toml:"runway"`
}

// DisplayConfig controls the dashboard printed by the simulator
type DisplayConfig struct {
	Enabled       bool `toml:"enabled"`
	RefreshMillis int  `toml:"refresh_ms"`
	RadioLines    int  `toml:"radio_lines"`
	ClearScreen   bool `toml:"clear_screen"`
}

// ConsoleConfig configures the command console client
type ConsoleConfig struct {
	ServerURL      string `toml:"server_url"`      // Websocket URL of the simulator
	Prompt         string `toml:"prompt"`          // Printed before each line
	TimeoutSeconds int    `toml:"timeout_seconds"` // Wait for a command result
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`        // Log level: "debug", "info", "warn", or "error"
	Format     string `toml:"format"`       // Log format: "json" (structured) or "console" (human-readable)
	File       string `toml:"file"`         // Log file used in simulator mode; empty = stderr
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate after this size
	MaxBackups int    `toml:"max_backups"`  // Rotated files kept
	MaxAgeDays int    `toml:"max_age_days"` // Rotated files age limit
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`             // "sqlite" or "none"
	SQLiteBasePath string `toml:"sqlite_base_path"` // Directory for ground-atc-YYYY-MM-DD.db
	MaxRowsInAPI   int    `toml:"max_rows_in_api"`  // Upper bound for history queries
}

// Default returns a configuration that runs the built-in airport with no files
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8787,
			Host:               "127.0.0.1",
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSecs:    10,
			IdleTimeoutSecs:    60,
			CommandsPerSecond:  5,
			CommandBurst:       10,
		},
		Simulation: SimulationConfig{
			TickMillis:        100,
			TimeScale:         1,
			PushbackSeconds:   20,
			RolloutSeconds:    30,
			ApproachSeconds:   90,
			TurnaroundSeconds: 300,
			TaxiSpeedKts:      20,
			RadioLogSize:      50,
			SpawnIntervalSecs: 120,
			MaxArrivals:       3,
			JournalBufferSize: 256,
		},
		Seed: SeedConfig{
			Parked: []ParkedAircraft{
				{Callsign: "UAL123", Gate: "1"},
				{Callsign: "DAL456", Gate: "2"},
				{Callsign: "BAW9", Gate: "5"},
			},
			Arrivals: []ArrivalAircraft{
				{Callsign: "AAL77", Runway: "27"},
			},
		},
		Display: DisplayConfig{
			Enabled:       true,
			RefreshMillis: 1000,
			RadioLines:    8,
			ClearScreen:   true,
		},
		Console: ConsoleConfig{
			ServerURL:      "ws://127.0.0.1:8787/api/v1/ws",
			Prompt:         "atc> ",
			TimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Storage: StorageConfig{
			Type:           "sqlite",
			SQLiteBasePath: "data",
			MaxRowsInAPI:   500,
		},
	}
}

// Load decodes the file at path over the defaults
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	// An explicit seed section replaces the default fleet instead of merging into it
	if md.IsDefined("seed") {
		if !md.IsDefined("seed", "parked") {
			config.Seed.Parked = nil
		}
		if !md.IsDefined("seed", "arrivals") {
			config.Seed.Arrivals = nil
		}
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. When no file exists anywhere the defaults are returned.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}
	if preferredPath != "" {
		return nil, fmt.Errorf("config file not found: %s", preferredPath)
	}

	return Default(), nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.CommandsPerSecond <= 0 {
		return fmt.Errorf("commands_per_second must be positive: %f", c.Server.CommandsPerSecond)
	}
	if c.Server.CommandBurst <= 0 {
		return fmt.Errorf("command_burst must be positive: %d", c.Server.CommandBurst)
	}

	if err := c.ValidateSimulation(); err != nil {
		return err
	}

	// Validate layout file exists
	if c.Airport.LayoutPath != "" {
		if _, err := os.Stat(c.Airport.LayoutPath); os.IsNotExist(err) {
			return fmt.Errorf("airport layout does not exist: %s", c.Airport.LayoutPath)
		}
	}

	if err := c.ValidateSeed(); err != nil {
		return err
	}

	if c.Display.Enabled && c.Display.RefreshMillis <= 0 {
		return fmt.Errorf("invalid display refresh: %d ms", c.Display.RefreshMillis)
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate storage config
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.SQLiteBasePath == "" {
			return fmt.Errorf("sqlite_base_path is required when storage type is sqlite")
		}
	case "none":
	default:
		return fmt.Errorf("invalid storage type: %s (must be 'sqlite' or 'none')", c.Storage.Type)
	}
	if c.Storage.MaxRowsInAPI <= 0 {
		c.Storage.MaxRowsInAPI = 500
	}

	return nil
}

// ValidateSimulation validates the clock and rate settings
func (c *Config) ValidateSimulation() error {
	s := &c.Simulation
	if s.TickMillis <= 0 {
		return fmt.Errorf("tick_ms must be positive: %d", s.TickMillis)
	}
	if s.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be positive: %f", s.TimeScale)
	}
	for name, v := range map[string]float64{
		"pushback_seconds":   s.PushbackSeconds,
		"rollout_seconds":    s.RolloutSeconds,
		"approach_seconds":   s.ApproachSeconds,
		"turnaround_seconds": s.TurnaroundSeconds,
		"taxi_speed_kts":     s.TaxiSpeedKts,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive: %f", name, v)
		}
	}
	if s.RadioLogSize < 0 {
		return fmt.Errorf("radio_log_size must be non-negative: %d", s.RadioLogSize)
	}
	if s.SpawnArrivals {
		if s.SpawnIntervalSecs <= 0 {
			return fmt.Errorf("spawn_interval_seconds must be positive: %f", s.SpawnIntervalSecs)
		}
		if s.MaxArrivals <= 0 {
			return fmt.Errorf("max_arrivals must be positive: %d", s.MaxArrivals)
		}
	}

	// Set default values if not specified
	if s.JournalBufferSize == 0 {
		s.JournalBufferSize = 256
	}
	return nil
}

// ValidateSeed rejects duplicate or blank callsigns. Gate and runway ids are
// checked against the layout when the fleet is created.
func (c *Config) ValidateSeed() error {
	seen := make(map[string]bool)
	check := func(kind string, i int, callsign, target string) error {
		if callsign == "" {
			return fmt.Errorf("seed %s #%d: callsign is required", kind, i+1)
		}
		if target == "" {
			return fmt.Errorf("seed %s #%d: %s has no gate or runway", kind, i+1, callsign)
		}
		if seen[callsign] {
			return fmt.Errorf("seed %s #%d: duplicate callsign: %s", kind, i+1, callsign)
		}
		seen[callsign] = true
		return nil
	}
	for i, p := range c.Seed.Parked {
		if err := check("parked", i, p.Callsign, p.Gate); err != nil {
			return err
		}
	}
	for i, a := range c.Seed.Arrivals {
		if err := check("arrival", i, a.Callsign, a.Runway); err != nil {
			return err
		}
	}
	return nil
}

// TickPeriod is the wall-clock tick period
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Simulation.TickMillis) * time.Millisecond
}

// Seconds converts a configured number of seconds to a duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
