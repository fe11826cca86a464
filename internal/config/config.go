// ABOUTME: Configuration loading and parsing for the copra station
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/niyog/copra-station/internal/printer"
)

// Config represents the complete copra-station configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Station  StationConfig  `yaml:"station"`
	Printer  PrinterConfig  `yaml:"printer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StationConfig identifies the trading post on printed receipts
type StationConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// PrinterConfig holds printer gateway configuration
type PrinterConfig struct {
	// Mode selects the implementation: "serial" for real hardware,
	// "mock" (or empty) for development
	Mode     string         `yaml:"mode"`
	BaudRate int            `yaml:"baud_rate"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// DeviceConfig names one paired printer and its serial port path
type DeviceConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// New returns a configuration filled with development defaults for the given
// database path: mock printer, info logging, generic station header.
func New(dbPath string) *Config {
	cfg := &Config{
		Database: DatabaseConfig{Path: dbPath},
		Station:  StationConfig{Name: "COPRA STATION"},
		Printer:  PrinterConfig{Mode: string(printer.ModeMock)},
		Logging:  LoggingConfig{Level: "info"},
	}
	applyEnv(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// applyEnv applies environment overrides that win over the file. The printer
// implementation is selected once at startup, so a developer can force the
// mock with COPRA_PRINTER=mock without editing the config.
func applyEnv(cfg *Config) {
	if mode := os.Getenv("COPRA_PRINTER"); mode != "" {
		cfg.Printer.Mode = mode
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch printer.Mode(c.Printer.Mode) {
	case printer.ModeSerial, printer.ModeMock, "":
	default:
		return fmt.Errorf("printer.mode must be %q or %q, got %q",
			printer.ModeSerial, printer.ModeMock, c.Printer.Mode)
	}

	if c.Printer.BaudRate < 0 {
		return fmt.Errorf("printer.baud_rate must not be negative")
	}

	if printer.Mode(c.Printer.Mode) == printer.ModeSerial {
		for i, d := range c.Printer.Devices {
			if d.Address == "" {
				return fmt.Errorf("printer.devices[%d].address is required", i)
			}
		}
	}

	return nil
}

// PrinterGateway builds the printer gateway this configuration selects.
func (c *Config) PrinterGateway() (printer.Gateway, error) {
	devices := make([]printer.Device, 0, len(c.Printer.Devices))
	for _, d := range c.Printer.Devices {
		devices = append(devices, printer.Device{Name: d.Name, Address: d.Address})
	}
	return printer.New(printer.Mode(c.Printer.Mode), devices, c.Printer.BaudRate)
}
