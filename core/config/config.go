package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	// StdinInput selects standard input as the value source.
	StdinInput = "-"

	DefaultResetMarker = "reset"

	// DefaultMaxRecordSize is the default limit for the length of an input
	// line in bytes.
	DefaultMaxRecordSize = 1 << 20
)

type Config struct {
	Precision      int    `toml:"precision,omitempty"`
	Input          string `toml:"input,omitempty"`
	Format         string `toml:"format,omitempty"`
	MetricsAddr    string `toml:"metrics_address,omitempty"`
	SkipInvalid    bool   `toml:"skip_invalid"`
	ResetMarker    string `toml:"reset_marker"`
	CapacityHint   int    `toml:"capacity_hint,omitempty"`
	MaxRecordSize  int    `toml:"max_record_size,omitempty"`
	PrintEachValue bool   `toml:"print_each_value"`
}

func Default() Config {
	return Config{
		Precision:      64,
		Input:          StdinInput,
		Format:         FormatText,
		SkipInvalid:    true,
		ResetMarker:    DefaultResetMarker,
		MaxRecordSize:  DefaultMaxRecordSize,
		PrintEachValue: true,
	}
}

// Load reads a TOML configuration file. Settings missing from the file keep
// their default values; unknown settings are an error.
func Load(configFile string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return cfg, fmt.Errorf("failed to load configuration: %w", err)
	}
	err = toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to decode configuration: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Precision != 32 && c.Precision != 64 {
		return fmt.Errorf("invalid precision %d: must be 32 or 64", c.Precision)
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("invalid format %q: must be %q or %q", c.Format, FormatText, FormatJSON)
	}
	if c.Input == "" {
		return fmt.Errorf("input not specified")
	}
	if c.CapacityHint < 0 {
		return fmt.Errorf("invalid capacity hint %d", c.CapacityHint)
	}
	if c.MaxRecordSize <= 0 {
		return fmt.Errorf("invalid record size limit %d", c.MaxRecordSize)
	}
	return nil
}
