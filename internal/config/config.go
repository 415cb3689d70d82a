package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/yerf/pkg/clock"
	"github.com/aretw0/yerf/pkg/reporting"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the yerf binary.
type Config struct {
	ClockSource       string `mapstructure:"clockSource"`
	ReportIntervalsMs []int  `mapstructure:"reportIntervalsMs"`
	ReportRecurringMs int    `mapstructure:"reportRecurringMs"`
	PostEndpoint      string `mapstructure:"postEndpoint"`
	Gzip              bool   `mapstructure:"gzip"`

	LogLevel  string `mapstructure:"logLevel"`
	LogFormat string `mapstructure:"logFormat"`
	Listen    string `mapstructure:"listen"`

	Redis Redis `mapstructure:"redis"`
}

// Redis selects the Redis sink of the collector. Empty Addr keeps batches in memory.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	MaxLen   int64  `mapstructure:"maxLen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ClockSource:       string(clock.SourceMonotonic),
		ReportIntervalsMs: []int{1000, 2000, 5000},
		ReportRecurringMs: 10000,
		LogLevel:          "info",
		LogFormat:         "text",
		Listen:            ":8080",
		Redis:             Redis{Key: "yerf:batches"},
	}
}

// Schedule returns the flush series of the configuration.
func (c Config) Schedule() reporting.Schedule {
	return reporting.Millis(c.ReportIntervalsMs, c.ReportRecurringMs)
}

// Validate checks values a misconfigured file would otherwise only reveal at run time.
func (c Config) Validate() error {
	if _, err := clock.Parse(c.ClockSource); err != nil {
		return err
	}
	for _, ms := range c.ReportIntervalsMs {
		if ms < 0 {
			return fmt.Errorf("reportIntervalsMs: negative delay %d", ms)
		}
	}
	if c.ReportRecurringMs < 0 {
		return fmt.Errorf("reportRecurringMs: negative interval %d", c.ReportRecurringMs)
	}
	return nil
}

// Load reads the file at path over Default. A missing file is an error;
// pass an empty path to get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		// Default to YAML
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if _, ok := raw["reportIntervalsMs"]; ok {
		// Replace the default series instead of merging into it.
		cfg.ReportIntervalsMs = nil
	}
	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// Decode copies a generic map onto out. Scalars are converted loosely
// ("100" into an int) and unknown keys are rejected.
func Decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
