package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/b3nn0/mt3339/common"
	"github.com/b3nn0/mt3339/gps"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Driver  DriverConfig  `yaml:"driver"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type SerialConfig struct {
	Port           string        `yaml:"port"`
	Baud           int           `yaml:"baud"`
	Backend        string        `yaml:"backend"`
	StartupDelay   time.Duration `yaml:"startup_delay"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	TXRate         int           `yaml:"tx_rate"`
	SilenceTimeout time.Duration `yaml:"silence_timeout"`
	MaxLineLength  int           `yaml:"max_line_length"`
}

type DriverConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	RateHz     float64       `yaml:"rate_hz"`
	TargetBaud int           `yaml:"target_baud"`
	Outputs    []string      `yaml:"outputs"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

func Default() Config {
	return Config{
		Serial: SerialConfig{
			Port:           "/dev/ttyS0",
			Baud:           int(gps.B9600),
			Backend:        gps.BackendTarm,
			StartupDelay:   gps.DefaultStartupDelay,
			ReadTimeout:    gps.DefaultReadTimeout,
			SilenceTimeout: 5 * time.Second,
			MaxLineLength:  gps.DefaultMaxLineLength,
		},
		Driver: DriverConfig{
			Timeout: gps.DefaultTimeout,
			RateHz:  1,
			Outputs: []string{"GGA", "RMC"},
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads path over the defaults and validates the result. Files ending in
// .toml are read as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(b, &cfg)
	} else {
		err = yaml.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg and normalizes the output names in place.
func (cfg *Config) Validate() error {
	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if _, err := gps.ParseBaudRate(cfg.Serial.Baud); err != nil {
		return fmt.Errorf("serial.baud: %w", err)
	}
	if !common.StringInSlice(cfg.Serial.Backend, gps.Backends()) {
		return fmt.Errorf("serial.backend %q: %w", cfg.Serial.Backend, gps.ErrUnknownBackend)
	}
	if cfg.Serial.StartupDelay < 0 {
		return fmt.Errorf("serial.startup_delay must be >= 0")
	}
	if cfg.Serial.ReadTimeout <= 0 {
		cfg.Serial.ReadTimeout = gps.DefaultReadTimeout
	}
	if cfg.Serial.TXRate < 0 {
		return fmt.Errorf("serial.tx_rate must be >= 0")
	}
	if cfg.Serial.SilenceTimeout < 0 {
		return fmt.Errorf("serial.silence_timeout must be >= 0")
	}
	if cfg.Serial.MaxLineLength <= 0 {
		cfg.Serial.MaxLineLength = gps.DefaultMaxLineLength
	}

	if cfg.Driver.Timeout <= 0 {
		return fmt.Errorf("driver.timeout must be > 0")
	}
	if cfg.Driver.RateHz <= 0 {
		return fmt.Errorf("driver.rate_hz must be > 0")
	}
	if cfg.Driver.TargetBaud != 0 {
		if _, err := gps.ParseBaudRate(cfg.Driver.TargetBaud); err != nil {
			return fmt.Errorf("driver.target_baud: %w", err)
		}
	}
	cfg.Driver.Outputs = common.NormalizeNames(cfg.Driver.Outputs)
	for _, name := range cfg.Driver.Outputs {
		if _, err := gps.ParseKind(name); err != nil {
			return fmt.Errorf("driver.outputs: %w", err)
		}
	}
	return nil
}

// OutputKinds returns the configured outputs as kinds. Call after Validate.
func (cfg Config) OutputKinds() []gps.MessageKind {
	out := make([]gps.MessageKind, 0, len(cfg.Driver.Outputs))
	for _, name := range cfg.Driver.Outputs {
		if k, err := gps.ParseKind(name); err == nil {
			out = append(out, k)
		}
	}
	return out
}

// Options turns the serial and driver sections into gps options.
func (cfg Config) Options() ([]gps.Option, error) {
	open, err := gps.NewOpener(cfg.Serial.Backend, cfg.Serial.ReadTimeout)
	if err != nil {
		return nil, err
	}
	return []gps.Option{
		gps.WithOpener(open),
		gps.WithTimeout(cfg.Driver.Timeout),
		gps.WithStartupDelay(cfg.Serial.StartupDelay),
		gps.WithTXRate(cfg.Serial.TXRate),
		gps.WithSilenceTimeout(cfg.Serial.SilenceTimeout),
		gps.WithMaxLineLength(cfg.Serial.MaxLineLength),
	}, nil
}
