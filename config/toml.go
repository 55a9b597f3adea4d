package config

import (
	"fmt"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors Config with durations as strings, which is how they are
// written in TOML. Empty values keep the defaults.
type tomlFile struct {
	Serial struct {
		Port           string `toml:"port"`
		Baud           int    `toml:"baud"`
		Backend        string `toml:"backend"`
		StartupDelay   string `toml:"startup_delay"`
		ReadTimeout    string `toml:"read_timeout"`
		TXRate         int    `toml:"tx_rate"`
		SilenceTimeout string `toml:"silence_timeout"`
		MaxLineLength  int    `toml:"max_line_length"`
	} `toml:"serial"`
	Driver struct {
		Timeout    string   `toml:"timeout"`
		RateHz     float64  `toml:"rate_hz"`
		TargetBaud int      `toml:"target_baud"`
		Outputs    []string `toml:"outputs"`
	} `toml:"driver"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
	Log struct {
		Level   string `toml:"level"`
		Console *bool  `toml:"console"`
	} `toml:"log"`
}

func decodeTOML(b []byte, cfg *Config) error {
	var f tomlFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return err
	}

	setString(f.Serial.Port, &cfg.Serial.Port)
	setInt(f.Serial.Baud, &cfg.Serial.Baud)
	setString(f.Serial.Backend, &cfg.Serial.Backend)
	setInt(f.Serial.TXRate, &cfg.Serial.TXRate)
	setInt(f.Serial.MaxLineLength, &cfg.Serial.MaxLineLength)
	setInt(f.Driver.TargetBaud, &cfg.Driver.TargetBaud)
	setString(f.Metrics.Listen, &cfg.Metrics.Listen)
	setString(f.Log.Level, &cfg.Log.Level)
	if f.Driver.RateHz != 0 {
		cfg.Driver.RateHz = f.Driver.RateHz
	}
	if f.Driver.Outputs != nil {
		cfg.Driver.Outputs = f.Driver.Outputs
	}
	if f.Log.Console != nil {
		cfg.Log.Console = *f.Log.Console
	}

	durations := []struct {
		key string
		v   string
		dst *time.Duration
	}{
		{"serial.startup_delay", f.Serial.StartupDelay, &cfg.Serial.StartupDelay},
		{"serial.read_timeout", f.Serial.ReadTimeout, &cfg.Serial.ReadTimeout},
		{"serial.silence_timeout", f.Serial.SilenceTimeout, &cfg.Serial.SilenceTimeout},
		{"driver.timeout", f.Driver.Timeout, &cfg.Driver.Timeout},
	}
	for _, d := range durations {
		if d.v == "" {
			continue
		}
		v, err := time.ParseDuration(d.v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(v string, dst *string) {
	if v != "" {
		*dst = v
	}
}

func setInt(v int, dst *int) {
	if v != 0 {
		*dst = v
	}
}
