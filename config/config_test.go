package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/b3nn0/mt3339/gps"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mt3339.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Driver.Timeout != 250*time.Millisecond || cfg.Serial.StartupDelay != 250*time.Millisecond {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: tcp://10.0.0.5:4001
  baud: 115200
  backend: bugst
  tx_rate: 10
  silence_timeout: 2s
driver:
  timeout: 1s
  rate_hz: 5
  target_baud: 921600
  outputs: [gga, " rmc", zda]
metrics:
  listen: ":9339"
log:
  level: debug
  console: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serial.Port != "tcp://10.0.0.5:4001" || cfg.Serial.Baud != 115200 || cfg.Serial.Backend != gps.BackendBugST {
		t.Fatalf("serial=%+v", cfg.Serial)
	}
	if cfg.Serial.TXRate != 10 || cfg.Serial.SilenceTimeout != 2*time.Second {
		t.Fatalf("serial=%+v", cfg.Serial)
	}
	// Unset keys keep their defaults.
	if cfg.Serial.StartupDelay != gps.DefaultStartupDelay || cfg.Serial.ReadTimeout != gps.DefaultReadTimeout {
		t.Fatalf("serial=%+v", cfg.Serial)
	}
	if cfg.Driver.Timeout != time.Second || cfg.Driver.RateHz != 5 || cfg.Driver.TargetBaud != 921600 {
		t.Fatalf("driver=%+v", cfg.Driver)
	}
	kinds := cfg.OutputKinds()
	if len(kinds) != 3 || kinds[0] != gps.KindGGA || kinds[1] != gps.KindRMC || kinds[2] != gps.KindZDA {
		t.Fatalf("kinds=%v", kinds)
	}
	if cfg.Metrics.Listen != ":9339" || cfg.Log.Level != "debug" || cfg.Log.Console {
		t.Fatalf("cfg=%+v", cfg)
	}
	if _, err := cfg.Options(); err != nil {
		t.Fatalf("Options: %v", err)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		is   error
	}{
		{"baud", "serial:\n  baud: 12345\n", gps.ErrUnsupportedBaud},
		{"backend", "serial:\n  backend: usb\n", gps.ErrUnknownBackend},
		{"target baud", "driver:\n  target_baud: 300\n", gps.ErrUnsupportedBaud},
		{"output", "driver:\n  outputs: [GGA, TXT]\n", gps.ErrUnknownKind},
		{"timeout", "driver:\n  timeout: 0s\n", nil},
		{"rate", "driver:\n  rate_hz: -1\n", nil},
		{"port", "serial:\n  port: \"\"\n", nil},
		{"yaml", "serial: [\n", nil},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mt3339.toml")
	body := `
[serial]
port = "/dev/ttyUSB0"
baud = 38400
silence_timeout = "0s"

[driver]
timeout = "500ms"
rate_hz = 10.0
outputs = ["gsv", "gsa"]

[log]
console = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Baud != 38400 || cfg.Serial.SilenceTimeout != 0 {
		t.Fatalf("serial=%+v", cfg.Serial)
	}
	if cfg.Serial.Backend != gps.BackendTarm || cfg.Serial.StartupDelay != gps.DefaultStartupDelay {
		t.Fatalf("defaults lost: %+v", cfg.Serial)
	}
	if cfg.Driver.Timeout != 500*time.Millisecond || cfg.Driver.RateHz != 10 {
		t.Fatalf("driver=%+v", cfg.Driver)
	}
	kinds := cfg.OutputKinds()
	if len(kinds) != 2 || kinds[0] != gps.KindGSV || kinds[1] != gps.KindGSA {
		t.Fatalf("kinds=%v", kinds)
	}
	if cfg.Log.Console {
		t.Fatalf("console should be off")
	}
}

func TestLoad_TOMLBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mt3339.toml")
	if err := os.WriteFile(path, []byte("[driver]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error")
	}
}
