package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mt3339.yaml")
	if err := os.WriteFile(path, []byte("driver:\n  rate_hz: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, zerolog.Nop(), func(c Config) { changes <- c })
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("driver:\n  rate_hz: 5\n  outputs: [GSV]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-changes:
			// A truncating write can surface the empty file first.
			if c.Driver.RateHz != 5 {
				continue
			}
			if len(c.Driver.Outputs) != 1 || c.Driver.Outputs[0] != "GSV" {
				t.Fatalf("driver=%+v", c.Driver)
			}
			reloaded = true
		case <-deadline:
			t.Fatalf("no reload")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Watch did not return")
	}
}
