package main

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3nn0/mt3339/config"
	"github.com/b3nn0/mt3339/gps"
	"github.com/b3nn0/mt3339/sentence"
)

// ackingOpener hands out one end of an in-memory link whose other end ACKs
// every PMTK command with status 3.
func ackingOpener(address string, baud int) (io.ReadWriteCloser, error) {
	dev, rx := net.Pipe()
	go func() {
		defer rx.Close()
		sc := bufio.NewScanner(rx)
		for sc.Scan() {
			f := sentence.Decode(sc.Text())
			ack := sentence.MustEncode("PMTK", "001", []string{f.Type, "3"})
			if _, err := rx.Write([]byte(ack)); err != nil {
				return
			}
		}
	}()
	return dev, nil
}

func TestApplyDriverConfig(t *testing.T) {
	g := gps.New(gps.WithOpener(ackingOpener), gps.WithStartupDelay(0), gps.WithTimeout(time.Second))
	if err := g.Start("sim", gps.B9600); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer g.Stop()

	cfg := config.Default()
	cfg.Driver.Timeout = 750 * time.Millisecond
	cfg.Driver.Outputs = []string{"GSV"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	applyDriverConfig(g, cfg, zerolog.Nop(), newSentenceTable())

	if g.Timeout() != 750*time.Millisecond {
		t.Fatalf("timeout=%v", g.Timeout())
	}
	attached := g.Attached()
	if len(attached) != 1 || attached[0] != gps.KindGSV {
		t.Fatalf("attached=%v", attached)
	}
	if r := g.LastResponse(); r.Field(0) != "300" || r.Field(1) != "3" {
		t.Fatalf("last response %+v", r)
	}
}
