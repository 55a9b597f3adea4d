package main

import (
	"strings"
	"testing"
	"time"

	"github.com/adrianmo/go-nmea"
)

func TestSentenceTable_Summary(t *testing.T) {
	table := newSentenceTable()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	gga, err := nmea.Parse("$GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031*4F")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i := 0; i < 1500; i++ {
		table.record(gga, now.Add(-3*time.Second))
	}

	lines := table.summary(now)
	if len(lines) != 1 {
		t.Fatalf("lines=%v", lines)
	}
	if !strings.HasPrefix(lines[0], "GGA: 1,500 received, last 3 seconds ago") {
		t.Fatalf("line=%q", lines[0])
	}
}
