package gps

import (
	"fmt"
	"strings"

	"github.com/adrianmo/go-nmea"
)

// MessageKind is one of the navigation sentences the MT3339 can be told to emit
// and the driver can dispatch to a handler.
type MessageKind int

const (
	KindGLL MessageKind = iota
	KindRMC
	KindVTG
	KindGGA
	KindGSA
	KindGSV
	KindZDA

	kindCount
)

// outputField is the PMTK314 field that enables the sentence on the receiver.
var kindTable = [kindCount]struct {
	name        string
	outputField int
}{
	KindGLL: {nmea.TypeGLL, 0},
	KindRMC: {nmea.TypeRMC, 1},
	KindVTG: {nmea.TypeVTG, 2},
	KindGGA: {nmea.TypeGGA, 3},
	KindGSA: {nmea.TypeGSA, 4},
	KindGSV: {nmea.TypeGSV, 5},
	KindZDA: {nmea.TypeZDA, 17},
}

// Kinds lists every dispatchable kind in PMTK314 field order.
func Kinds() []MessageKind {
	out := make([]MessageKind, 0, kindCount)
	for k := MessageKind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k MessageKind) Valid() bool {
	return k >= 0 && k < kindCount
}

func (k MessageKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
	return kindTable[k].name
}

// OutputField is the index of the enable flag for this kind in PMTK314.
func (k MessageKind) OutputField() int {
	return kindTable[k].outputField
}

// KindFromType maps a three letter sentence type ("GGA") to its kind.
func KindFromType(typ string) (MessageKind, bool) {
	for k := MessageKind(0); k < kindCount; k++ {
		if kindTable[k].name == typ {
			return k, true
		}
	}
	return 0, false
}

// ParseKind is KindFromType for user input: case and surrounding space are ignored.
func ParseKind(name string) (MessageKind, error) {
	k, ok := KindFromType(strings.ToUpper(strings.TrimSpace(name)))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// txMessage is one outbound frame queued to the session goroutine that owns the port.
type txMessage struct {
	data   []byte
	result chan error
}
