package gps

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Opener opens the byte channel to the receiver at the given rate. Reads on the
// returned channel may return (0, nil) when no data arrived in time; Close must
// unblock a pending Read.
type Opener func(address string, baud int) (io.ReadWriteCloser, error)

const (
	BackendTarm    = "tarm"
	BackendBugST   = "bugst"
	BackendNetwork = "tcp"

	DefaultReadTimeout = 500 * time.Millisecond
)

// Backends lists the names accepted by NewOpener.
func Backends() []string {
	return []string{BackendTarm, BackendBugST, BackendNetwork}
}

// NewOpener returns the opener for backend. Addresses starting with tcp://
// always go to the network opener.
func NewOpener(backend string, readTimeout time.Duration) (Opener, error) {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	var open Opener
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendTarm:
		open = tarmOpener(readTimeout)
	case BackendBugST:
		open = bugstOpener(readTimeout)
	case BackendNetwork:
		return OpenNetwork, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return func(address string, baud int) (io.ReadWriteCloser, error) {
		if strings.HasPrefix(address, networkScheme) {
			return OpenNetwork(address, baud)
		}
		return open(address, baud)
	}, nil
}

// OpenTarm opens a local serial port with github.com/tarm/serial.
func OpenTarm(address string, baud int) (io.ReadWriteCloser, error) {
	return tarmOpener(DefaultReadTimeout)(address, baud)
}

func tarmOpener(readTimeout time.Duration) Opener {
	return func(address string, baud int) (io.ReadWriteCloser, error) {
		p, err := serial.OpenPort(&serial.Config{Name: address, Baud: baud, ReadTimeout: readTimeout})
		if err != nil {
			return nil, err
		}
		return &tarmPort{p}, nil
	}
}

// tarmPort reports a read timeout as (0, nil) instead of io.EOF.
type tarmPort struct {
	*serial.Port
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}

// OpenBugST opens a local serial port with go.bug.st/serial.
func OpenBugST(address string, baud int) (io.ReadWriteCloser, error) {
	return bugstOpener(DefaultReadTimeout)(address, baud)
}

func bugstOpener(readTimeout time.Duration) Opener {
	return func(address string, baud int) (io.ReadWriteCloser, error) {
		p, err := bugst.Open(address, &bugst.Mode{BaudRate: baud})
		if err != nil {
			return nil, err
		}
		if err := p.SetReadTimeout(readTimeout); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	}
}

// ListPorts returns the serial ports the OS knows about, sorted.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
