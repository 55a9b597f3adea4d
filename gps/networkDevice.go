/*
	Copyright (c) 2022 R. van Twisk
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	networkDevice.go: Reach a receiver behind a serial-to-TCP bridge (ser2net and alike)
*/

package gps

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const (
	networkScheme      = "tcp://"
	networkDialTimeout = 5 * time.Second
)

// OpenNetwork connects to address ("tcp://host:port" or "host:port"). The baud
// rate is owned by the bridge and is ignored here.
func OpenNetwork(address string, baud int) (io.ReadWriteCloser, error) {
	hostPort := strings.TrimPrefix(address, networkScheme)
	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		return nil, fmt.Errorf("network address %q: %w", address, err)
	}
	conn, err := net.DialTimeout("tcp", hostPort, networkDialTimeout)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return conn, nil
}
