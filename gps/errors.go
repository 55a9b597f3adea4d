package gps

import "errors"

// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start is called on a running device.
	ErrAlreadyRunning = errors.New("gps: driver is already running")

	// ErrNotRunning is returned by Send when no session is active.
	ErrNotRunning = errors.New("gps: driver is not running")

	// ErrUnsupportedBaud is returned for a rate the MT3339 does not support.
	ErrUnsupportedBaud = errors.New("gps: unsupported baud rate")

	// ErrUnknownBackend is returned by NewOpener for an unknown backend name.
	ErrUnknownBackend = errors.New("gps: unknown serial backend")

	// ErrUnknownKind is returned by ParseKind.
	ErrUnknownKind = errors.New("gps: unknown message kind")
)
