package gps

import (
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout       = 250 * time.Millisecond
	DefaultStartupDelay  = 250 * time.Millisecond
	DefaultMaxLineLength = 1024
	defaultReadSize      = 256
)

// SentenceParser turns a validated navigation line into a typed sentence.
type SentenceParser func(raw string) (nmea.Sentence, error)

type settings struct {
	log     zerolog.Logger
	metrics *Metrics

	// Driver
	timeout time.Duration
	parser  SentenceParser

	// SerialDevice
	opener         Opener
	startupDelay   time.Duration
	txRate         int
	silenceTimeout time.Duration
	maxLineLength  int
	readSize       int
}

func defaultSettings() settings {
	return settings{
		log:           zerolog.Nop(),
		timeout:       DefaultTimeout,
		parser:        nmea.Parse,
		opener:        OpenTarm,
		startupDelay:  DefaultStartupDelay,
		maxLineLength: DefaultMaxLineLength,
		readSize:      defaultReadSize,
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, o := range opts {
		if o != nil {
			o(&s)
		}
	}
	return s
}

// Option configures a Driver, a SerialDevice or an MT3339. Options that do not
// apply to the value being built are ignored.
type Option func(*settings)

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithTimeout sets the initial response timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithParser replaces the typed sentence parser (nmea.Parse by default).
func WithParser(p SentenceParser) Option {
	return func(s *settings) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithOpener selects how Start opens the byte channel (OpenTarm by default).
func WithOpener(o Opener) Option {
	return func(s *settings) {
		if o != nil {
			s.opener = o
		}
	}
}

// WithStartupDelay sets how long Start lets the link settle before the first read.
func WithStartupDelay(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.startupDelay = d
		}
	}
}

// WithTXRate caps outbound frames per second. Zero means unlimited.
func WithTXRate(perSecond int) Option {
	return func(s *settings) {
		if perSecond >= 0 {
			s.txRate = perSecond
		}
	}
}

// WithSilenceTimeout logs a warning when the link goes quiet for d after data
// has been seen. Zero disables it.
func WithSilenceTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.silenceTimeout = d
		}
	}
}

// WithMaxLineLength bounds how many unterminated bytes are kept between reads.
func WithMaxLineLength(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxLineLength = n
		}
	}
}
