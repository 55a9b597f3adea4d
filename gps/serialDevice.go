/*
	Copyright (c) 2015-2016 Christopher Young,
	Copyright (c) 2022 Refactored R. van Twisk
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	serialDevice.go: Framed serial transport for a single MT3339 receiver.
*/

package gps

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"github.com/b3nn0/mt3339/common"
)

// SerialDevice owns the byte channel to the receiver. While running, one
// session goroutine performs every write and cuts incoming bytes into lines,
// which it hands to the receive function; a second goroutine only pumps raw
// reads into it.
type SerialDevice struct {
	receive func(line string)

	log            zerolog.Logger
	metrics        *Metrics
	open           Opener
	startupDelay   time.Duration
	txRate         int
	silenceTimeout time.Duration
	maxLineLength  int
	readSize       int

	mu      sync.Mutex
	running bool
	address string
	txCh    chan txMessage
	eh      *common.ExitHelper

	bytesRead    uint64
	bytesWritten uint64
}

// NewSerialDevice returns a stopped device that passes every extracted line to receive.
func NewSerialDevice(receive func(line string), opts ...Option) *SerialDevice {
	s := applyOptions(opts)
	return &SerialDevice{
		receive:        receive,
		log:            s.log,
		metrics:        s.metrics,
		open:           s.opener,
		startupDelay:   s.startupDelay,
		txRate:         s.txRate,
		silenceTimeout: s.silenceTimeout,
		maxLineLength:  s.maxLineLength,
		readSize:       s.readSize,
		eh:             common.NewExitHelper(),
	}
}

// Start opens address at baud and starts the session. It fails with
// ErrAlreadyRunning if a session is active.
func (s *SerialDevice) Start(address string, baud BaudRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if !baud.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedBaud, int(baud))
	}

	port, err := s.open(address, int(baud))
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", address, err)
	}

	quit := s.eh.C
	chunks := make(chan []byte, 16)
	s.txCh = make(chan txMessage)
	s.address = address
	atomic.StoreUint64(&s.bytesRead, 0)
	atomic.StoreUint64(&s.bytesWritten, 0)

	// Closing the port is what unblocks the reader on Stop.
	s.eh.Go(func() {
		<-quit
		if err := port.Close(); err != nil {
			s.log.Debug().Err(err).Str("port", address).Msg("closing serial port")
		}
	})
	s.eh.Go(func() { s.session(port, quit, chunks, s.txCh) })

	// Give the link time to settle before the first read.
	if s.startupDelay > 0 {
		time.Sleep(s.startupDelay)
	}
	s.eh.Go(func() { s.reader(port, quit, chunks) })

	s.running = true
	s.log.Info().Str("port", address).Int("baud", int(baud)).Msg("serial device started")
	return nil
}

// Stop ends the session, waits for its goroutines and closes the port. It is a
// no-op when the device is not running. It must not be called from a handler.
func (s *SerialDevice) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.eh.Exit()
	s.running = false
	s.txCh = nil
	s.log.Info().
		Str("port", s.address).
		Str("read", humanize.Bytes(atomic.LoadUint64(&s.bytesRead))).
		Str("written", humanize.Bytes(atomic.LoadUint64(&s.bytesWritten))).
		Msg("serial device stopped")
}

// Running reports whether a session is active. It must not be called from a
// handler, since Stop holds the same lock while it waits for the session.
func (s *SerialDevice) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns the bytes read and written during the current or last session.
func (s *SerialDevice) Stats() (read, written uint64) {
	return atomic.LoadUint64(&s.bytesRead), atomic.LoadUint64(&s.bytesWritten)
}

// Send queues raw to the session goroutine and waits until it has been written
// in full. Concurrent sends never interleave.
func (s *SerialDevice) Send(raw []byte) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	txCh, quit := s.txCh, s.eh.C
	s.mu.Unlock()

	msg := txMessage{data: raw, result: make(chan error, 1)}
	select {
	case txCh <- msg:
	case <-quit:
		return ErrNotRunning
	}
	select {
	case err := <-msg.result:
		return err
	case <-quit:
		return ErrNotRunning
	}
}

func (s *SerialDevice) reader(port io.Reader, quit <-chan struct{}, chunks chan<- []byte) {
	defer close(chunks)

	buf := make([]byte, s.readSize)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-quit:
				return
			}
		}
		if err != nil {
			// Errors after Exit come from the port being closed under us.
			if s.eh.IsExit() {
				return
			}
			if errors.Is(err, io.EOF) {
				s.log.Warn().Msg("serial link closed by peer")
			} else {
				s.log.Error().Err(err).Msg("serial read failed")
			}
			return
		}
		select {
		case <-quit:
			return
		default:
		}
	}
}

func (s *SerialDevice) session(port io.Writer, quit <-chan struct{}, chunks <-chan []byte, txCh <-chan txMessage) {
	rl := ratelimit.NewUnlimited()
	if s.txRate > 0 {
		rl = ratelimit.New(s.txRate)
	}
	framer := newLineFramer(s.maxLineLength)

	var silence <-chan struct{}
	var wd *common.Watchdog
	if s.silenceTimeout > 0 {
		wd = common.NewWatchdog(s.silenceTimeout)
		defer wd.Stop()
		silence = wd.C
	}

	for {
		select {
		case <-quit:
			return

		case msg := <-txCh:
			rl.Take()
			n, err := port.Write(msg.data)
			if err == nil && n < len(msg.data) {
				err = io.ErrShortWrite
			}
			atomic.AddUint64(&s.bytesWritten, uint64(n))
			s.metrics.written(n)
			msg.result <- err

		case chunk, ok := <-chunks:
			if !ok {
				// Reader is gone; keep serving writes until Stop.
				chunks = nil
				continue
			}
			if wd != nil {
				if wd.IsTriggered() {
					s.log.Info().Msg("receiver is sending again")
				}
				wd.Poke()
			}
			atomic.AddUint64(&s.bytesRead, uint64(len(chunk)))
			s.metrics.read(len(chunk))
			for _, line := range framer.push(chunk) {
				s.receive(line)
			}

		case <-silence:
			s.log.Warn().Dur("silence", s.silenceTimeout).Msg("no data from receiver")
		}
	}
}
