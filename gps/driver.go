package gps

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3nn0/mt3339/common"
	"github.com/b3nn0/mt3339/sentence"
)

// Transmitter writes one complete frame to the receiver.
type Transmitter interface {
	Send(raw []byte) error
}

// Driver correlates PMTK commands with their responses and dispatches
// navigation sentences to the handlers attached for their kind.
//
// Receive is fed by the transport's session goroutine. Commands may be called
// from any goroutine but run one at a time: the receiver answers over a single
// response slot, so a second command waits for the first to finish.
type Driver struct {
	tx      Transmitter
	log     zerolog.Logger
	metrics *Metrics
	parse   SentenceParser

	cmdMu sync.Mutex

	respMu   sync.Mutex
	response sentence.Frame
	timeout  time.Duration
	pending  *pendingResponse

	// cfgMu serializes attach/detach against SetOutputs; handlerMu guards the
	// handler table and is held while a handler runs.
	cfgMu     sync.Mutex
	handlerMu sync.Mutex
	handlers  [kindCount]handler
}

// pendingResponse is the wait of the command currently in flight. Only frames
// received after it was installed can complete it.
type pendingResponse struct {
	match func(sentence.Frame) bool
	frame sentence.Frame
	done  chan struct{}
}

func NewDriver(tx Transmitter, opts ...Option) *Driver {
	s := applyOptions(opts)
	return &Driver{
		tx:       tx,
		log:      s.log,
		metrics:  s.metrics,
		parse:    s.parser,
		timeout:  s.timeout,
		response: sentence.Frame{Talker: common.PMTK_TALKER, Type: "000"},
	}
}

// SetTimeout changes the response timeout for commands issued afterwards.
func (d *Driver) SetTimeout(timeout time.Duration) {
	d.respMu.Lock()
	d.timeout = timeout
	d.respMu.Unlock()
}

func (d *Driver) Timeout() time.Duration {
	d.respMu.Lock()
	defer d.respMu.Unlock()
	return d.timeout
}

// LastResponse returns the most recent PMTK frame received.
func (d *Driver) LastResponse() sentence.Frame {
	d.respMu.Lock()
	defer d.respMu.Unlock()
	return d.response
}

// QueryConnection asks for the firmware release (PMTK605) and reports whether
// a release response (PMTK705) arrived within the timeout.
func (d *Driver) QueryConnection() bool {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	raw := sentence.MustEncode(common.PMTK_TALKER, common.PMTK_Q_RELEASE, nil)
	f, ok := d.exchange(common.PMTK_Q_RELEASE, raw, func(f sentence.Frame) bool {
		return f.Type == common.PMTK_DT_RELEASE
	})
	if ok {
		d.log.Debug().Str("release", f.Field(0)).Msg("receiver answered release query")
		d.metrics.command(common.PMTK_Q_RELEASE, resultOK)
	}
	return ok
}

// SetBaud tells the receiver to switch its serial rate.
func (d *Driver) SetBaud(rate BaudRate) bool {
	return d.Command(common.PMTK_SET_NMEA_BAUDRATE, strconv.Itoa(int(rate)))
}

// SetRate sets the fix output frequency in Hz. The interval sent is
// round(1000/hz) milliseconds, clamped to 100..10000 (10 Hz .. 0.1 Hz).
func (d *Driver) SetRate(hz float64) bool {
	return d.Command(common.PMTK_API_SET_FIX_CTL, strconv.Itoa(FixIntervalMs(hz)))
}

// FixIntervalMs converts a frequency to the PMTK300 interval. Non-positive and
// NaN frequencies give the slowest interval.
func FixIntervalMs(hz float64) int {
	if math.IsNaN(hz) || hz <= 0 {
		return common.FIX_INTERVAL_MAX_MS
	}
	ms := math.Round(1000.0 / hz)
	if ms < common.FIX_INTERVAL_MIN_MS {
		return common.FIX_INTERVAL_MIN_MS
	}
	if ms > common.FIX_INTERVAL_MAX_MS {
		return common.FIX_INTERVAL_MAX_MS
	}
	return int(ms)
}

// SetOutputs enables exactly the sentences that currently have a handler and
// disables everything else. Attach calls block until it returns.
func (d *Driver) SetOutputs() bool {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.Command(common.PMTK_API_SET_NMEA_OUTPUT, d.outputFields()...)
}

// OutputFields returns the PMTK314 fields SetOutputs would send right now.
func (d *Driver) OutputFields() []string {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.outputFields()
}

func (d *Driver) outputFields() []string {
	fields := make([]string, common.PMTK_NMEA_OUTPUT_FIELDS)
	for i := range fields {
		fields[i] = "0"
	}
	d.handlerMu.Lock()
	for k := MessageKind(0); k < kindCount; k++ {
		if d.handlers[k] != nil {
			fields[k.OutputField()] = "1"
		}
	}
	d.handlerMu.Unlock()
	return fields
}

// Command sends a PMTK packet of type typ and waits for its ACK. It reports
// true only for an ACK with status "3" (action succeeded).
func (d *Driver) Command(typ string, fields ...string) bool {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	raw, err := sentence.Encode(common.PMTK_TALKER, typ, fields)
	if err != nil {
		d.log.Error().Err(err).Str("command", typ).Msg("cannot encode command")
		return false
	}
	f, ok := d.exchange(typ, raw, ackFor(typ))
	if !ok {
		return false
	}
	return d.ackSucceeded(typ, f)
}

// WaitAck waits up to the timeout for an ACK of commandID that arrives after
// the call, and reports whether it carried status "3". A timeout is always a
// failure, whatever the response slot holds. It waits for any command in
// flight to finish first.
func (d *Driver) WaitAck(commandID string) bool {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	p := d.install(ackFor(commandID))
	defer d.uninstall(p)
	f, ok := d.await(commandID, p)
	if !ok {
		return false
	}
	return d.ackSucceeded(commandID, f)
}

func ackFor(commandID string) func(sentence.Frame) bool {
	return func(f sentence.Frame) bool {
		return f.Type == common.PMTK_ACK && f.Field(0) == commandID
	}
}

func (d *Driver) ackSucceeded(commandID string, f sentence.Frame) bool {
	if f.Field(1) == common.PMTK_ACK_SUCCEEDED {
		d.metrics.command(commandID, resultOK)
		return true
	}
	d.log.Warn().Str("command", commandID).Str("status", f.Field(1)).Str("reason", ackStatusText(f.Field(1))).Msg("receiver rejected command")
	d.metrics.command(commandID, resultRejected)
	return false
}

func ackStatusText(status string) string {
	switch status {
	case common.PMTK_ACK_INVALID:
		return "invalid packet"
	case common.PMTK_ACK_UNSUPPORTED:
		return "unsupported packet type"
	case common.PMTK_ACK_FAILED:
		return "valid packet, action failed"
	case common.PMTK_ACK_SUCCEEDED:
		return "action succeeded"
	}
	return "unknown status"
}

// exchange installs the wait before sending so a fast response cannot be missed.
func (d *Driver) exchange(commandID, raw string, match func(sentence.Frame) bool) (sentence.Frame, bool) {
	p := d.install(match)
	defer d.uninstall(p)

	d.log.Debug().Str("command", commandID).Str("frame", raw[:len(raw)-len(sentence.LineDelimiter)]).Msg("sending command")
	if err := d.tx.Send([]byte(raw)); err != nil {
		d.log.Warn().Err(err).Str("command", commandID).Msg("failed to send command")
		d.metrics.command(commandID, resultSendError)
		return sentence.Frame{}, false
	}
	return d.await(commandID, p)
}

func (d *Driver) install(match func(sentence.Frame) bool) *pendingResponse {
	p := &pendingResponse{match: match, done: make(chan struct{})}
	d.respMu.Lock()
	d.pending = p
	d.respMu.Unlock()
	return p
}

func (d *Driver) uninstall(p *pendingResponse) {
	d.respMu.Lock()
	if d.pending == p {
		d.pending = nil
	}
	d.respMu.Unlock()
}

func (d *Driver) await(commandID string, p *pendingResponse) (sentence.Frame, bool) {
	timeout := d.Timeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.frame, true
	case <-timer.C:
		d.log.Warn().Str("command", commandID).Dur("timeout", timeout).Msg("no response from receiver")
		d.metrics.command(commandID, resultTimeout)
		return sentence.Frame{}, false
	}
}

// Receive handles one line read from the receiver. Invalid lines, unknown
// sentence types and kinds without a handler are dropped.
func (d *Driver) Receive(raw string) {
	if !sentence.Validate(raw) {
		d.log.Debug().Str("line", raw).Msg("dropping invalid line")
		d.metrics.dropped(dropInvalid)
		return
	}
	f := sentence.Decode(raw)
	if f.Talker == common.PMTK_TALKER {
		d.respond(f)
		return
	}
	d.dispatch(f)
}

func (d *Driver) respond(f sentence.Frame) {
	d.metrics.response()
	d.respMu.Lock()
	defer d.respMu.Unlock()
	d.response = f
	if p := d.pending; p != nil && p.match(f) {
		p.frame = f
		close(p.done)
		d.pending = nil
	}
}

func (d *Driver) dispatch(f sentence.Frame) {
	kind, ok := KindFromType(f.Type)
	if !ok {
		d.metrics.dropped(dropUnknownType)
		return
	}

	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()

	h := d.handlers[kind]
	if h == nil {
		d.metrics.dropped(dropUnregistered)
		return
	}
	s, err := d.parse(f.Raw)
	if err != nil || !h.handle(s) {
		d.log.Debug().Err(err).Str("line", f.Raw).Msg("cannot parse sentence")
		d.metrics.dropped(dropParse)
		return
	}
	d.metrics.dispatched(kind)
}
