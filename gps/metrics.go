package gps

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "mt3339"

// Metrics counts traffic through a driver and its transport. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	SentencesDispatched *prometheus.CounterVec
	FramesDropped       *prometheus.CounterVec
	Responses           prometheus.Counter
	Commands            *prometheus.CounterVec
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SentencesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sentences_dispatched_total",
			Help:      "Navigation sentences delivered to a handler.",
		}, []string{"kind"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_dropped_total",
			Help:      "Received lines that were not delivered anywhere.",
		}, []string{"reason"}),
		Responses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "responses_total",
			Help:      "PMTK frames received on the control channel.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands issued, by packet type and outcome.",
		}, []string{"command", "result"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "serial_read_bytes_total",
			Help:      "Bytes read from the serial link.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "serial_written_bytes_total",
			Help:      "Bytes written to the serial link.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SentencesDispatched, m.FramesDropped, m.Responses, m.Commands, m.BytesRead, m.BytesWritten)
	}
	return m
}

const (
	dropInvalid      = "invalid"
	dropUnknownType  = "unknown_type"
	dropUnregistered = "unregistered"
	dropParse        = "parse"

	resultOK        = "ok"
	resultRejected  = "rejected"
	resultTimeout   = "timeout"
	resultSendError = "send_error"
)

func (m *Metrics) dispatched(k MessageKind) {
	if m == nil {
		return
	}
	m.SentencesDispatched.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) dropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) response() {
	if m == nil {
		return
	}
	m.Responses.Inc()
}

func (m *Metrics) command(cmd, result string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(cmd, result).Inc()
}

func (m *Metrics) read(n int) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

func (m *Metrics) written(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}
