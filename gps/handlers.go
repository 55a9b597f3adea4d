package gps

import (
	"github.com/adrianmo/go-nmea"
)

// handler is the optional slot stored per kind; a nil handler means none is attached.
type handler interface {
	handle(s nmea.Sentence) bool
}

type typedHandler[T nmea.Sentence] func(T)

func (h typedHandler[T]) handle(s nmea.Sentence) bool {
	m, ok := s.(T)
	if !ok {
		return false
	}
	h(m)
	return true
}

type sentenceHandler func(nmea.Sentence)

func (h sentenceHandler) handle(s nmea.Sentence) bool {
	h(s)
	return true
}

// Handlers run on the transport's session goroutine while the handler table is
// locked. They must return promptly and must not attach, detach, issue
// commands, or call SetOutputs, Running or Stop themselves.

func (d *Driver) AttachGGA(fn func(nmea.GGA)) { attach(d, KindGGA, fn) }
func (d *Driver) AttachGLL(fn func(nmea.GLL)) { attach(d, KindGLL, fn) }
func (d *Driver) AttachGSA(fn func(nmea.GSA)) { attach(d, KindGSA, fn) }
func (d *Driver) AttachGSV(fn func(nmea.GSV)) { attach(d, KindGSV, fn) }
func (d *Driver) AttachRMC(fn func(nmea.RMC)) { attach(d, KindRMC, fn) }
func (d *Driver) AttachVTG(fn func(nmea.VTG)) { attach(d, KindVTG, fn) }
func (d *Driver) AttachZDA(fn func(nmea.ZDA)) { attach(d, KindZDA, fn) }

// Attach registers fn for kind without a typed view. Passing nil detaches.
func (d *Driver) Attach(kind MessageKind, fn func(nmea.Sentence)) {
	if !kind.Valid() {
		return
	}
	var h handler
	if fn != nil {
		h = sentenceHandler(fn)
	}
	d.setHandler(kind, h)
}

// Detach removes whatever handler kind has.
func (d *Driver) Detach(kind MessageKind) {
	if !kind.Valid() {
		return
	}
	d.setHandler(kind, nil)
}

// Attached lists the kinds that currently have a handler.
func (d *Driver) Attached() []MessageKind {
	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()
	var out []MessageKind
	for k := MessageKind(0); k < kindCount; k++ {
		if d.handlers[k] != nil {
			out = append(out, k)
		}
	}
	return out
}

func attach[T nmea.Sentence](d *Driver, kind MessageKind, fn func(T)) {
	var h handler
	if fn != nil {
		h = typedHandler[T](fn)
	}
	d.setHandler(kind, h)
}

func (d *Driver) setHandler(kind MessageKind, h handler) {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	d.handlerMu.Lock()
	d.handlers[kind] = h
	d.handlerMu.Unlock()
}
