/*
	Copyright (c) 2022 R. van Twisk
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	watchdog.go: Fires when a link stops delivering data
*/

package common

import (
	"sync/atomic"
	"time"
)

// Watchdog signals on C when it has been poked at least once and then left alone
// for longer than its period. It is idle until the first Poke.
type Watchdog struct {
	t  *time.Timer
	d  time.Duration
	i  uint32 // armed, set by Poke
	tr uint32 // fired since the last Poke
	C  chan struct{}
}

func NewWatchdog(d time.Duration) *Watchdog {
	wd := &Watchdog{
		d: d,
		C: make(chan struct{}, 1),
	}
	wd.t = time.AfterFunc(d, func() {
		if atomic.LoadUint32(&wd.i) != 0 {
			atomic.StoreUint32(&wd.tr, 1)
			select {
			case wd.C <- struct{}{}:
			default:
			}
		}
	})
	return wd
}

func (w *Watchdog) IsTriggered() bool {
	return atomic.LoadUint32(&w.tr) != 0
}

// Poke restarts the period and arms the watchdog.
func (w *Watchdog) Poke() {
	atomic.StoreUint32(&w.i, 0)
	w.t.Stop()
	atomic.StoreUint32(&w.tr, 0)
	w.t.Reset(w.d)
	atomic.StoreUint32(&w.i, 1)
}

// Stop disarms the watchdog without firing.
func (w *Watchdog) Stop() {
	atomic.StoreUint32(&w.i, 0)
	w.t.Stop()
}
