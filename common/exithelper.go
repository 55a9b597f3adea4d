/*
	Copyright (c) 2022 R. van Twisk
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	exithelper.go: Shutdown coordination for background I/O sessions
*/

package common

import (
	"sync"

	"github.com/tevino/abool/v2"
)

// ExitHelper lets a session owner stop a group of goroutines and wait for them.
// C is closed on Exit; after Exit returns the helper is re-armed and can be reused
// for the next session.
type ExitHelper struct {
	C chan struct{}
	w *sync.WaitGroup
	m sync.Mutex
	b *abool.AtomicBool
}

func NewExitHelper() *ExitHelper {
	return &ExitHelper{
		C: make(chan struct{}),
		w: new(sync.WaitGroup),
		b: abool.New(),
	}
}

// Add registers one goroutine that will call Done when it leaves.
func (a *ExitHelper) Add() {
	a.m.Lock()
	a.w.Add(1)
	a.m.Unlock()
}

func (a *ExitHelper) Done() {
	a.w.Done()
}

// Go runs f on its own goroutine, tracked by the helper.
func (a *ExitHelper) Go(f func()) {
	a.Add()
	go func() {
		defer a.Done()
		f()
	}()
}

func (a *ExitHelper) IsExit() bool {
	return a.b.IsSet()
}

// Exit closes C, waits for every registered goroutine, then re-arms the helper.
func (a *ExitHelper) Exit() {
	a.m.Lock()
	defer a.m.Unlock()
	a.b.Set()
	close(a.C)
	a.w.Wait()
	a.C = make(chan struct{})
	a.w = new(sync.WaitGroup)
	a.b.UnSet()
}
