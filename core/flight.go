package core

import "sync"

// Flight guards a component against overlapping mutations: while one is in flight,
// Begin fails with ErrBusy instead of queueing a second request.
type Flight struct {
	mu   sync.Mutex
	busy bool
}

func (f *Flight) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	f.busy = true
	return nil
}

func (f *Flight) End() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *Flight) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}
