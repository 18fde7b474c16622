package engine

import (
	"sync/atomic"
)

// Holder hands the current engine to readers and swaps in a replacement
// atomically on reload. A rebuild either fully replaces the engine or the
// old one keeps serving; readers never observe a partially built index.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder creates a holder serving the given engine.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	return h
}

// Get returns the engine currently serving queries.
func (h *Holder) Get() *Engine {
	return h.current.Load()
}

// Swap replaces the serving engine with a freshly built one.
func (h *Holder) Swap(e *Engine) {
	h.current.Store(e)
}
