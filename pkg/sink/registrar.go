package sink

import "sync"

// Registrar is a host-provided lifecycle registration point. The host
// guarantees that registered callbacks run exactly once, at the end of
// the unit of work, after its main logic has finished.
type Registrar interface {
	OnComplete(fn func())
}

// CompletionHook is an in-process Registrar. Hosts call Complete once
// when their unit of work ends; callbacks run synchronously in
// registration order. Further Complete calls are no-ops.
type CompletionHook struct {
	mu   sync.Mutex
	done bool
	fns  []func()
}

// NewCompletionHook creates an empty hook.
func NewCompletionHook() *CompletionHook {
	return &CompletionHook{}
}

func (h *CompletionHook) OnComplete(fn func()) {
	h.mu.Lock()
	if h.done {
		// Too late to wait for completion; honor the exactly-once
		// guarantee by running immediately.
		h.mu.Unlock()
		fn()
		return
	}
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// Complete fires all registered callbacks. Only the first call has any
// effect.
func (h *CompletionHook) Complete() {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
