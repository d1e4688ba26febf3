// Package stop provides the cooperative stop signal of a run. Raising it
// never interrupts a request that is already in flight; components check
// it between dispatches and between retry attempts.
package stop

import (
	"sync"
)

// Token is a one-shot stop signal. The zero value is not usable; a nil
// *Token is valid and never reports stopped.
type Token struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a token that has not been raised
func New() *Token {
	return &Token{ch: make(chan struct{})}
}

// Stop raises the token. Calling it more than once is harmless.
func (t *Token) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.ch) })
}

// Stopped reports whether Stop has been called
func (t *Token) Stopped() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the token is raised. A nil token
// returns a nil channel, which blocks forever in a select.
func (t *Token) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.ch
}
