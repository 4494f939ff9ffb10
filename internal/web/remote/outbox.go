// Package remote implements the coordinator's collaborators for a browser session.
// Every widget call becomes a Command pushed to the session's SSE listeners.
package remote

import (
	"sync"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
)

// Command is one widget instruction for the browser.
type Command struct {
	Seq  uint64 `json:"seq"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Listener receives every command emitted while it is attached, in order.
// A listener holding more than constants.EventQueueLimit undelivered commands is
// detached and its Done channel closed, commands are never skipped.
type Listener struct {
	ready chan struct{}
	done  chan struct{}

	mu         sync.Mutex
	queue      []Command
	overflowed bool
	closeOnce  sync.Once
}

func newListener() *Listener {
	return &Listener{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Ready receives a value whenever commands were queued since the last Next.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// Done is closed when the listener is detached.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Next returns the queued commands and empties the queue.
func (l *Listener) Next() []Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	cmds := l.queue
	l.queue = nil
	return cmds
}

// Overflowed reports whether the listener was detached for falling behind.
func (l *Listener) Overflowed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.overflowed
}

// push queues cmd, false when the queue is full.
func (l *Listener) push(cmd Command) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) >= constants.EventQueueLimit {
		l.overflowed = true
		return false
	}
	l.queue = append(l.queue, cmd)
	select {
	case l.ready <- struct{}{}:
	default:
	}
	return true
}

func (l *Listener) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Outbox fans commands out to listeners. Commands emitted while nobody listens are
// discarded, a new listener starts from a redraw of the current view.
type Outbox struct {
	mu        sync.Mutex
	listeners []*Listener
	seq       uint64
	closed    bool
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// AddListener attaches a listener. After Close it returns an already detached one.
func (o *Outbox) AddListener() *Listener {
	o.mu.Lock()
	defer o.mu.Unlock()
	l := newListener()
	if o.closed {
		l.close()
		return l
	}
	o.listeners = append(o.listeners, l)
	return l
}

// RemoveListener detaches l.
func (o *Outbox) RemoveListener(l *Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.detach(l)
}

func (o *Outbox) detach(l *Listener) {
	for i, listener := range o.listeners {
		if listener == l {
			o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
			break
		}
	}
	l.close()
}

// Emit sends a command to all listeners.
func (o *Outbox) Emit(typ string, data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.seq++
	cmd := Command{Seq: o.seq, Type: typ, Data: data}

	for _, listener := range append([]*Listener(nil), o.listeners...) {
		if !listener.push(cmd) {
			o.detach(listener)
		}
	}
}

// Listeners returns the number of attached listeners.
func (o *Outbox) Listeners() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// Close detaches every listener. Later emits are dropped.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for _, listener := range o.listeners {
		listener.close()
	}
	o.listeners = nil
}
