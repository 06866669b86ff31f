// Package broker implements a process-local publish/subscribe primitive
// keyed by string event name. It is the in-process fan-out that
// internal/router and internal/pool build on.
package broker

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives an event's data. It must not block for long and must
// not panic; Broker recovers per-handler panics so one bad subscriber
// cannot break the fan-out for the rest.
type Handler func(data any)

// Broker is a sequential, registration-order pub/sub bus.
type Broker struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *zerolog.Logger
}

// New returns an empty Broker.
func New() *Broker {
	return &Broker{handlers: make(map[string][]Handler)}
}

// SetLogger installs a logger used to report recovered handler panics.
func (b *Broker) SetLogger(l *zerolog.Logger) {
	b.mu.Lock()
	b.log = l
	b.mu.Unlock()
}

// On appends handler to the list invoked for event.
func (b *Broker) On(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Notify invokes every handler registered for event, in registration order,
// catching per-handler panics so one failing subscriber does not abort the
// fan-out to the rest.
func (b *Broker) Notify(event string, data any) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[event]...)
	log := b.log
	b.mu.RUnlock()
	for _, h := range hs {
		b.invoke(h, data, log)
	}
}

func (b *Broker) invoke(h Handler, data any, log *zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil && log != nil {
			log.Error().Interface("panic", r).Msg("broker handler panicked")
		}
	}()
	h(data)
}
