package router

import "sync"

// Message is the wire shape crossing a BroadcastChannel: a JSON object
// carrying at least eventName (spec §6's broadcast channel wire format).
type Message map[string]any

const eventNameField = "eventName"

func (m Message) eventName() (string, bool) {
	v, ok := m[eventNameField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Channel is a named multi-writer/multi-reader bus keyed by model name. A
// pool posts to a remote model's Channel to deliver; the remote process's
// own Channel (keyed by its own name) is where it listens for inbound
// deliveries.
type Channel struct {
	name string

	mu        sync.Mutex
	listeners []func(Message)
}

func newChannel(name string) *Channel {
	return &Channel{name: name}
}

// Name returns the model name this channel is keyed by.
func (c *Channel) Name() string { return c.name }

// OnMessage registers a listener invoked for every Post, in registration
// order. Multiple listeners may be attached; all are multi-writer-safe.
func (c *Channel) OnMessage(cb func(Message)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, cb)
	c.mu.Unlock()
}

// Post delivers msg to every registered listener, deep-copying it first so
// no mutable reference is shared across the channel boundary.
func (c *Channel) Post(msg Message) {
	cloned, err := deepCopy(msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	listeners := make([]func(Message), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, cb := range listeners {
		cb(cloned)
	}
}

// channelSet is a sync.Map of named Channels, created lazily on first use.
type channelSet struct {
	m sync.Map // string -> *Channel
}

func (s *channelSet) get(name string) *Channel {
	if v, ok := s.m.Load(name); ok {
		return v.(*Channel)
	}
	v, _ := s.m.LoadOrStore(name, newChannel(name))
	return v.(*Channel)
}
