package router

import (
	"github.com/rs/zerolog"

	"modeld/internal/broker"
	"modeld/pkg/types"
)

// Sentinel event names from spec §6's Observable events list.
const (
	EventMissingEventName = "missingEventName"
	EventToMain           = "to_main"
)

// MeshPublisher is the subset of MeshUplink the router needs: forwarding
// events that no local or remote port consumes. Kept as an interface so router tests
// never need a real websocket connection.
type MeshPublisher interface {
	Publish(eventName string, data map[string]any)
}

// noopMesh drops everything; used when no mesh uplink is configured.
type noopMesh struct{}

func (noopMesh) Publish(string, map[string]any) {}

// Router is the process-wide PortEventRouter. One Router wires every
// locally-hosted model's ports against the full model-spec catalog
// (local and remote) exactly once, at startup.
type Router struct {
	broker   *broker.Broker
	channels channelSet
	mesh     MeshPublisher
	class    Classification
	log      *zerolog.Logger
}

// New constructs a Router. br is the local pub/sub every Worker's use-case
// registry publishes domain events to; mesh may be nil, in which case
// UnhandledPort forwarding is a no-op.
func New(br *broker.Broker, mesh MeshPublisher) *Router {
	if mesh == nil {
		mesh = noopMesh{}
	}
	return &Router{broker: br, mesh: mesh}
}

// SetLogger installs a logger for wiring diagnostics (router misconfiguration
// is reported once at wiring time per spec §7, never returned as an error).
func (r *Router) SetLogger(l *zerolog.Logger) { r.log = l }

// Wire classifies every port in specs against isLocal and connects the
// broker to BroadcastChannels per spec §4.4's five wiring steps. It is not
// idempotent: a second call reuses previously opened Channels via
// channelSet's get-or-create semantics, but registers a second set of
// broker handlers and channel listeners, so matching events are then
// delivered more than once. cmd/poold calls Wire once at startup.
func (r *Router) Wire(specs []types.ModelSpec, isLocal func(model string) bool) {
	r.class = Classify(specs, isLocal)

	// Step 1: open a channel for every model appearing in Publish ∪ Subscribe.
	seen := make(map[string]bool)
	for _, p := range r.class.PublishPorts {
		if !seen[p.model] {
			r.channels.get(p.model)
			seen[p.model] = true
		}
	}
	for _, p := range r.class.SubscribePorts {
		if !seen[p.model] {
			r.channels.get(p.model)
			seen[p.model] = true
		}
	}

	// Step 2: for each PublishPort, subscribe locally to the matched event
	// and forward it to the remote model's channel, deep-copied on Post.
	for _, p := range r.class.PublishPorts {
		event := p.port.ConsumesEvent
		if event == "" {
			r.warnMisconfigured(p, "publish port has no consumesEvent")
			continue
		}
		target := r.channels.get(p.model)
		r.broker.On(event, func(data any) {
			msg, ok := toMessage(data)
			if !ok {
				return
			}
			target.Post(msg)
		})
	}

	// Step 3: for each SubscribePort, deliver inbound channel messages back
	// onto the local broker, keyed by the message's own eventName, or the
	// missingEventName sentinel when absent.
	for _, p := range r.class.SubscribePorts {
		ch := r.channels.get(p.model)
		ch.OnMessage(func(msg Message) {
			name, ok := msg.eventName()
			if !ok || name == "" {
				r.broker.Notify(EventMissingEventName, msg)
				return
			}
			r.broker.Notify(name, msg)
		})
	}

	// Step 4: for each UnhandledPort, forward its produced event to the
	// to_main sentinel, which the mesh uplink consumes.
	for _, p := range r.class.UnhandledPorts {
		event := p.port.ProducesEvent
		if event == "" {
			continue
		}
		model := p.model
		r.broker.On(event, func(data any) {
			msg, ok := toMessage(data)
			if !ok {
				msg = Message{}
			}
			msg[eventNameField] = event
			r.mesh.Publish(EventToMain, msg)
			_ = model
		})
	}

	// Step 5: every local model's own-name channel is opened and wired to
	// republish inbound deliveries onto the local broker, so sibling
	// processes (or sibling pools) can deliver directly to it.
	localModels := make(map[string]bool)
	for _, l := range r.class.LocalPorts {
		localModels[l.model] = true
	}
	for model := range localModels {
		ch := r.channels.get(model)
		ch.OnMessage(r.handleChannelEvent)
	}
}

// handleChannelEvent is the step-5 handler: messages landing on a local
// model's own channel are republished locally by eventName.
func (r *Router) handleChannelEvent(msg Message) {
	name, ok := msg.eventName()
	if !ok || name == "" {
		r.broker.Notify(EventMissingEventName, msg)
		return
	}
	r.broker.Notify(name, msg)
}

func (r *Router) warnMisconfigured(p boundPort, reason string) {
	if r.log == nil {
		return
	}
	r.log.Warn().Str("model", p.model).Str("service", p.port.Service).Str("reason", reason).
		Msg("router: port skipped at wiring time")
}

// Classification returns the most recent Wire call's port classification,
// primarily for status endpoints and tests.
func (r *Router) Classification() Classification { return r.class }

// Channel returns the named BroadcastChannel, creating it if absent. The
// router tests use it to post to, or listen on, a channel directly.
func (r *Router) Channel(name string) *Channel { return r.channels.get(name) }

func toMessage(data any) (Message, bool) {
	switch v := data.(type) {
	case Message:
		return v, true
	case map[string]any:
		return Message(v), true
	default:
		return nil, false
	}
}
