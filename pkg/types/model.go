package types

// PortDirection is the direction of a declared model port.
type PortDirection string

const (
	PortInbound  PortDirection = "inbound"
	PortOutbound PortDirection = "outbound"
)

// Port declares a single inbound/outbound event interface on a model.
// Producer and consumer ports are matched by string equality of event name
// (see internal/router).
type Port struct {
	// Service is a human label for the port, e.g. "orders.created".
	Service string `json:"service" example:"orders.created"`
	// Type is the port direction.
	Type PortDirection `json:"type" example:"outbound"`
	// ConsumesEvent is set for inbound ports; empty otherwise.
	ConsumesEvent string `json:"consumes_event,omitempty" example:"orderCreated"`
	// ProducesEvent is set for outbound ports; empty otherwise.
	ProducesEvent string `json:"produces_event,omitempty" example:"orderCreated"`
}

// ModelSpec is a discoverable model definition: enough to stand up a pool
// and wire its ports into the router.
type ModelSpec struct {
	// ID is the stable model identifier; pools are keyed by upper(ID).
	ID string `json:"id" example:"ORDER"`
	// File is the path to the file backing the sandboxed compute unit this
	// pool's workers load. Opaque to the pool/router core.
	File string `json:"file" example:"/var/lib/poold/models/order.wasm"`
	// WorkerData is opaque configuration handed to every worker at startup.
	WorkerData map[string]any `json:"worker_data,omitempty"`
	// Min is the minimum number of warm Threads a pool keeps.
	Min int `json:"min,omitempty" example:"1"`
	// Max is the maximum number of Threads a pool may grow to.
	Max int `json:"max,omitempty" example:"2"`
	// QueueTolerance is the queueRate percentage above which the pool grows.
	QueueTolerance int `json:"queue_tolerance,omitempty" example:"25"`
	// Preload starts Min Threads eagerly instead of lazily on first submit.
	Preload bool `json:"preload,omitempty"`
	// Ports declares this model's event interfaces.
	Ports []Port `json:"ports,omitempty"`
}
