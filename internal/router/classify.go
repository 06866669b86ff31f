package router

import "modeld/pkg/types"

// boundPort pairs a declared port with the model that owns it; the model
// name travels with the port everywhere the router reasons about wiring.
type boundPort struct {
	model string
	port  types.Port
}

// Classification is the result of inspecting every registered model spec,
// per spec §4.4.
type Classification struct {
	LocalPorts     []boundPort
	RemotePorts    []boundPort
	PublishPorts   []boundPort // subset of RemotePorts
	SubscribePorts []boundPort // subset of RemotePorts
	UnhandledPorts []boundPort // subset of LocalPorts
}

// Classify partitions every port of every spec into the five sets §4.4
// names. isLocal reports whether a model name is hosted by this process.
func Classify(specs []types.ModelSpec, isLocal func(model string) bool) Classification {
	var c Classification

	for _, spec := range specs {
		for _, p := range spec.Ports {
			bp := boundPort{model: spec.ID, port: p}
			if isLocal(spec.ID) {
				c.LocalPorts = append(c.LocalPorts, bp)
			} else {
				c.RemotePorts = append(c.RemotePorts, bp)
			}
		}
	}

	for _, r := range c.RemotePorts {
		if r.port.ConsumesEvent == "" {
			continue
		}
		if anyLocalProduces(c.LocalPorts, r.port.ConsumesEvent) {
			c.PublishPorts = append(c.PublishPorts, r)
		}
	}
	for _, r := range c.RemotePorts {
		if r.port.ProducesEvent == "" {
			continue
		}
		if anyLocalConsumes(c.LocalPorts, r.port.ProducesEvent) {
			c.SubscribePorts = append(c.SubscribePorts, r)
		}
	}
	for _, l := range c.LocalPorts {
		if l.port.ProducesEvent == "" {
			continue
		}
		if !anyRemoteOrLocalConsumes(c, l.port.ProducesEvent, l.model) {
			c.UnhandledPorts = append(c.UnhandledPorts, l)
		}
	}
	return c
}

func anyLocalProduces(locals []boundPort, event string) bool {
	for _, l := range locals {
		if l.port.ProducesEvent == event {
			return true
		}
	}
	return false
}

func anyLocalConsumes(locals []boundPort, event string) bool {
	for _, l := range locals {
		if l.port.ConsumesEvent == event {
			return true
		}
	}
	return false
}

// anyRemoteOrLocalConsumes reports whether any local or remote port
// consumes event. A local port is "unhandled" only when nothing anywhere
// matches its produced event; per the open question resolved in the
// design notes, all matching local producers wire to all matching local
// consumers. producerModel is not consulted, so a port of the producer's
// own model (or the producing port itself) that consumes event also counts.
func anyRemoteOrLocalConsumes(c Classification, event, producerModel string) bool {
	for _, l := range c.LocalPorts {
		if l.port.ConsumesEvent == event {
			return true
		}
	}
	for _, r := range c.RemotePorts {
		if r.port.ConsumesEvent == event {
			return true
		}
	}
	_ = producerModel
	return false
}
