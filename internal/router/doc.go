// Package router implements the PortEventRouter (C4): at wiring time it
// classifies every declared model port as local, remote, publish,
// subscribe, or unhandled, then connects the local broker to named
// BroadcastChannels and, for produced events that no local or remote port
// consumes, to the mesh uplink sentinel event.
package router
