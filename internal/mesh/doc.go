// Package mesh implements MeshUplink (C5): a WebSocket fallback bus used
// when no port in a PortEventRouter's catalog consumes a produced event. It
// resolves its configured server once, reconnects lazily on publish after
// a connection loss, and retries at a fixed interval until the socket is
// ready, built over github.com/gorilla/websocket.
package mesh
