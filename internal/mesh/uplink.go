package mesh

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handshake is the literal first frame sent after a successful dial, per
// spec §6's mesh uplink wire format.
const Handshake = "webswitch"

const defaultRetryInterval = 1 * time.Second

// Event is a mesh wire frame: a JSON object carrying at least eventName,
// the same shape a BroadcastChannel message uses.
type Event map[string]any

// Dialer abstracts websocket.DefaultDialer so tests can substitute a fake
// without a real network connection.
type Dialer interface {
	Dial(urlStr string, header map[string][]string) (Conn, error)
}

// Conn is the subset of *websocket.Conn the uplink needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(urlStr string, header map[string][]string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(urlStr, header)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Uplink is the process-wide MeshUplink. It caches its resolved server
// address, maintains at most one connection, and reconnects on demand.
type Uplink struct {
	server        string // e.g. "server.webswitch.dev" or "host:port"
	resolvedOnce  sync.Once
	resolvedURL   string
	resolveErr    error
	dialer        Dialer
	retryInterval time.Duration

	mu   sync.Mutex
	conn Conn

	onMessage func(Event)
	reconnect func() // observability hook, e.g. a metrics counter

	log *zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Option configures an Uplink at construction time.
type Option func(*Uplink)

// WithDialer overrides the default gorilla/websocket dialer; used by tests.
func WithDialer(d Dialer) Option { return func(u *Uplink) { u.dialer = d } }

// WithRetryInterval overrides the default 1s publish retry interval.
func WithRetryInterval(d time.Duration) Option {
	return func(u *Uplink) {
		if d > 0 {
			u.retryInterval = d
		}
	}
}

// WithReconnectObserver installs a callback invoked every time a new
// connection is dialed (used to feed a Prometheus reconnects counter).
func WithReconnectObserver(cb func()) Option { return func(u *Uplink) { u.reconnect = cb } }

// New constructs an Uplink for server, an address or bare hostname (the
// ws:// scheme and default port are applied if server carries neither).
func New(server string, opts ...Option) *Uplink {
	u := &Uplink{
		server:        server,
		dialer:        gorillaDialer{},
		retryInterval: defaultRetryInterval,
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SetLogger installs a logger for connection diagnostics; mesh errors are
// logged only, never propagated to callers, per spec §7.
func (u *Uplink) SetLogger(l *zerolog.Logger) { u.log = l }

// OnMessage installs the single uplink callback. Incoming JSON messages
// with a recognizable eventName are handed to cb.
func (u *Uplink) OnMessage(cb func(Event)) { u.onMessage = cb }

// resolvedAddr resolves the configured server exactly once and caches it.
func (u *Uplink) resolvedAddr() (string, error) {
	u.resolvedOnce.Do(func() {
		if _, err := url.Parse(u.server); err != nil {
			u.resolveErr = err
			return
		}
		addr := u.server
		if !hasScheme(addr) {
			addr = "ws://" + addr
		}
		u.resolvedURL = addr
	})
	return u.resolvedURL, u.resolveErr
}

func hasScheme(s string) bool {
	i := 0
	for i < len(s) && s[i] != ':' && s[i] != '/' {
		i++
	}
	return i < len(s) && i+2 < len(s) && s[i:i+3] == "://"
}

// Publish sends data as a JSON frame, reconnecting and retrying at a fixed
// interval until the socket is ready. The frame's eventName is the one data
// already carries, or eventName when data has none. Non-blocking: retrying
// happens on a background goroutine; there is no durable buffering, so a
// process restart loses any event still waiting on a dead connection.
func (u *Uplink) Publish(eventName string, data map[string]any) {
	frame := Event{}
	for k, v := range data {
		frame[k] = v
	}
	if _, ok := frame["eventName"]; !ok {
		frame["eventName"] = eventName
	}
	go u.publishWithRetry(frame)
}

func (u *Uplink) publishWithRetry(frame Event) {
	b, err := json.Marshal(frame)
	if err != nil {
		u.logf().Err(err).Msg("mesh: failed to encode event")
		return
	}
	ticker := time.NewTicker(u.retryInterval)
	defer ticker.Stop()
	for {
		conn, err := u.ensureConn()
		if err == nil {
			u.mu.Lock()
			werr := conn.WriteMessage(websocket.TextMessage, b)
			u.mu.Unlock()
			if werr == nil {
				return
			}
			u.dropConn(conn)
			u.logf().Err(werr).Msg("mesh: publish write failed, will retry")
		} else {
			u.logf().Err(err).Msg("mesh: connect failed, will retry")
		}
		select {
		case <-ticker.C:
		case <-u.closed:
			return
		}
	}
}

// ensureConn returns the live connection, dialing lazily if none exists.
func (u *Uplink) ensureConn() (Conn, error) {
	u.mu.Lock()
	if u.conn != nil {
		c := u.conn
		u.mu.Unlock()
		return c, nil
	}
	u.mu.Unlock()

	addr, err := u.resolvedAddr()
	if err != nil {
		return nil, err
	}
	conn, err := u.dialer.Dial(addr, nil)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(Handshake)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()

	if u.reconnect != nil {
		u.reconnect()
	}
	go u.readLoop(conn)
	return conn, nil
}

func (u *Uplink) dropConn(c Conn) {
	u.mu.Lock()
	if u.conn == c {
		u.conn = nil
	}
	u.mu.Unlock()
	_ = c.Close()
}

func (u *Uplink) readLoop(conn Conn) {
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			u.dropConn(conn)
			return
		}
		if u.onMessage == nil {
			continue
		}
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			continue
		}
		if _, ok := ev["eventName"]; !ok {
			continue
		}
		u.onMessage(ev)
	}
}

// Close stops any in-flight retry loops and drops the live connection.
func (u *Uplink) Close() error {
	u.closeOnce.Do(func() { close(u.closed) })
	u.mu.Lock()
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (u *Uplink) logf() *zerolog.Event {
	if u.log == nil {
		nop := zerolog.Nop()
		return nop.Error()
	}
	return u.log.Error()
}
