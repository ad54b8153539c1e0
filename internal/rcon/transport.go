// Package rcon maintains a persistent WebRCON bridge to the Rust game server.
//
// The game server speaks JSON frames over a single WebSocket connection. All
// concurrent callers share one socket; requests and responses are matched by
// correlation id, never by arrival order. The transport reconnects on its own
// after an unexpected drop and stays down only after an explicit Close.
package rcon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

const (
	// DefaultCallTimeout bounds how long one command waits for its response.
	DefaultCallTimeout = 10 * time.Second
	// DefaultDialTimeout bounds the WebSocket handshake.
	DefaultDialTimeout = 10 * time.Second
	// DefaultReconnectDelay is the fixed pause between reconnect attempts.
	//
	// Deliberately not exponential: the peer is an operator-controlled game
	// server whose restarts are short and bounded.
	DefaultReconnectDelay = 5 * time.Second

	// callerTag identifies this process in outgoing frames.
	callerTag = "DragonLostWeb"
)

var (
	// ErrNotConfigured indicates no RCON password is set.
	ErrNotConfigured = errors.New("rcon is not configured: password is not set")
	// ErrCallTimeout indicates no response arrived within the call budget.
	ErrCallTimeout = errors.New("rcon command timed out")
	// ErrConnectionLost resolves calls that were in flight when the socket dropped.
	ErrConnectionLost = errors.New("rcon connection lost")
	// ErrClosed resolves calls rejected because Close was requested.
	ErrClosed = errors.New("rcon connection closed")
)

// ConnState is the transport's connection lifecycle state.
type ConnState int

const (
	// StateDisconnected means no socket exists and no handshake is running.
	StateDisconnected ConnState = iota
	// StateConnecting means a handshake is in progress.
	StateConnecting
	// StateConnected means the socket is established and usable.
	StateConnected
)

// String returns the lowercase state name for logs.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// requestFrame is one outgoing WebRCON command.
type requestFrame struct {
	Identifier int64  `json:"Identifier"`
	Message    string `json:"Message"`
	Name       string `json:"Name"`
}

// responseFrame is one incoming WebRCON message.
type responseFrame struct {
	Identifier int64  `json:"Identifier"`
	Message    string `json:"Message"`
	Type       string `json:"Type"`
}

// Config holds transport connection settings.
type Config struct {
	Host     string
	Port     int
	Password string

	// Zero values fall back to the package defaults.
	CallTimeout    time.Duration
	DialTimeout    time.Duration
	ReconnectDelay time.Duration
}

type callResult struct {
	message string
	err     error
}

// Transport owns the single WebSocket connection to the game server and
// multiplexes concurrent request/response pairs over it.
//
// The zero value is not usable; construct with NewTransport and stop with
// Close. One reader goroutine per connection delivers inbound frames to the
// pending-call registry; registry and state are guarded by mu.
type Transport struct {
	cfg Config

	mu        sync.Mutex
	state     ConnState
	conn      *websocket.Conn
	nextID    int64
	pending   map[int64]chan callResult
	connWait  []chan error
	reconnect *time.Timer
	closed    bool

	// writeMu serializes frame writes; x/net/websocket does not guarantee
	// atomicity for concurrent senders.
	writeMu sync.Mutex
}

// NewTransport creates a stopped transport for the given game server.
func NewTransport(cfg Config) *Transport {
	return &Transport{
		cfg:     cfg,
		pending: make(map[int64]chan callResult),
	}
}

// Configured reports whether a password is set. An unconfigured transport
// fails every Connect and Call with ErrNotConfigured without touching the
// network.
func (t *Transport) Configured() bool {
	return t.cfg.Password != ""
}

// State returns the current connection state.
func (t *Transport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect establishes the WebSocket connection if one is not already up.
//
// A call that finds a handshake already in progress waits for that handshake
// and shares its outcome. Connect after Close restarts the transport.
func (t *Transport) Connect(ctx context.Context) error {
	return t.connect(ctx, true)
}

// connect runs one handshake. restart distinguishes explicit callers, which
// may revive a closed transport, from the reconnect supervisor, which must
// never override Close.
func (t *Transport) connect(ctx context.Context, restart bool) error {
	if !t.Configured() {
		return ErrNotConfigured
	}

	t.mu.Lock()
	if t.closed && !restart {
		t.mu.Unlock()
		return ErrClosed
	}
	switch t.state {
	case StateConnected:
		t.mu.Unlock()
		return nil
	case StateConnecting:
		ch := make(chan error, 1)
		t.connWait = append(t.connWait, ch)
		t.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.state = StateConnecting
	if restart {
		t.closed = false
	}
	t.mu.Unlock()

	conn, err := t.dial()

	t.mu.Lock()
	if t.closed {
		t.state = StateDisconnected
		waiters := t.takeWaitersLocked()
		t.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		notifyWaiters(waiters, ErrClosed)
		return ErrClosed
	}
	if err != nil {
		t.state = StateDisconnected
		waiters := t.takeWaitersLocked()
		t.mu.Unlock()
		notifyWaiters(waiters, err)
		return err
	}
	t.conn = conn
	t.state = StateConnected
	waiters := t.takeWaitersLocked()
	t.mu.Unlock()

	log.Printf("rcon: connected to %s", net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port)))
	go t.readLoop(conn)
	notifyWaiters(waiters, nil)
	return nil
}

// Call sends one command and waits for its correlated response.
//
// The command is abandoned locally on timeout or context cancellation; a late
// response for an abandoned call arrives unmatched and is dropped by the
// reader. Transport never retries a call.
func (t *Transport) Call(ctx context.Context, command string) (string, error) {
	if err := t.Connect(ctx); err != nil {
		return "", err
	}

	t.mu.Lock()
	if t.state != StateConnected || t.conn == nil {
		t.mu.Unlock()
		return "", ErrConnectionLost
	}
	t.nextID++
	id := t.nextID
	ch := make(chan callResult, 1)
	t.pending[id] = ch
	conn := t.conn
	t.mu.Unlock()

	payload, err := json.Marshal(requestFrame{
		Identifier: id,
		Message:    command,
		Name:       callerTag,
	})
	if err != nil {
		t.abandon(id)
		return "", fmt.Errorf("marshal rcon frame: %w", err)
	}

	t.writeMu.Lock()
	err = websocket.Message.Send(conn, string(payload))
	t.writeMu.Unlock()
	if err != nil {
		t.abandon(id)
		return "", fmt.Errorf("send rcon command %q: %w", command, err)
	}

	timer := time.NewTimer(t.callTimeout())
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.message, res.err
	case <-timer.C:
		t.abandon(id)
		return "", fmt.Errorf("%w: %q", ErrCallTimeout, command)
	case <-ctx.Done():
		t.abandon(id)
		return "", ctx.Err()
	}
}

// Close tears the connection down and suppresses automatic reconnection.
//
// Every pending call resolves with ErrClosed. Close is the only transition
// into Disconnected that does not arm the reconnect timer.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	conn := t.conn
	t.conn = nil
	t.state = StateDisconnected
	flushed := t.takePendingLocked()
	waiters := t.takeWaitersLocked()
	t.mu.Unlock()

	for _, ch := range flushed {
		ch <- callResult{err: ErrClosed}
	}
	notifyWaiters(waiters, ErrClosed)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *Transport) dial() (*websocket.Conn, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	url := "ws://" + addr + "/" + t.cfg.Password
	wsCfg, err := websocket.NewConfig(url, "http://"+addr)
	if err != nil {
		return nil, fmt.Errorf("rcon dial config: %w", err)
	}

	timeout := t.dialTimeout()
	raw, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("rcon dial %s: %w", addr, err)
	}
	// Bound the handshake, then clear the deadline for the call path which
	// carries its own timeouts.
	_ = raw.SetDeadline(time.Now().Add(timeout))
	conn, err := websocket.NewClient(wsCfg, raw)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("rcon handshake %s: %w", addr, err)
	}
	_ = raw.SetDeadline(time.Time{})
	return conn, nil
}

// readLoop drains inbound messages for one connection until it fails.
func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			t.handleDisconnect(conn, err)
			return
		}
		var frame responseFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("rcon: dropping unparseable frame: %v", err)
			continue
		}
		t.dispatch(frame)
	}
}

// dispatch resolves the pending call matching the frame's correlation id.
// The entry is removed under the lock before resolving, so a call resolves
// at most once even if a duplicate frame arrives.
func (t *Transport) dispatch(frame responseFrame) {
	t.mu.Lock()
	ch, ok := t.pending[frame.Identifier]
	if ok {
		delete(t.pending, frame.Identifier)
	}
	t.mu.Unlock()
	if !ok {
		log.Printf("rcon: dropping unmatched frame id=%d type=%s", frame.Identifier, frame.Type)
		return
	}
	ch <- callResult{message: frame.Message}
}

func (t *Transport) handleDisconnect(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn != conn {
		// Stale reader for a connection already replaced or closed.
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = nil
	t.state = StateDisconnected
	flushed := t.takePendingLocked()
	shouldReconnect := !t.closed
	if shouldReconnect {
		t.scheduleReconnectLocked()
	}
	t.mu.Unlock()

	_ = conn.Close()
	for _, ch := range flushed {
		ch <- callResult{err: ErrConnectionLost}
	}
	if shouldReconnect {
		log.Printf("rcon: connection lost (%v), reconnecting in %s", cause, t.reconnectDelay())
	}
}

// scheduleReconnectLocked arms the reconnect timer. At most one timer is
// pending at any time; Close cancels it.
func (t *Transport) scheduleReconnectLocked() {
	if t.reconnect != nil || t.closed {
		return
	}
	t.reconnect = time.AfterFunc(t.reconnectDelay(), t.reconnectAttempt)
}

func (t *Transport) reconnectAttempt() {
	t.mu.Lock()
	t.reconnect = nil
	if t.closed || t.state == StateConnected {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// If a caller-initiated handshake is already in flight, connect joins it
	// as a waiter and shares its outcome, so a failed handshake still rearms
	// the timer below.
	ctx, cancel := context.WithTimeout(context.Background(), t.dialTimeout())
	err := t.connect(ctx, false)
	cancel()
	if err == nil || errors.Is(err, ErrClosed) {
		return
	}
	log.Printf("rcon: reconnect failed: %v", err)
	t.mu.Lock()
	if !t.closed && t.state == StateDisconnected {
		t.scheduleReconnectLocked()
	}
	t.mu.Unlock()
}

func (t *Transport) abandon(id int64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *Transport) takePendingLocked() []chan callResult {
	flushed := make([]chan callResult, 0, len(t.pending))
	for id, ch := range t.pending {
		flushed = append(flushed, ch)
		delete(t.pending, id)
	}
	return flushed
}

func (t *Transport) takeWaitersLocked() []chan error {
	waiters := t.connWait
	t.connWait = nil
	return waiters
}

func notifyWaiters(waiters []chan error, err error) {
	for _, ch := range waiters {
		ch <- err
	}
}

func (t *Transport) callTimeout() time.Duration {
	if t.cfg.CallTimeout > 0 {
		return t.cfg.CallTimeout
	}
	return DefaultCallTimeout
}

func (t *Transport) dialTimeout() time.Duration {
	if t.cfg.DialTimeout > 0 {
		return t.cfg.DialTimeout
	}
	return DefaultDialTimeout
}

func (t *Transport) reconnectDelay() time.Duration {
	if t.cfg.ReconnectDelay > 0 {
		return t.cfg.ReconnectDelay
	}
	return DefaultReconnectDelay
}

func (t *Transport) inFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Transport) reconnectPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconnect != nil
}
