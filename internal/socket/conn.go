package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/acrophobia/acroclient/internal/protocol"
)

// Config holds connection settings for the event channel.
type Config struct {
	URL            string
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultConfig returns connection settings that work against the hosted
// backend.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		ReconnectMin:   time.Second,
		ReconnectMax:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 64,
	}
}

// State describes the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	// StateReconnected is reported after an automatic redial succeeds, so the
	// session layer can re-run its identity check before room participation
	// resumes.
	StateReconnected
)

// Handler receives every decoded inbound event.
type Handler func(protocol.Event)

// StateHandler observes connection state transitions.
type StateHandler func(State)

var (
	// ErrNotConnected is returned when emitting on a closed channel.
	ErrNotConnected = errors.New("event channel is not connected")
	// ErrSendBufferFull is returned when the outbound buffer is saturated.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is the single shared handle to the real-time event channel. It owns
// the websocket, its read/write pumps and the redial loop. Event handlers are
// registered through Subscribe and removed through the returned Subscription;
// the registry guarantees an unsubscribed handler never fires again, so
// re-subscribing cannot double-apply server events.
type Conn struct {
	config Config
	clock  clockwork.Clock

	mu        sync.Mutex
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	token     string
	connected bool
	shutdown  bool

	handlerMu sync.RWMutex
	handlers  map[uuid.UUID]Handler
	stateFn   StateHandler
}

// NewConn creates an unconnected event-channel handle.
func NewConn(config Config) *Conn {
	return NewConnWithClock(config, clockwork.NewRealClock())
}

// NewConnWithClock creates a Conn with an injected clock, for tests.
func NewConnWithClock(config Config, clock clockwork.Clock) *Conn {
	return &Conn{
		config:   config,
		clock:    clock,
		send:     make(chan []byte, config.SendBufferSize),
		handlers: make(map[uuid.UUID]Handler),
	}
}

// OnStateChange registers the single state observer. The session manager owns
// this hook; it is not a general-purpose event bus.
func (c *Conn) OnStateChange(fn StateHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.stateFn = fn
}

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription struct {
	id   uuid.UUID
	conn *Conn
}

// Subscribe registers a handler for all inbound events.
func (c *Conn) Subscribe(h Handler) *Subscription {
	id := uuid.New()
	c.handlerMu.Lock()
	c.handlers[id] = h
	c.handlerMu.Unlock()

	log.Debug().Str("subscription_id", id.String()).Msg("event handler registered")
	return &Subscription{id: id, conn: c}
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.handlerMu.Lock()
	delete(s.conn.handlers, s.id)
	s.conn.handlerMu.Unlock()

	log.Debug().Str("subscription_id", s.id.String()).Msg("event handler removed")
}

// Connect dials the event channel with the given credential attached. At most
// one active connection exists per Conn; connecting while connected is a
// no-op.
func (c *Conn) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.token = token
	c.shutdown = false
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return err
	}
	c.notify(StateConnected)
	return nil
}

// Disconnect closes the channel and stops any redial loop. Idempotent.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	c.shutdown = true
	ws := c.ws
	wasConnected := c.connected
	c.ws = nil
	c.connected = false
	c.mu.Unlock()

	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(c.config.WriteTimeout))
		ws.Close()
	}

	// Frames queued just before the disconnect belong to the identity that
	// queued them; they must not flush onto a future connection.
drain:
	for {
		select {
		case <-c.send:
		default:
			break drain
		}
	}

	if wasConnected {
		c.notify(StateDisconnected)
	}
}

// Connected reports whether the channel is currently up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Emit sends a command to the server.
func (c *Conn) Emit(cmd protocol.Command) error {
	frame, err := cmd.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	select {
	case c.send <- frame:
		return nil
	default:
		log.Warn().Str("command", string(cmd.Type)).Msg("send buffer full, command dropped")
		return ErrSendBufferFull
	}
}

func (c *Conn) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.DialTimeout}

	header := http.Header{}
	c.mu.Lock()
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	ws, _, err := dialer.DialContext(ctx, c.config.URL, header)
	if err != nil {
		return fmt.Errorf("failed to dial event channel: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.ws = ws
	c.done = done
	c.connected = true
	c.mu.Unlock()

	go c.writePump(ws, done)
	go c.readPump(ws, done)

	log.Info().Str("url", c.config.URL).Msg("event channel connected")
	return nil
}

// readPump reads frames until the connection dies, decoding each into an
// event envelope and fanning it out to the registered handlers.
func (c *Conn) readPump(ws *websocket.Conn, done chan struct{}) {
	defer c.handleDisconnect(ws, done)

	ws.SetReadLimit(c.config.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
		return nil
	})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected event channel close")
			}
			return
		}

		ev, err := protocol.DecodeEvent(frame)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed event frame")
			continue
		}
		c.dispatch(ev)
	}
}

// writePump owns all writes to the wire for one connection.
func (c *Conn) writePump(ws *websocket.Conn, done chan struct{}) {
	ticker := c.clock.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case frame := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Msg("failed to write command frame")
				return
			}
		case <-ticker.Chan():
			ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Conn) handleDisconnect(ws *websocket.Conn, done chan struct{}) {
	close(done)
	ws.Close()

	c.mu.Lock()
	if c.ws == ws {
		c.ws = nil
		c.connected = false
	}
	shutdown := c.shutdown
	c.mu.Unlock()

	if shutdown {
		return
	}

	c.notify(StateDisconnected)
	go c.reconnectLoop()
}

// reconnectLoop redials with exponential backoff until it succeeds or the
// connection is shut down.
func (c *Conn) reconnectLoop() {
	backoff := c.config.ReconnectMin
	for {
		<-c.clock.After(backoff)

		c.mu.Lock()
		if c.shutdown || c.connected {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.dial(context.Background()); err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("redial failed")
			backoff *= 2
			if backoff > c.config.ReconnectMax {
				backoff = c.config.ReconnectMax
			}
			continue
		}

		log.Info().Msg("event channel reconnected")
		c.notify(StateReconnected)
		return
	}
}

func (c *Conn) dispatch(ev protocol.Event) {
	c.handlerMu.RLock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *Conn) notify(state State) {
	c.handlerMu.RLock()
	fn := c.stateFn
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(state)
	}
}
