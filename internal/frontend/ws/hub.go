package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/space"
	"github.com/cory-johannsen/petheaven/internal/host"
)

const (
	readLimit    = 1 << 16
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	writeWait    = 10 * time.Second
	sendQueueLen = 64
)

// InputHandler receives client input. Implementations must be safe to call
// from connection goroutines.
type InputHandler interface {
	MovePlayer(dir space.Vec)
}

// InputFunc adapts a function to InputHandler.
type InputFunc func(dir space.Vec)

func (f InputFunc) MovePlayer(dir space.Vec) { f(dir) }

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans host events out to every connected client and forwards client
// input to an InputHandler. It implements host.Audio and host.UI.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	input    InputHandler
	tickHz   int
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

var (
	_ host.Audio = (*Hub)(nil)
	_ host.UI    = (*Hub)(nil)
)

// NewHub creates a Hub.
//
// Precondition: input and logger must be non-nil; allowedOrigin "" or "*"
// accepts any origin.
func NewHub(input InputHandler, tickHz int, allowedOrigin string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		input:   input,
		tickHz:  tickHz,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendQueueLen)}

	if msg, err := Encode(MsgWelcome, Welcome{ClientID: c.id, TickHz: h.tickHz}); err == nil {
		c.send <- msg
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected", zap.String("client", c.id))

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	h.logger.Info("client disconnected", zap.String("client", c.id))
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *client, msg []byte) {
	env, err := DecodeEnvelope(msg)
	if err != nil {
		h.logger.Debug("bad envelope", zap.String("client", c.id), zap.Error(err))
		return
	}
	switch env.T {
	case MsgMove:
		mv, err := DecodePayload[Move](env)
		if err != nil {
			h.logger.Debug("bad move payload", zap.String("client", c.id), zap.Error(err))
			return
		}
		h.input.MovePlayer(space.Vec{X: mv.X, Z: mv.Z})
	default:
		h.logger.Debug("unknown message type", zap.String("client", c.id), zap.String("type", env.T))
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends payload to every client. Clients whose send queue is full
// miss the message.
func (h *Hub) Broadcast(t string, payload any) {
	msg, err := Encode(t, payload)
	if err != nil {
		h.logger.Error("encoding broadcast", zap.String("type", t), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client send queue full", zap.String("client", c.id), zap.String("type", t))
		}
	}
}

// PublishState broadcasts a world snapshot.
func (h *Hub) PublishState(s State) { h.Broadcast(MsgState, s) }

func (h *Hub) Play(event string) { h.Broadcast(MsgSound, Sound{Event: event}) }

func (h *Hub) AddReward(value int) { h.Broadcast(MsgReward, Reward{Value: value}) }

func (h *Hub) ShowDamageNumber(at host.ScreenPoint, amount int) {
	h.Broadcast(MsgDamage, Damage{X: at.X, Y: at.Y, Amount: amount})
}

func (h *Hub) UpdateHungerMeter(score, max int) {
	h.Broadcast(MsgHunger, Hunger{Score: score, Max: max})
}

func (h *Hub) AbilityDamageChanged(petID string, damage int) {
	h.Broadcast(MsgAbility, AbilityDamage{PetID: petID, Damage: damage})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
