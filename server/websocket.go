package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/MushroomFleet/wingman-support/game"
)

// UpdateInterval is the fixed simulation tick (20 ticks per second).
const UpdateInterval = 50 * time.Millisecond

// isValidOrigin checks if the origin is allowed to connect.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No origin header - could be a non-browser client
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	// Allow same-origin connections
	if r.Host == originURL.Host {
		return true
	}

	// Allow localhost connections for development
	return strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" ||
		originURL.Host == "127.0.0.1"
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// Message types
const (
	MsgTypeTrigger       = "trigger"
	MsgTypeTriggerResult = "triggerResult"
	MsgTypeVariant       = "variant"
	MsgTypeSpawn         = "spawn"
	MsgTypeUpdate        = "update"
	MsgTypeActivated     = "activated"
	MsgTypeEliminated    = "eliminated"
	MsgTypeCooldown      = "cooldown"
	MsgTypeError         = "error"
)

// ClientMessage represents a message from client to server.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage represents a message from server to client.
type ServerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client represents a connected viewer/controller.
type Client struct {
	ID     int
	conn   *websocket.Conn
	send   chan ServerMessage
	server *Server
}

// Server manages the simulation and client connections.
type Server struct {
	mu         sync.RWMutex
	log        zerolog.Logger
	clients    map[int]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan ServerMessage
	nextID     int
	done       chan struct{}
	closeOnce  sync.Once

	sim *Simulation

	// pendingCfg holds a hot-reloaded config waiting for the wingman to
	// go idle before it is applied.
	pendingCfg *game.Config
}

// NewServer creates a server around a fresh demo simulation.
func NewServer(cfg *game.Config, log zerolog.Logger) *Server {
	return &Server{
		log:        log,
		clients:    make(map[int]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ServerMessage, 256),
		done:       make(chan struct{}),
		sim:        NewSimulation(cfg),
	}
}

// Run starts the server main loop. Blocks until Shutdown.
func (s *Server) Run() {
	go s.gameLoop()

	for {
		select {
		case <-s.done:
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			s.log.Info().Int("client", client.ID).Msg("client connected")

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				close(client.send)
			}
			s.mu.Unlock()
			s.log.Info().Int("client", client.ID).Msg("client disconnected")

		case message := <-s.broadcast:
			s.mu.RLock()
			for _, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client send channel is full, skip this message
					s.log.Warn().Int("client", client.ID).Msg("send buffer full, dropping message")
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Shutdown stops the game loop and the client event loop.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// gameLoop advances the simulation at a fixed rate.
func (s *Server) gameLoop() {
	ticker := time.NewTicker(UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.updateGame()
			s.sendGameState()
		}
	}
}

// updateGame runs one simulation tick under the state lock, applying any
// hot-reloaded config first, then broadcasts the notifications the tick
// produced.
func (s *Server) updateGame() {
	s.mu.Lock()
	if s.pendingCfg != nil && s.sim.wingman.SetConfig(s.pendingCfg) {
		s.log.Info().Msg("applied reloaded config")
		s.pendingCfg = nil
	}
	s.sim.Update(UpdateInterval)
	notices := s.sim.drainNotices()
	s.mu.Unlock()

	for _, n := range notices {
		s.queueBroadcast(n)
	}
}

// queueBroadcast offers a message to the broadcast loop without blocking
// the tick.
func (s *Server) queueBroadcast(msg ServerMessage) {
	select {
	case s.broadcast <- msg:
	default:
		s.log.Warn().Str("type", msg.Type).Msg("broadcast queue full, dropping message")
	}
}

// sendGameState sends the per-tick world snapshot to all clients.
func (s *Server) sendGameState() {
	s.mu.RLock()

	remaining, max := s.sim.wingman.Cooldown()
	update := struct {
		Frame       int64          `json:"frame"`
		Phase       game.Phase     `json:"phase"`
		Variant     game.Variant   `json:"variant"`
		Wingman     game.Pose      `json:"wingman"`
		Escort      game.Pose      `json:"escort"`
		CooldownMs  int64          `json:"cooldownMs"`
		CooldownMax int64          `json:"cooldownMaxMs"`
		Drones      []*Drone       `json:"drones"`
		Effects     []*game.Effect `json:"effects"`
		Bursts      []*game.Burst  `json:"bursts"`
	}{
		Frame:       s.sim.frame,
		Phase:       s.sim.wingman.Phase(),
		Variant:     s.sim.wingman.Variant(),
		Wingman:     s.sim.wingman.Pose(),
		Escort:      s.sim.escort,
		CooldownMs:  remaining.Milliseconds(),
		CooldownMax: max.Milliseconds(),
		Drones:      s.sim.drones,
		Effects:     s.sim.wingman.Effects(),
		Bursts:      s.sim.wingman.Bursts(),
	}

	s.mu.RUnlock()

	s.queueBroadcast(ServerMessage{Type: MsgTypeUpdate, Data: update})
}

// HandleStatus returns a read-only JSON snapshot of the ability state.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	defer s.mu.RUnlock()

	remaining, max := s.sim.wingman.Cooldown()
	response := map[string]interface{}{
		"phase":         s.sim.wingman.Phase(),
		"variant":       s.sim.wingman.Variant(),
		"cooldownMs":    remaining.Milliseconds(),
		"cooldownMaxMs": max.Milliseconds(),
		"drones":        len(s.sim.drones),
		"liveEffects":   s.sim.wingman.LiveEffects(),
	}

	json.NewEncoder(w).Encode(response)
}

// HandleWebSocket handles WebSocket connections.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	clientID := s.nextID
	s.nextID++
	s.mu.Unlock()

	client := &Client{
		ID:     clientID,
		conn:   conn,
		send:   make(chan ServerMessage, 256),
		server: s,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump handles incoming messages from the client.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg ClientMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.log.Warn().Err(err).Int("client", c.ID).Msg("websocket read error")
			}
			break
		}

		c.handleMessage(msg)
	}
}

// writePump sends messages to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
