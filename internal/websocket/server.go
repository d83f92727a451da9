package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Commander executes operator lines against the world state
type Commander interface {
	Execute(line string) (simulation.Result, error)
	Snapshot() *simulation.View
}

// Options configures the WebSocket server
type Options struct {
	CommandsPerSecond float64  // per connection; <= 0 disables the limiter
	CommandBurst      int      // burst allowed by the limiter
	SendBuffer        int      // queued outbound messages per client
	AllowedOrigins    []string // "*" or empty allows any origin
}

// Client represents a WebSocket client
type Client struct {
	conn       *websocket.Conn
	send       chan *Message
	server     *Server
	limiter    *rate.Limiter
	mu         sync.Mutex
	closed     bool
	subscribed bool
}

// Server is the hub between the simulation and connected clients. It streams
// snapshots to subscribed clients and executes their commands.
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	upgrader   websocket.Upgrader
	commander  Commander
	opts       Options
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewServer creates a new WebSocket server
func NewServer(commander Commander, opts Options, log *logger.Logger) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.CommandBurst <= 0 {
		opts.CommandBurst = 1
	}
	s := &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 16),
		done:       make(chan struct{}),
		commander:  commander,
		opts:       opts,
		logger:     log.Named("web-socket"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, origin)
}

// Run starts the hub and blocks until ctx is done, then closes every client
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("Starting WebSocket server")
	defer close(s.done)

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			count := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered", logger.Int("client_count", count))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.shutdown()
			}
			count := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered", logger.Int("client_count", count))

		case message := <-s.broadcast:
			s.fanOut(message)

		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.shutdown()
			}
			s.mu.Unlock()
			s.logger.Info("WebSocket server stopped")
			return
		}
	}
}

// fanOut delivers a broadcast to subscribed clients, dropping any that cannot keep up
func (s *Server) fanOut(message *Message) {
	var slow []*Client

	s.mu.RLock()
	for client := range s.clients {
		if !client.isSubscribed() {
			continue
		}
		if !client.SendMessage(message) {
			slow = append(slow, client)
		}
	}
	s.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	s.mu.Lock()
	for _, client := range slow {
		if _, ok := s.clients[client]; ok {
			delete(s.clients, client)
			client.shutdown()
			s.logger.Warn("Dropping slow client", logger.String("remote_addr", client.conn.RemoteAddr().String()))
		}
	}
	s.mu.Unlock()
}

// Publish implements simulation.Publisher. It never blocks the simulation;
// when the hub is behind, the snapshot is skipped and a later one supersedes it.
func (s *Server) Publish(v *simulation.View) {
	message, err := snapshotMessage(v)
	if err != nil {
		s.logger.Error("Failed to encode snapshot", logger.Error(err))
		return
	}
	select {
	case s.broadcast <- message:
	case <-s.done:
	default:
		s.logger.Debug("Broadcast queue full, skipping snapshot", logger.Uint64("sequence", v.Sequence))
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleConnection upgrades the request and serves the client until it disconnects
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Handling new WebSocket connection request",
		logger.String("remote_addr", r.RemoteAddr),
		logger.String("user_agent", r.UserAgent()))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan *Message, s.opts.SendBuffer),
		server: s,
	}
	if s.opts.CommandsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(s.opts.CommandsPerSecond), s.opts.CommandBurst)
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// readPump reads client messages until the connection fails
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			c.replyError("malformed message")
			continue
		}
		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", message.Type),
			logger.String("client", c.conn.RemoteAddr().String()))

		c.handle(&message)
	}
}

func (c *Client) handle(message *Message) {
	switch message.Type {
	case MessageTypeCommand:
		var req CommandRequest
		if err := json.Unmarshal(message.Data, &req); err != nil {
			var ref struct {
				ID string `json:"id"`
			}
			json.Unmarshal(message.Data, &ref)
			c.reply(MessageTypeError, ErrorMessage{ID: ref.ID, Message: "malformed command"})
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.reply(MessageTypeCommandResult, CommandResult{
				ID:       req.ID,
				Category: CategoryRateLimited,
				Message:  "too many commands, slow down",
			})
			return
		}
		res, err := c.server.commander.Execute(req.Line)
		c.reply(MessageTypeCommandResult, NewCommandResult(req.ID, res, err))

	case MessageTypeSubscribe:
		var req SubscribeRequest
		if err := json.Unmarshal(message.Data, &req); err != nil {
			c.replyError("malformed subscribe")
			return
		}
		c.mu.Lock()
		c.subscribed = req.Snapshots
		c.mu.Unlock()
		if req.Snapshots {
			if m, err := snapshotMessage(c.server.commander.Snapshot()); err == nil {
				c.SendMessage(m)
			}
		}

	default:
		c.replyError("unknown message type: " + message.Type)
	}
}

func (c *Client) reply(typ string, v any) {
	m, err := NewMessage(typ, v)
	if err != nil {
		c.server.logger.Error("Failed to encode reply", logger.Error(err))
		return
	}
	if !c.SendMessage(m) {
		c.server.logger.Warn("Reply dropped", logger.String("type", typ))
	}
}

func (c *Client) replyError(text string) {
	c.reply(MessageTypeError, ErrorMessage{Message: text})
}

// writePump writes queued messages to the connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// SendMessage queues a message for this client without blocking. It returns
// false when the client is closed or its queue is full.
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) isSubscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed && !c.closed
}

// shutdown closes the send queue once; writePump then closes the connection
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
