package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/lanjack/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Monitor clients only ever send control frames
	maxMessageSize = 512
)

// Monitor serves a read-only websocket feed of session events plus a
// JSON health endpoint. It subscribes to the server's event bus and
// fans every event out to connected watchers.
type Monitor struct {
	addr         string
	upgrader     websocket.Upgrader
	sessionCount func() int
	logger       *log.Logger

	clients    map[*monitorClient]bool
	register   chan *monitorClient
	unregister chan *monitorClient
	mu         sync.RWMutex

	listener net.Listener
	ctx      context.Context
}

// NewMonitor creates a monitor listening on addr. sessionCount feeds
// the health endpoint.
func NewMonitor(addr string, sessionCount func() int, logger *log.Logger) *Monitor {
	return &Monitor{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The feed is observational and LAN-scoped
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessionCount: sessionCount,
		logger:       logger.WithPrefix("monitor"),
		clients:      make(map[*monitorClient]bool),
		register:     make(chan *monitorClient),
		unregister:   make(chan *monitorClient),
	}
}

// Run serves the monitor until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.ctx = ctx

	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWebSocket)
	mux.HandleFunc("/health", m.handleHealth)

	srv := &http.Server{Handler: mux}
	m.logger.Info("Monitor listening", "addr", listener.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		m.registry(ctx)
		return nil
	})

	err = g.Wait()

	m.mu.Lock()
	for client := range m.clients {
		client.close()
		delete(m.clients, client)
	}
	m.mu.Unlock()

	return err
}

// Addr returns the monitor's bound address, or nil before Run.
func (m *Monitor) Addr() net.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

type eventEnvelope struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// OnEvent implements game.EventSubscriber. Events are encoded once and
// fanned out to every connected watcher.
func (m *Monitor) OnEvent(event game.Event) {
	payload, err := json.Marshal(eventEnvelope{
		Type: string(event.EventType()),
		Time: event.Timestamp(),
		Data: event,
	})
	if err != nil {
		m.logger.Error("Failed to encode event", "type", event.EventType(), "error", err)
		return
	}

	m.mu.RLock()
	clients := make([]*monitorClient, 0, len(m.clients))
	for client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(payload)
	}
}

func (m *Monitor) registry(ctx context.Context) {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.mu.Unlock()
			m.logger.Info("Watcher connected", "total", total)

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.close()
			}
			total := len(m.clients)
			m.mu.Unlock()
			m.logger.Info("Watcher disconnected", "total", total)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newMonitorClient(conn, m.logger)
	select {
	case m.register <- client:
	case <-m.ctx.Done():
		client.close()
		return
	}
	client.start()

	go func() {
		select {
		case <-client.ctx.Done():
		case <-m.ctx.Done():
		}
		select {
		case m.unregister <- client:
		case <-m.ctx.Done():
			client.close()
		}
	}()
}

func (m *Monitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": m.sessionCount(),
	})
}

// monitorClient is one connected watcher. Events are queued on the send
// channel; a watcher that stops draining gets disconnected rather than
// blocking the feed.
type monitorClient struct {
	conn      *websocket.Conn
	send      chan []byte
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newMonitorClient(conn *websocket.Conn, logger *log.Logger) *monitorClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &monitorClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger.WithPrefix("watcher"),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *monitorClient) start() {
	go c.writePump()
	go c.readPump()
}

func (c *monitorClient) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("Watcher send buffer full, closing connection")
		c.close()
	}
}

func (c *monitorClient) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
}

// readPump discards anything the watcher sends; it exists to notice
// closes and keep pong handling alive.
func (c *monitorClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("WebSocket error", "error", err)
			}
			return
		}
	}
}

func (c *monitorClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
