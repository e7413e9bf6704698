package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // game client may be served from another origin
	},
}

// Conn is one client connection. Writes are serialized on the conn's
// own mutex so broadcasts from different goroutines do not interleave.
type Conn struct {
	ID uuid.UUID

	ws *websocket.Conn
	mu sync.Mutex
}

func (c *Conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// Handler consumes inbound traffic from the hub. Implemented by the
// Dispatcher; an interface so the hub stays a pure transport.
type Handler interface {
	Handle(c *Conn, msg Message)
	Disconnect(c *Conn)
}

// Hub owns every open connection and implements the send/broadcast
// surface the dispatcher uses. It knows nothing about the game.
type Hub struct {
	mu           sync.RWMutex
	conns        map[uuid.UUID]*Conn
	handler      Handler
	pingInterval time.Duration
}

func NewHub(pingInterval time.Duration) *Hub {
	return &Hub{
		conns:        make(map[uuid.UUID]*Conn),
		pingInterval: pingInterval,
	}
}

// SetHandler wires the dispatcher in. Must be called before the hub
// accepts connections.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// HandleWS upgrades the request and runs the connection's read loop
// until the client goes away.
func (h *Hub) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	conn := &Conn{ID: uuid.New(), ws: ws}
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()
	log.Printf("client connected: %s", conn.ID)

	stop := make(chan struct{})
	go h.pingLoop(conn, stop)

	ws.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
		return nil
	})

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("read error on %s: %v", conn.ID, err)
			}
			break
		}
		h.handler.Handle(conn, msg)
	}

	close(stop)
	h.mu.Lock()
	delete(h.conns, conn.ID)
	h.mu.Unlock()
	_ = ws.Close()
	log.Printf("client disconnected: %s", conn.ID)
	h.handler.Disconnect(conn)
}

// pingLoop keeps the connection alive; a dead peer stops answering
// pongs and the read deadline tears the read loop down.
func (h *Hub) pingLoop(conn *Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn.mu.Lock()
			conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.ws.WriteMessage(websocket.PingMessage, nil)
			conn.mu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// Send delivers one message to one client.
func (h *Hub) Send(c *Conn, msg Message) {
	if err := c.writeJSON(msg); err != nil {
		log.Printf("send to %s failed: %v", c.ID, err)
	}
}

// Broadcast delivers one message to every connected client.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		if err := conn.writeJSON(msg); err != nil {
			log.Printf("broadcast to %s failed: %v", conn.ID, err)
		}
	}
}
