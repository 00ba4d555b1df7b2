package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/audiosplit/api/internal/model"
)

// Client represents a WebSocket client subscribed to one job. The send
// channel is guarded so it is closed exactly once and never written after
// closing, whichever of the hub or the read loop gets there first.
type Client struct {
	JobID string
	Conn  *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(jobID string, conn *websocket.Conn) *Client {
	return &Client{
		JobID: jobID,
		Conn:  conn,
		send:  make(chan []byte, 16),
	}
}

// trySend queues a message without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) trySend(message []byte) bool {
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

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub maintains active WebSocket connections grouped by job id and pushes
// the job record to subscribers when the job reaches a terminal state.
// Polling remains the primary mechanism; this is a convenience channel.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

type broadcastMessage struct {
	jobID   string
	message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					client.close()
					if len(clients) == 0 {
						delete(h.clients, client.JobID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.jobID]; ok {
				for client := range clients {
					if !client.trySend(msg.message) {
						// Slow or gone; drop the subscriber.
						client.close()
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastJob pushes a job record to all subscribers of its id. Workers
// call this once per job, on the terminal transition.
func (h *Hub) BroadcastJob(job *model.Job) {
	msg := model.WSJobMessage{
		Type: model.WSMessageTypeJob,
		Job:  job,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal job message: %v", err)
		return
	}

	h.broadcast <- &broadcastMessage{
		jobID:   job.ID,
		message: data,
	}
}

// HandleConnection runs the read/write loops for one subscriber. It blocks
// until the client disconnects.
func (h *Hub) HandleConnection(c *websocket.Conn, jobID string) {
	client := newClient(jobID, c)

	h.register <- client
	defer func() { h.unregister <- client }()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			client.trySend(pong)
		}
	}
}
