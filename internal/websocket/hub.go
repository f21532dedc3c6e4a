package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans job progress events out to websocket clients. Each client
// subscribes to a single job ID; the first subscriber for a job opens a
// Redis pub/sub subscription on that job's channel, and the last one to
// leave closes it.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

// HandleWebSocket upgrades GET /api/v1/ws?job_id=<uuid> and streams
// progress for that job until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobIDStr := r.URL.Query().Get("job_id")
	if jobIDStr == "" {
		http.Error(w, "job_id query parameter is required", http.StatusBadRequest)
		return
	}

	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		http.Error(w, "job_id must be a valid UUID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(jobID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(jobID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(jobID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[jobID] = append(h.connections[jobID], conn)

	// Start pub/sub subscription if this is the first watcher for this job
	if len(h.connections[jobID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[jobID] = cancel
		go h.subscribeToPubSub(ctx, jobID)
	}

	log.Printf("WebSocket connected: job %s (watchers: %d)", jobID, len(h.connections[jobID]))
}

func (h *Hub) unregisterConnection(jobID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[jobID]
	for i, c := range conns {
		if c == conn {
			h.connections[jobID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more watchers, cancel pub/sub
	if len(h.connections[jobID]) == 0 {
		delete(h.connections, jobID)
		if cancel, ok := h.cancelFuncs[jobID]; ok {
			cancel()
			delete(h.cancelFuncs, jobID)
		}
	}

	log.Printf("WebSocket disconnected: job %s", jobID)
}

// JobChannel is the Redis pub/sub channel carrying updates for a job.
func JobChannel(jobID uuid.UUID) string {
	return "job_updates:" + jobID.String()
}

func (h *Hub) subscribeToPubSub(ctx context.Context, jobID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, JobChannel(jobID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(jobID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(jobID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[jobID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// SendToJob sends a message directly to a job's watchers (bypassing pub/sub,
// for single-process deployments without Redis fan-out).
func (h *Hub) SendToJob(jobID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(jobID, data)
}
