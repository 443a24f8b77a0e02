package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"multisite-be/internal/pkg/logger"
	"multisite-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule      = "HUB"
	clusterChannel = "multisite:events"

	// AllSites is the subscription key of clients watching every site.
	AllSites int64 = 0
)

// Hub fans site tree events out to connected admin clients. Events are
// relayed through Redis so clients connected to other instances see them too.
type Hub struct {
	// Registered clients: site id -> clients watching it
	clients map[int64][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin  string          `json:"origin"`
	SiteIDs []int64         `json:"site_ids"`
	Message json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[int64][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SiteID] = append(h.clients[client.SiteID], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"site_id": client.SiteID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.SiteID]
			for i, c := range clients {
				if c == client {
					h.clients[client.SiteID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.SiteID]) == 0 {
				delete(h.clients, client.SiteID)
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers event to clients watching any site it touches and to
// clients watching all sites.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"occurred_at": event.Timestamp(),
		"data":        event.Payload(),
	})
	if err != nil {
		return err
	}

	siteIDs := sitesOf(event)
	h.deliver(siteIDs, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, SiteIDs: siteIDs, Message: data})
		if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to relay event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// ClientCount reports how many clients watch siteID.
func (h *Hub) ClientCount(siteID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[siteID])
}

func (h *Hub) deliver(siteIDs []int64, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, id := range append([]int64{AllSites}, siteIDs...) {
		for _, client := range h.clients[id] {
			if seen[client] {
				continue
			}
			seen[client] = true
			select {
			case client.Send <- data:
			default:
				h.logger.Warn(hubModule, "Client Send buffer full, dropping message", map[string]interface{}{"site_id": client.SiteID})
			}
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
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
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(hubModule, "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.SiteIDs, payload.Message)
		}
	}
}

func sitesOf(event events.Event) []int64 {
	var ids []int64
	for _, key := range []string{"site_id", "from_site_id", "to_site_id"} {
		if id, ok := event.Payload()[key].(int64); ok && id != AllSites {
			ids = append(ids, id)
		}
	}
	return ids
}
