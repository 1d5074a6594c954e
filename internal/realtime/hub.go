// Package realtime fans chat progress events out to connected dashboard
// clients, bridged across instances via Redis pub/sub.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Heartbeat settings (seconds).
const (
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains channel_id -> set of connections and broadcasts messages.
// Channels are keyed by user ID: a client subscribes to its own events.
type Hub struct {
	channels map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per channel
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes events for cross-instance broadcast.
type RedisPublisher interface {
	PublishChannelEvent(channelID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeChannel(channelID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		channels: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a channel. Starts the Redis subscription for
// this channel when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.channels[c.ChannelID] == nil {
		h.channels[c.ChannelID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeChannel(c.ChannelID, func(event string, payload []byte) {
				h.broadcast(c.ChannelID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.ChannelID] = cancel
			}
		}
	}
	h.channels[c.ChannelID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined channel", zap.String("client_id", c.ID), zap.String("channel_id", c.ChannelID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the last
// client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.channels[c.ChannelID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.channels, c.ChannelID)
			if cancel, ok := h.subs[c.ChannelID]; ok {
				cancel()
				delete(h.subs, c.ChannelID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left channel", zap.String("client_id", c.ID), zap.String("channel_id", c.ChannelID.String()))
}

// Publish delivers an event to every subscriber of a channel. With Redis
// configured it publishes there only, so the subscriber callback performs
// the broadcast once for all instances including this one.
func (h *Hub) Publish(channelID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishChannelEvent(channelID, event, data)
		return
	}
	h.broadcast(channelID, event, json.RawMessage(data))
}

func (h *Hub) broadcast(channelID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.channels[channelID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
