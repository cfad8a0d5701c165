// Package pubsub fans collection-change signals out to live subscriptions.
// Signals carry no payload: a notified watcher re-queries its collection and
// rebuilds the full view model set, so coalescing concurrent signals is safe.
package pubsub

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const channel = "shoplist:changes"

// Hub is the in-process fan-out point. When constructed with a redis client
// it also bridges signals across instances through a pub/sub channel; with a
// nil client it stays purely local (tests, single-node setups).
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}

	rdb    *redis.Client
	logger *logrus.Logger
}

func NewHub(rdb *redis.Client, logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[int]chan struct{}),
		rdb:    rdb,
		logger: logger,
	}
}

// Run consumes the cross-instance channel until ctx is cancelled. It is a
// no-op without a redis client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.notifyLocal(msg.Payload)
		}
	}
}

// Publish signals every watcher of the collection, locally and on other
// instances. Local delivery does not wait for redis.
func (h *Hub) Publish(ctx context.Context, collection string) {
	h.notifyLocal(collection)
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Publish(ctx, channel, collection).Err(); err != nil && h.logger != nil {
		h.logger.WithError(err).WithField("collection", collection).Warn("change publish failed")
	}
}

// Subscribe registers a watcher for one collection. The signal channel has a
// one-slot buffer; pending signals coalesce. Cancel is idempotent and closes
// the channel.
func (h *Hub) Subscribe(collection string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan struct{}, 1)
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan struct{})
	}
	h.subs[collection][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m, ok := h.subs[collection]; ok {
			if c, ok := m[id]; ok {
				delete(m, id)
				close(c)
				if len(m) == 0 {
					delete(h.subs, collection)
				}
			}
		}
	}
	return ch, cancel
}

func (h *Hub) notifyLocal(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[collection] {
		select {
		case ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
}
