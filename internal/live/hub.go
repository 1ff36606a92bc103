// Package live fans marketplace updates out to connected subscribers.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
)

// Server-emitted event names.
const (
	EventLatestResponse = "latestResponse"
	EventNewResponse    = "newResponse"
	EventUpdatedStats   = "updatedStats"
	EventStatsResponse  = "statsResponse"
)

// Client-sent request names.
const (
	RequestGetLatestData = "getLatestData"
	RequestGetStats      = "getStats"
)

const statsFailureMessage = "Failed to fetch statistics"

// Subscriber is one connected live client. Send delivers a named event with a
// JSON-encodable payload.
type Subscriber interface {
	ID() string
	Send(event string, payload any) error
}

// Publisher republishes broadcast events beyond this process, so subscribers
// attached to other instances see them too.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Hub is the subscriber registry. Broadcasts go to every registered
// subscriber; per-subscriber failures are logged and never abort the fan-out.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber

	repo      records.Repository
	logg      *logger.Logger
	publisher Publisher
}

func NewHub(repo records.Repository, logg *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		repo:        repo,
		logg:        logg,
	}
}

// SetPublisher attaches a cross-instance publisher to broadcasts. The relay
// needs the hub to deliver remote events, so the publisher is wired after
// both exist.
func (h *Hub) SetPublisher(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

// Subscribe registers the subscriber and pushes the latest observation to it,
// if one exists yet.
func (h *Hub) Subscribe(ctx context.Context, sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	h.mu.Unlock()

	ctx = h.logg.WithSubscriberID(ctx, sub.ID())
	h.logg.Info(ctx, "live subscriber connected")
	h.sendLatestResponse(ctx, sub)
}

// Unsubscribe drops the subscriber. Disconnects have no persisted side effect.
func (h *Hub) Unsubscribe(ctx context.Context, subscriberID string) {
	h.mu.Lock()
	_, known := h.subscribers[subscriberID]
	delete(h.subscribers, subscriberID)
	h.mu.Unlock()

	if known {
		h.logg.Info(h.logg.WithSubscriberID(ctx, subscriberID), "live subscriber disconnected")
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// BroadcastNewResponse emits the record's marketplace observation to every
// subscriber as a "newResponse" event.
func (h *Hub) BroadcastNewResponse(ctx context.Context, record *models.MarketplaceResponse) {
	if record == nil {
		return
	}
	payload := map[string]any{
		"success":   true,
		"data":      record.MarketplaceData,
		"timestamp": isoNow(),
	}
	h.emitAll(ctx, EventNewResponse, payload)
	h.republish(ctx, EventNewResponse, payload)
}

// BroadcastUpdatedStats recomputes stats and emits them to every subscriber.
// When the store is unreachable it logs and emits nothing.
func (h *Hub) BroadcastUpdatedStats(ctx context.Context) {
	stats, err := h.repo.GetStats(ctx)
	if err != nil {
		h.logg.Error(ctx, "compute stats for broadcast", err)
		return
	}
	payload := map[string]any{
		"success":   true,
		"data":      stats,
		"timestamp": isoNow(),
	}
	h.emitAll(ctx, EventUpdatedStats, payload)
	h.republish(ctx, EventUpdatedStats, payload)
}

// EmitRemote delivers an event that originated on another instance to the
// local subscribers only. It never republishes.
func (h *Hub) EmitRemote(ctx context.Context, event string, payload json.RawMessage) {
	h.emitAll(ctx, event, payload)
}

// HandleRequest serves a named on-demand request from one subscriber.
func (h *Hub) HandleRequest(ctx context.Context, subscriberID, request string) error {
	h.mu.RLock()
	sub, ok := h.subscribers[subscriberID]
	h.mu.RUnlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown subscriber %q", subscriberID))
	}

	ctx = h.logg.WithSubscriberID(ctx, subscriberID)
	switch request {
	case RequestGetLatestData:
		h.logg.Info(ctx, "subscriber requested latest data")
		h.sendLatestResponse(ctx, sub)
		return nil
	case RequestGetStats:
		h.logg.Info(ctx, "subscriber requested stats")
		h.sendStats(ctx, sub)
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown live request %q", request))
	}
}

func (h *Hub) sendLatestResponse(ctx context.Context, sub Subscriber) {
	latest, err := h.repo.FindLatest(ctx)
	if err != nil {
		h.logg.Error(ctx, "load latest observation for subscriber", err)
		return
	}
	if latest == nil {
		return
	}
	h.send(ctx, sub, EventLatestResponse, map[string]any{
		"success": true,
		"data":    latest.MarketplaceData,
	})
}

func (h *Hub) sendStats(ctx context.Context, sub Subscriber) {
	stats, err := h.repo.GetStats(ctx)
	if err != nil {
		h.logg.Error(ctx, "compute stats for subscriber", err)
		// Distinct failure shape, deliberately without a timestamp.
		h.send(ctx, sub, EventStatsResponse, map[string]any{
			"success": false,
			"error":   statsFailureMessage,
		})
		return
	}
	h.send(ctx, sub, EventStatsResponse, map[string]any{
		"success": true,
		"data":    stats,
	})
}

func (h *Hub) emitAll(ctx context.Context, event string, payload any) {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		h.send(ctx, sub, event, payload)
	}
}

func (h *Hub) send(ctx context.Context, sub Subscriber, event string, payload any) {
	if err := sub.Send(event, payload); err != nil {
		h.logg.Error(h.logg.WithSubscriberID(ctx, sub.ID()), "deliver live event", err)
	}
}

func (h *Hub) republish(ctx context.Context, event string, payload any) {
	h.mu.RLock()
	publisher := h.publisher
	h.mu.RUnlock()
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event, payload); err != nil {
		h.logg.Error(ctx, "republish live event", err)
	}
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
