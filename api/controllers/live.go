package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/api/responses"
	"github.com/dmarcana/marketplace-analytics-backend/api/validators"
	"github.com/dmarcana/marketplace-analytics-backend/internal/live"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const heartbeatInterval = 25 * time.Second

// sseSubscriber adapts one server-sent-events connection to the live hub.
// Sends are serialized; concurrent broadcasts must not interleave frames.
type sseSubscriber struct {
	id      string
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSubscriber) ID() string {
	return s.id
}

func (s *sseSubscriber) Send(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "event: %s\ndata: %s\n\n", event, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSubscriber) heartbeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.writer, ": heartbeat\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SubscribeEvents opens the live event stream. The first frame is a
// "connected" event carrying the subscriber ID, which the client needs for
// on-demand requests. The handler blocks until the client disconnects.
func SubscribeEvents(hub *live.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := &sseSubscriber{
			id:      uuid.NewString(),
			writer:  w,
			flusher: flusher,
		}
		if err := sub.Send("connected", map[string]string{"subscriberId": sub.id}); err != nil {
			logg.Error(ctx, "send connected event", err)
			return
		}

		hub.Subscribe(ctx, sub)
		defer hub.Unsubscribe(ctx, sub.id)

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sub.heartbeat(); err != nil {
					return
				}
			}
		}
	}
}

type liveRequestBody struct {
	Event string `json:"event" validate:"required,oneof=getLatestData getStats"`
}

// PostLiveRequest serves a named on-demand request on behalf of a connected
// subscriber; the reply arrives on that subscriber's event stream.
func PostLiveRequest(hub *live.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subscriberID := chi.URLParam(r, "subscriberId")

		var body liveRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := hub.HandleRequest(ctx, subscriberID, body.Event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "dispatched"})
	}
}
