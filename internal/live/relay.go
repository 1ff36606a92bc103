package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

// PubSubClient is the pub/sub surface the relay needs from the redis client.
type PubSubClient interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channel string) (*goredis.PubSub, error)
}

type relayMessage struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Relay carries hub broadcasts across instances over a redis pub/sub channel.
// Each message is tagged with the originating instance ID; the consuming side
// drops its own messages so local subscribers never see an event twice.
type Relay struct {
	client  PubSubClient
	channel string
	origin  string
	hub     *Hub
	logg    *logger.Logger
}

func NewRelay(client PubSubClient, channel, origin string, hub *Hub, logg *logger.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		origin:  origin,
		hub:     hub,
		logg:    logg,
	}
}

// Publish implements Publisher for the hub.
func (r *Relay) Publish(ctx context.Context, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal live payload: %w", err)
	}
	body, err := json.Marshal(relayMessage{Origin: r.origin, Event: event, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	return r.client.Publish(ctx, r.channel, body)
}

// Run consumes the relay channel until the context ends, forwarding events
// from other instances to the local hub.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.client.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	defer func() { _ = sub.Close() }()

	r.logg.Info(r.logg.WithField(ctx, "channel", r.channel), "live relay started")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handleMessage(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handleMessage(ctx context.Context, body string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		r.logg.Error(ctx, "decode relay message", err)
		return
	}
	if msg.Origin == r.origin {
		return
	}
	r.hub.EmitRemote(ctx, msg.Event, msg.Payload)
}
