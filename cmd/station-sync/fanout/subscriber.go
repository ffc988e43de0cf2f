package fanout

import (
	"context"
	"encoding/json"

	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stationprofiles/station-sync/common/redis"
)

// Subscriber forwards change events from a Redis channel to the hub
type Subscriber struct {
	redis   *redis.Client
	channel string
	hub     *Hub
	log     *logger.Logger
}

// NewSubscriber creates a new Subscriber instance
func NewSubscriber(client *redis.Client, channel string, hub *Hub, log *logger.Logger) *Subscriber {
	return &Subscriber{
		redis:   client,
		channel: channel,
		hub:     hub,
		log:     log,
	}
}

// Start listens until ctx is canceled
func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription was successful
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	s.log.Info("change subscriber started", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("change subscriber stopping")
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event struct {
				StationID string `json:"stationId"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil || event.StationID == "" {
				s.log.Warn("ignoring malformed change event", "channel", msg.Channel)
				continue
			}

			s.hub.Publish(&Message{StationID: event.StationID, Data: []byte(msg.Payload)})
		}
	}
}
