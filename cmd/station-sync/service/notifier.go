package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stationprofiles/station-sync/common/redis"
)

// ChangeEvent is published after every successful mutation
type ChangeEvent struct {
	Action      models.Action `json:"action"`
	StationID   string        `json:"stationId"`
	SHA         string        `json:"sha,omitempty"`
	Created     bool          `json:"created"`
	ManifestSHA string        `json:"manifestSha,omitempty"`
	RequestID   string        `json:"requestId,omitempty"`
	At          time.Time     `json:"at"`
}

// Notifier announces station changes. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, event *ChangeEvent)
}

// NoOpNotifier drops every event
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, *ChangeEvent) {}

// RedisNotifier publishes events as JSON on a Redis channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisNotifier creates a notifier publishing to channel
func NewRedisNotifier(client *redis.Client, channel string, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		log:     log,
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, event *ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Warn("failed to encode change event", "station_id", event.StationID, "error", err)
		return
	}

	if err := n.client.PublishEvent(ctx, n.channel, string(payload)); err != nil {
		n.log.Warn("failed to publish change event", "station_id", event.StationID, "error", err)
	}
}
