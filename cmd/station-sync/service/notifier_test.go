package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stationprofiles/station-sync/cmd/station-sync/models"
	"github.com/stationprofiles/station-sync/common/logger"
	"github.com/stationprofiles/station-sync/common/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNotifier_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	log := logger.Discard()

	client, err := redis.Dial(ctx, mr.Addr(), "", 0, log)
	require.NoError(t, err)
	defer client.Close()

	sub := client.Subscribe(ctx, "stations.changed")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := NewRedisNotifier(client, "stations.changed", log)
	n.Notify(ctx, &ChangeEvent{
		Action:    models.ActionCreate,
		StationID: "krvb",
		SHA:       "abc",
		Created:   true,
		RequestID: "req-9",
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	select {
	case msg := <-sub.Channel():
		var got ChangeEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, models.ActionCreate, got.Action)
		assert.Equal(t, "krvb", got.StationID)
		assert.True(t, got.Created)
		assert.Equal(t, "req-9", got.RequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestRedisNotifier_FailureIsSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	log := logger.Discard()

	client, err := redis.Dial(ctx, mr.Addr(), "", 0, log)
	require.NoError(t, err)
	defer client.Close()
	mr.Close()

	assert.NotPanics(t, func() {
		NewRedisNotifier(client, "stations.changed", log).Notify(ctx, &ChangeEvent{StationID: "krvb"})
	})
}
