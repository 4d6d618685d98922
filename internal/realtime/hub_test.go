package realtime

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-tracker/internal/domain/device"
	"beacon-tracker/internal/infrastructure/database/memory"
	"beacon-tracker/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	got := make(chan Event, 1)
	sub := hub.Subscribe(func(ev Event) {
		got <- ev
	})
	defer sub.Cancel()

	id := uuid.New()
	hub.Publish(Event{Action: ActionInsert, DeviceID: id, At: time.Now().UTC()})

	select {
	case ev := <-got:
		assert.Equal(t, ActionInsert, ev.Action)
		assert.Equal(t, id, ev.DeviceID)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	var hits atomic.Int32
	for i := 0; i < 3; i++ {
		sub := hub.Subscribe(func(Event) { hits.Add(1) })
		defer sub.Cancel()
	}
	assert.Equal(t, 3, hub.SubscriberCount())

	hub.Publish(Event{Action: ActionUpdate, DeviceID: uuid.New()})

	require.Eventually(t, func() bool {
		return hits.Load() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestHub_CoalescesBurst(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	release := make(chan struct{})
	var delivered atomic.Int32
	sub := hub.Subscribe(func(Event) {
		delivered.Add(1)
		<-release
	})
	defer sub.Cancel()

	// A burst while the subscriber is busy collapses into at most one
	// pending event; publishers never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			hub.Publish(Event{Action: ActionUpdate, DeviceID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	close(release)
	require.Eventually(t, func() bool {
		n := delivered.Load()
		return n >= 1 && n <= 50
	}, time.Second, 10*time.Millisecond)
	// Far fewer deliveries than publishes once the burst settles.
	time.Sleep(50 * time.Millisecond)
	assert.Less(t, delivered.Load(), int32(50))
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(func(Event) {})
	require.Equal(t, 1, hub.SubscriberCount())

	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	// Publishing after cancel must not panic or deliver.
	hub.Publish(Event{Action: ActionDelete, DeviceID: uuid.New()})
}

func TestHub_CloseStopsDelivery(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe(func(Event) {
		t.Error("delivery after Close")
	})
	_ = sub

	hub.Close()
	assert.Equal(t, 0, hub.SubscriberCount())
	hub.Publish(Event{Action: ActionInsert, DeviceID: uuid.New()})
	time.Sleep(20 * time.Millisecond)

	// Subscribing on a closed hub yields an inert subscription.
	late := hub.Subscribe(func(Event) {
		t.Error("delivery on closed hub")
	})
	late.Cancel()
}

func TestNotifyingRepository_EmitsPerWrite(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events := make(chan Event, 8)
	sub := hub.Subscribe(func(ev Event) { events <- ev })
	defer sub.Cancel()

	repo := NewNotifyingRepository(memory.NewDeviceRepository(), hub)
	ctx := context.Background()

	d := &device.Device{
		OwnerID:    uuid.New(),
		Name:       "Alpha",
		Identifier: "dev-001",
		Icon:       "fox",
		Position:   device.Position{Lat: 41.90, Lng: 12.49, Accuracy: 15},
		IsActive:   true,
		LastUpdate: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, d))

	next := func() Event {
		select {
		case ev := <-events:
			return ev
		case <-time.After(time.Second):
			t.Fatal("no event delivered")
			return Event{}
		}
	}

	ev := next()
	assert.Equal(t, ActionInsert, ev.Action)
	assert.Equal(t, d.ID, ev.DeviceID)

	require.NoError(t, repo.UpdatePosition(ctx, d.ID, device.Position{Lat: 45.46, Lng: 9.19, Accuracy: 8}, time.Now().UTC()))
	assert.Equal(t, ActionUpdate, next().Action)

	require.NoError(t, repo.Deactivate(ctx, d.ID))
	assert.Equal(t, ActionUpdate, next().Action)
}

func TestNotifyingRepository_NoEventOnFailure(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	var fired atomic.Int32
	sub := hub.Subscribe(func(Event) { fired.Add(1) })
	defer sub.Cancel()

	repo := NewNotifyingRepository(memory.NewDeviceRepository(), hub)

	err := repo.UpdatePosition(context.Background(), uuid.New(), device.Position{Lat: 1, Lng: 2}, time.Now().UTC())
	require.Error(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
