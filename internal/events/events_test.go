package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlabs/qnet-fleet/pkg/models"
)

func receiveEvent(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	added := bus.Subscribe(models.EventTypeNodeAdded)

	bus.Publish(models.NewEvent(models.EventTypeNodeRemoved, "node-1", "gone"))
	bus.Publish(models.NewEvent(models.EventTypeNodeAdded, "node-2", "joined"))

	event := receiveEvent(t, added)
	assert.Equal(t, models.EventTypeNodeAdded, event.Type)
	assert.Equal(t, "node-2", event.NodeID)

	select {
	case extra := <-added:
		t.Fatalf("unexpected event for other type: %s", extra.Type)
	default:
	}
}

func TestEventBus_MultipleSubscribersEachReceive(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	first := bus.Subscribe(models.EventTypeAlert)
	second := bus.Subscribe(models.EventTypeAlert)

	bus.Publish(models.NewEvent(models.EventTypeAlert, "", "cpu critical"))

	assert.Equal(t, "cpu critical", receiveEvent(t, first).Message)
	assert.Equal(t, "cpu critical", receiveEvent(t, second).Message)
}

func TestEventBus_SubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeNodeAdded, "node-1", "joined"))
	bus.Publish(models.NewEvent(models.EventTypeScalingComplete, "", "scaled"))
	bus.Publish(models.NewEvent(models.EventTypeError, "", "boom"))

	assert.Equal(t, models.EventTypeNodeAdded, receiveEvent(t, all).Type)
	assert.Equal(t, models.EventTypeScalingComplete, receiveEvent(t, all).Type)
	assert.Equal(t, models.EventTypeError, receiveEvent(t, all).Type)
}

func TestEventBus_FullChannelDropsNotBlocks(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)

	done := make(chan struct{})
	go func() {
		bus.Publish(models.NewEvent(models.EventTypeAlert, "", "first"))
		bus.Publish(models.NewEvent(models.EventTypeAlert, "", "second")) // dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full channel")
	}

	assert.Equal(t, "first", receiveEvent(t, ch).Message)
	select {
	case event := <-ch:
		t.Fatalf("dropped event was delivered: %s", event.Message)
	default:
	}
}

func TestEventBus_CloseClosesChannels(t *testing.T) {
	bus := NewEventBus(10)

	typed := bus.Subscribe(models.EventTypeNodeAdded)
	all := bus.SubscribeAll()

	bus.Close()

	_, open := <-typed
	assert.False(t, open)
	_, open = <-all
	assert.False(t, open)

	// publish and double-close after close are no-ops
	bus.Publish(models.NewEvent(models.EventTypeNodeAdded, "node-1", "late"))
	bus.Close()
}

func TestEventBus_ZeroBufferUsesDefault(t *testing.T) {
	bus := NewEventBus(0)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)
	require.Equal(t, 100, cap(ch))
}
