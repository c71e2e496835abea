package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe(TopicDataChanged)
	defer cancel()

	bus.Publish(TopicDataChanged, NewEvent("ui", "g1"))
	bus.Publish(TopicLedgerChanged, NewEvent("engine", ""))

	select {
	case ev := <-ch:
		assert.Equal(t, "ui", ev.Source)
		assert.Equal(t, "g1", ev.EntityID)
		assert.NotZero(t, ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestBus_FullBufferDoesNotBlock(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe(TopicDataChanged)
	defer cancel()

	for i := 0; i < 10; i++ {
		bus.Publish(TopicDataChanged, NewEvent("ui", ""))
	}
	assert.Len(t, ch, 1)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe(TopicDataChanged)
	cancel()
	cancel()

	bus.Publish(TopicDataChanged, NewEvent("ui", ""))
	_, open := <-ch
	require.False(t, open)
}
