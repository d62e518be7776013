package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishDeliversInOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe("ledger.transfer", func(e Event) {
		got = append(got, "first:"+e.Source)
	})
	bus.Subscribe("ledger.transfer", func(e Event) {
		got = append(got, "second:"+e.Source)
	})

	bus.Publish("ledger.transfer", "ledger", nil)

	require.Len(t, got, 2)
	assert.Equal(t, "first:ledger", got[0])
	assert.Equal(t, "second:ledger", got[1])
}

func TestBusPublishFillsEnvelope(t *testing.T) {
	bus := NewBus()

	var captured Event
	bus.Subscribe("compliance.paused", func(e Event) {
		captured = e
	})

	payload := map[string]string{"actor": "0xabc"}
	bus.Publish("compliance.paused", "compliance", payload)

	require.NotEmpty(t, captured.ID)
	assert.Equal(t, "compliance.paused", captured.Topic)
	assert.Equal(t, "compliance", captured.Source)
	assert.False(t, captured.Timestamp.IsZero())
	assert.Equal(t, payload, captured.Data)
}

func TestBusTopicIsolation(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe("ledger.mint", func(Event) { calls++ })

	bus.Publish("ledger.burn", "ledger", nil)
	assert.Zero(t, calls)

	bus.Publish("ledger.mint", "ledger", nil)
	assert.Equal(t, 1, calls)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	cancel := bus.Subscribe("roles.granted", func(Event) { calls++ })

	bus.Publish("roles.granted", "accessctl", nil)
	require.Equal(t, 1, calls)

	cancel()
	// A second cancel of the same subscription is a no-op.
	cancel()

	bus.Publish("roles.granted", "accessctl", nil)
	assert.Equal(t, 1, calls)
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := 0
	bus.Subscribe("fees.updated", func(Event) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish("fees.updated", "fees", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, seen)
}
