package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := New()
	a := bus.Subscribe(8)
	b := bus.Subscribe(8)
	defer a.Close()
	defer b.Close()

	bus.Publish(Event{Kind: ProductChanged, ID: 42})

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, ProductChanged, ev.Kind)
			assert.Equal(t, int64(42), ev.ID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestDeliveryOrderMatchesPublishOrder(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(16)
	defer sub.Close()

	for i := int64(1); i <= 10; i++ {
		bus.Publish(Event{Kind: ProductChanged, ID: i})
	}

	for i := int64(1); i <= 10; i++ {
		ev := <-sub.Events()
		require.Equal(t, i, ev.ID)
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(2)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := int64(0); i < 100; i++ {
			bus.Publish(Event{Kind: CategoryChanged, ID: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	assert.True(t, sub.Overflowed())
	assert.False(t, sub.Overflowed(), "flag should reset after read")
}

func TestPublishAfterSubscriptionClose(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(4)
	sub.Close()
	sub.Close() // idempotent

	bus.Publish(Event{Kind: ProductDeleted, ID: 7})
	assert.Equal(t, 0, bus.SubscriberCount())

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed")
}
