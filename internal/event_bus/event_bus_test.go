package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should call handlers in registration order", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var calls []int
		for i := 1; i <= 5; i++ {
			bus.Subscribe("test", func(e Event) error {
				calls = append(calls, i)
				return nil
			})
		}

		// when
		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		// then
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
	})

	t.Run("should keep running handlers after a failure or panic", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		bus.Subscribe("test", func(e Event) error { return errors.New("boom") })
		bus.Subscribe("test", func(e Event) error { panic("oops") })
		bus.Subscribe("test", func(e Event) error {
			called = true
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Contains(t, err.Error(), "oops")
		assert.True(t, called)
	})

	t.Run("should not call handlers with a cancelled context", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		bus.Subscribe("test", func(e Event) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := bus.Publish(NewEvent(ctx, "test", nil))

		// then
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("should stop calling an unsubscribed handler", func(t *testing.T) {
		// given
		bus := NewEventBus()
		count := 0
		unsubscribe := bus.Subscribe("test", func(e Event) error {
			count++
			return nil
		})

		// when
		_ = bus.Publish(NewEvent(context.Background(), "test", nil))
		unsubscribe()
		_ = bus.Publish(NewEvent(context.Background(), "test", nil))

		// then
		assert.Equal(t, 1, count)
	})
}

func TestSubscribeTyped(t *testing.T) {
	t.Run("should deliver matching payloads with the publish context", func(t *testing.T) {
		// given
		type key struct{}
		bus := NewEventBus()
		var received OwnerLinked
		var fromCtx any
		SubscribeTyped(bus, OwnerLinkedType, func(e EventT[OwnerLinked]) error {
			received = e.Data
			fromCtx = e.Context().Value(key{})
			return nil
		})
		ctx := context.WithValue(context.Background(), key{}, "value")

		// when
		err := bus.Publish(NewEvent(ctx, OwnerLinkedType, OwnerLinked{UserId: 7, ChatId: 42}))

		// then
		require.NoError(t, err)
		assert.Equal(t, 7, received.UserId)
		assert.Equal(t, int64(42), received.ChatId)
		assert.Equal(t, "value", fromCtx)
	})

	t.Run("should skip mismatched and nil payloads", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		SubscribeTyped(bus, OwnerLinkedType, func(e EventT[OwnerLinked]) error {
			called = true
			return nil
		})

		// when
		err1 := bus.Publish(NewEvent(context.Background(), OwnerLinkedType, "not a payload"))
		err2 := bus.Publish(NewEvent(context.Background(), OwnerLinkedType, nil))

		// then
		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.False(t, called)
	})
}
