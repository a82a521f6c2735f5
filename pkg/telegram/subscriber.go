package telegram

import (
	"github.com/keepsake/keepsake/internal/event_bus"
)

// SubscribeLinkNotifications confirms link changes in the affected chat.
func SubscribeLinkNotifications(bus *event_bus.EventBus, gateway *Gateway) (unsubscribe func()) {
	unsubLinked := event_bus.SubscribeTyped(bus, event_bus.OwnerLinkedType,
		func(e event_bus.EventT[event_bus.OwnerLinked]) error {
			return gateway.SendText(e.Context(), e.Data.ChatId, linkedMessage)
		})
	unsubUnlinked := event_bus.SubscribeTyped(bus, event_bus.OwnerUnlinkedType,
		func(e event_bus.EventT[event_bus.OwnerUnlinked]) error {
			return gateway.SendText(e.Context(), e.Data.ChatId, unlinkedMessage)
		})
	return func() {
		unsubLinked()
		unsubUnlinked()
	}
}
