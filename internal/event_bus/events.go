package event_bus

import "time"

const (
	OwnerLinkedType   EventType = "owner.telegram.linked"
	OwnerUnlinkedType EventType = "owner.telegram.unlinked"
)

// OwnerLinked is published once a user has a Telegram chat to deliver to.
type OwnerLinked struct {
	UserId           int
	TelegramUsername string
	ChatId           int64
	LinkedAt         time.Time
}

type OwnerUnlinked struct {
	UserId int
	ChatId int64
}
