package entity

// Subscription связывает чат с животным, за которым он следит.
type Subscription struct {
	ChatID    int64  // Telegram Chat ID
	AnimalKey string // ключ животного из каталога
}

// NewSubscription создаёт подписку чата на животное
func NewSubscription(chatID int64, animalKey string) Subscription {
	return Subscription{ChatID: chatID, AnimalKey: animalKey}
}
