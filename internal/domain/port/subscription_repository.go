package port

import (
	"context"

	"animal-watch-bot/internal/domain/entity"
)

// SubscriptionRepository интерфейс хранилища подписок
type SubscriptionRepository interface {
	// Add добавляет подписку; false, если она уже была
	Add(ctx context.Context, sub entity.Subscription) (bool, error)

	// Remove удаляет подписку; false, если её не было
	Remove(ctx context.Context, sub entity.Subscription) (bool, error)

	// ListByChat возвращает ключи животных, за которыми следит чат
	ListByChat(ctx context.Context, chatID int64) ([]string, error)

	// ListSubscribers возвращает чаты, подписанные на животное
	ListSubscribers(ctx context.Context, animalKey string) ([]int64, error)

	// All возвращает все подписки
	All(ctx context.Context) ([]entity.Subscription, error)
}

// AlertRepository хранит историю уведомлений.
type AlertRepository interface {
	Save(ctx context.Context, alert *entity.Alert) error
	Recent(ctx context.Context, limit int) ([]*entity.Alert, error)
}

// RateLimiter ограничивает частоту дорогих команд.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AnimalCatalog отдаёт справочник животных, доступных в боте.
type AnimalCatalog interface {
	// Get возвращает животное по ключу или derror.ErrUnknownAnimal
	Get(key string) (entity.Animal, error)

	// All возвращает животных в порядке каталога
	All() []entity.Animal
}
