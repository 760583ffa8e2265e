package storage

import (
	"context"
	"sort"
	"sync"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

// MemorySubscriptionRepository in-memory хранилище подписок
type MemorySubscriptionRepository struct {
	mu     sync.RWMutex
	byChat map[int64]map[string]struct{}
}

// NewMemorySubscriptionRepository создаёт новое in-memory хранилище
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{
		byChat: make(map[int64]map[string]struct{}),
	}
}

// Add добавляет подписку
func (r *MemorySubscriptionRepository) Add(ctx context.Context, sub entity.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.byChat[sub.ChatID]
	if !ok {
		keys = make(map[string]struct{})
		r.byChat[sub.ChatID] = keys
	}
	if _, exists := keys[sub.AnimalKey]; exists {
		return false, nil
	}
	keys[sub.AnimalKey] = struct{}{}
	return true, nil
}

// Remove удаляет подписку
func (r *MemorySubscriptionRepository) Remove(ctx context.Context, sub entity.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.byChat[sub.ChatID]
	if !ok {
		return false, nil
	}
	if _, exists := keys[sub.AnimalKey]; !exists {
		return false, nil
	}
	delete(keys, sub.AnimalKey)
	if len(keys) == 0 {
		delete(r.byChat, sub.ChatID)
	}
	return true, nil
}

// ListByChat возвращает ключи животных чата
func (r *MemorySubscriptionRepository) ListByChat(ctx context.Context, chatID int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byChat[chatID]))
	for key := range r.byChat[chatID] {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// ListSubscribers возвращает чаты, подписанные на животное
func (r *MemorySubscriptionRepository) ListSubscribers(ctx context.Context, animalKey string) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []int64
	for chatID, keys := range r.byChat {
		if _, ok := keys[animalKey]; ok {
			out = append(out, chatID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// All возвращает все подписки
func (r *MemorySubscriptionRepository) All(ctx context.Context) ([]entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.Subscription
	for chatID, keys := range r.byChat {
		for key := range keys {
			out = append(out, entity.NewSubscription(chatID, key))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChatID != out[j].ChatID {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].AnimalKey < out[j].AnimalKey
	})
	return out, nil
}

// Проверка реализации интерфейса
var _ port.SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
