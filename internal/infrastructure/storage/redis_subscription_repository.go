package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

const (
	chatKeyPrefix   = "watch:chat:"   // set ключей животных чата
	animalKeyPrefix = "watch:animal:" // set чатов, подписанных на животное
	chatsIndexKey   = "watch:chats"   // set всех чатов с подписками
)

// RedisSubscriptionRepository хранит подписки в Redis-множествах.
type RedisSubscriptionRepository struct {
	cli *redis.Client
}

// NewRedisSubscriptionRepository создаёт хранилище поверх готового клиента
func NewRedisSubscriptionRepository(cli *redis.Client) *RedisSubscriptionRepository {
	return &RedisSubscriptionRepository{cli: cli}
}

func chatKey(chatID int64) string    { return chatKeyPrefix + strconv.FormatInt(chatID, 10) }
func animalKey(animal string) string { return animalKeyPrefix + animal }

func (r *RedisSubscriptionRepository) Add(ctx context.Context, sub entity.Subscription) (bool, error) {
	var added *redis.IntCmd
	_, err := r.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		added = p.SAdd(ctx, chatKey(sub.ChatID), sub.AnimalKey)
		p.SAdd(ctx, animalKey(sub.AnimalKey), sub.ChatID)
		p.SAdd(ctx, chatsIndexKey, sub.ChatID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: add subscription: %w", err)
	}
	return added.Val() > 0, nil
}

func (r *RedisSubscriptionRepository) Remove(ctx context.Context, sub entity.Subscription) (bool, error) {
	var removed *redis.IntCmd
	var left *redis.IntCmd
	_, err := r.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.SRem(ctx, chatKey(sub.ChatID), sub.AnimalKey)
		p.SRem(ctx, animalKey(sub.AnimalKey), sub.ChatID)
		left = p.SCard(ctx, chatKey(sub.ChatID))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: remove subscription: %w", err)
	}
	if left.Val() == 0 {
		if err := r.cli.SRem(ctx, chatsIndexKey, sub.ChatID).Err(); err != nil {
			return false, fmt.Errorf("redis: remove chat index: %w", err)
		}
	}
	return removed.Val() > 0, nil
}

func (r *RedisSubscriptionRepository) ListByChat(ctx context.Context, chatID int64) ([]string, error) {
	keys, err := r.cli.SMembers(ctx, chatKey(chatID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list chat subscriptions: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisSubscriptionRepository) ListSubscribers(ctx context.Context, animal string) ([]int64, error) {
	members, err := r.cli.SMembers(ctx, animalKey(animal)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list subscribers: %w", err)
	}
	return parseChatIDs(members)
}

func (r *RedisSubscriptionRepository) All(ctx context.Context) ([]entity.Subscription, error) {
	members, err := r.cli.SMembers(ctx, chatsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list chats: %w", err)
	}
	chats, err := parseChatIDs(members)
	if err != nil {
		return nil, err
	}

	var out []entity.Subscription
	for _, chatID := range chats {
		keys, err := r.ListByChat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			out = append(out, entity.NewSubscription(chatID, key))
		}
	}
	return out, nil
}

func parseChatIDs(members []string) ([]int64, error) {
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: bad chat id %q: %w", m, err)
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

var _ port.SubscriptionRepository = (*RedisSubscriptionRepository)(nil)
