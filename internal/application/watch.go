package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"animal-watch-bot/internal/domain/derror"
	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
	"animal-watch-bot/internal/infrastructure/metrics"
)

// snapshotReadTimeout ограничивает ожидание кадра для /now.
const snapshotReadTimeout = 5 * time.Second

// WatchService связывает подписки чатов с трансляциями и мониторами.
// Трансляция и монитор животного живут, пока на него подписан хотя бы один чат.
type WatchService struct {
	catalog     port.AnimalCatalog
	subs        port.SubscriptionRepository
	registry    *StreamRegistry
	monitors    *MonitorService
	detector    port.ObjectDetector
	highlighter port.Highlighter
	limiter     port.RateLimiter
	readTimeout time.Duration
	log         zerolog.Logger

	mu sync.Mutex
}

// SnapshotOutput содержит текущий кадр трансляции с подсветкой объектов.
type SnapshotOutput struct {
	Animal entity.Animal
	Result *entity.DetectionResult
	Image  []byte
}

func NewWatchService(
	catalog port.AnimalCatalog,
	subs port.SubscriptionRepository,
	registry *StreamRegistry,
	monitors *MonitorService,
	detector port.ObjectDetector,
	highlighter port.Highlighter,
	limiter port.RateLimiter,
	log zerolog.Logger,
) *WatchService {
	s := &WatchService{
		catalog:     catalog,
		subs:        subs,
		registry:    registry,
		monitors:    monitors,
		detector:    detector,
		highlighter: highlighter,
		limiter:     limiter,
		readTimeout: snapshotReadTimeout,
		log:         log,
	}
	// Закончившаяся трансляция больше не нужна; следующая подписка откроет её заново.
	monitors.OnFinish(func(key string, stream port.Stream) {
		if err := registry.Release(key, stream); err != nil {
			log.Warn().Err(err).Str("animal", key).Msg("close finished stream")
		}
	})
	return s
}

// Subscribe подписывает чат на животное и запускает наблюдение.
// Возвращает false, если чат уже был подписан.
func (s *WatchService) Subscribe(ctx context.Context, chatID int64, key string) (bool, error) {
	if _, err := s.catalog.Get(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.subs.Add(ctx, entity.NewSubscription(chatID, key))
	if err != nil {
		return false, fmt.Errorf("save subscription: %w", err)
	}
	if err := s.ensureWatching(ctx, key); err != nil {
		if added {
			if _, rerr := s.subs.Remove(ctx, entity.NewSubscription(chatID, key)); rerr != nil {
				s.log.Warn().Err(rerr).Msg("rollback subscription")
			}
		}
		return false, err
	}
	return added, nil
}

// Unsubscribe отписывает чат. Когда подписчиков не осталось, наблюдение останавливается.
// Возвращает false, если чат не был подписан.
func (s *WatchService) Unsubscribe(ctx context.Context, chatID int64, key string) (bool, error) {
	if _, err := s.catalog.Get(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.subs.Remove(ctx, entity.NewSubscription(chatID, key))
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}

	left, err := s.subs.ListSubscribers(ctx, key)
	if err != nil {
		return removed, fmt.Errorf("list subscribers: %w", err)
	}
	if len(left) == 0 {
		s.stopWatching(key)
	}
	return removed, nil
}

// Subscriptions возвращает животных, за которыми следит чат, в порядке каталога.
func (s *WatchService) Subscriptions(ctx context.Context, chatID int64) ([]entity.Animal, error) {
	keys, err := s.subs.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	var out []entity.Animal
	for _, a := range s.catalog.All() {
		if _, ok := set[a.Key]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Catalog возвращает всех доступных животных.
func (s *WatchService) Catalog() []entity.Animal {
	return s.catalog.All()
}

// Snapshot показывает, что происходит на трансляции прямо сейчас.
func (s *WatchService) Snapshot(ctx context.Context, chatID int64, key string) (*SnapshotOutput, error) {
	animal, err := s.catalog.Get(key)
	if err != nil {
		return nil, err
	}

	keys, err := s.subs.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !contains(keys, key) {
		return nil, derror.ErrNotSubscribed
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, "now:"+strconv.FormatInt(chatID, 10))
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncRateLimitTriggered()
			return nil, derror.ErrRateLimited
		}
	}

	stream, err := s.registry.Get(key)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, derror.ErrStreamNotOpened
	}
	if s.detector == nil {
		return nil, derror.ErrDetectorUnavailable
	}

	readCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	frame, err := stream.Read(readCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	result, err := s.detector.Detect(ctx, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	out := &SnapshotOutput{Animal: animal, Result: result, Image: frame.Data}
	if s.highlighter != nil {
		img, err := s.highlighter.Highlight(frame.Data, result, animal)
		if err != nil {
			s.log.Warn().Err(err).Str("animal", key).Msg("highlight snapshot")
		} else {
			out.Image = img
		}
	}
	return out, nil
}

// Restore поднимает трансляции и мониторы для сохранённых подписок.
func (s *WatchService) Restore(ctx context.Context) error {
	all, err := s.subs.All(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	keys := make(map[string]struct{})
	for _, sub := range all {
		keys[sub.AnimalKey] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key := range keys {
		if err := s.ensureWatching(ctx, key); err != nil {
			s.log.Error().Err(err).Str("animal", key).Msg("restore watching")
			errs = append(errs, err)
			continue
		}
		s.log.Info().Str("animal", key).Msg("watching restored")
	}
	return errors.Join(errs...)
}

// Shutdown останавливает все мониторы и закрывает трансляции.
func (s *WatchService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitors.StopAll()
	s.registry.CloseAll()
}

func (s *WatchService) ensureWatching(ctx context.Context, key string) error {
	stream, err := s.registry.Open(ctx, key)
	if err != nil {
		return err
	}
	return s.monitors.Start(key, stream)
}

func (s *WatchService) stopWatching(key string) {
	if err := s.monitors.Stop(key); err != nil {
		s.log.Warn().Err(err).Str("animal", key).Msg("stop monitor")
	}
	if err := s.registry.Close(key); err != nil {
		s.log.Warn().Err(err).Str("animal", key).Msg("close stream")
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
