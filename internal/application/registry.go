package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"animal-watch-bot/internal/domain/port"
)

// StreamRegistry хранит открытые трансляции: не больше одной на животное.
type StreamRegistry struct {
	catalog port.AnimalCatalog
	opener  port.StreamOpener
	log     zerolog.Logger

	mu      sync.Mutex
	streams map[string]port.Stream
}

func NewStreamRegistry(catalog port.AnimalCatalog, opener port.StreamOpener, log zerolog.Logger) *StreamRegistry {
	return &StreamRegistry{
		catalog: catalog,
		opener:  opener,
		log:     log,
		streams: make(map[string]port.Stream),
	}
}

// Open открывает трансляцию животного. Если она уже открыта, возвращает её же.
func (r *StreamRegistry) Open(ctx context.Context, key string) (port.Stream, error) {
	animal, err := r.catalog.Get(key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.streams[key]; ok {
		return s, nil
	}

	s, err := r.opener.Open(ctx, animal.Source)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", key, err)
	}
	r.streams[key] = s
	r.log.Info().Str("animal", key).Msg("stream opened")
	return s, nil
}

// Close останавливает трансляцию; закрытие неоткрытой ничего не делает.
func (r *StreamRegistry) Close(key string) error {
	if _, err := r.catalog.Get(key); err != nil {
		return err
	}

	r.mu.Lock()
	s, ok := r.streams[key]
	delete(r.streams, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.log.Info().Str("animal", key).Msg("stream closed")
	return s.Close()
}

// Release закрывает трансляцию, только если под ключом всё ещё открыта именно она.
func (r *StreamRegistry) Release(key string, stream port.Stream) error {
	r.mu.Lock()
	current, ok := r.streams[key]
	if !ok || current != stream {
		r.mu.Unlock()
		return nil
	}
	delete(r.streams, key)
	r.mu.Unlock()

	r.log.Info().Str("animal", key).Msg("finished stream released")
	return stream.Close()
}

// Get возвращает открытую трансляцию или nil.
func (r *StreamRegistry) Get(key string) (port.Stream, error) {
	if _, err := r.catalog.Get(key); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[key], nil
}

// CloseAll закрывает все трансляции.
func (r *StreamRegistry) CloseAll() {
	r.mu.Lock()
	streams := r.streams
	r.streams = make(map[string]port.Stream)
	r.mu.Unlock()

	for key, s := range streams {
		if err := s.Close(); err != nil {
			r.log.Warn().Err(err).Str("animal", key).Msg("close stream")
		}
	}
}
