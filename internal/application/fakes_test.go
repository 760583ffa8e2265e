package app

import (
	"context"
	"errors"
	"sync"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

type fakeStream struct {
	mu      sync.Mutex
	frames  [][]byte
	err     error // после кадров; при nil Read ждёт отмены контекста
	stuck   bool  // после кадров повторять последний кадр
	last    *entity.Frame
	seq     uint64
	closed  int
	reads   int
	aborted int
}

func (s *fakeStream) Read(ctx context.Context) (*entity.Frame, error) {
	s.mu.Lock()
	s.reads++
	if len(s.frames) > 0 {
		s.seq++
		s.last = &entity.Frame{Seq: s.seq, Data: s.frames[0]}
		s.frames = s.frames[1:]
		f := s.last
		s.mu.Unlock()
		return f, nil
	}
	if s.stuck && s.last != nil {
		f := s.last
		s.mu.Unlock()
		return f, nil
	}
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	<-ctx.Done()
	s.mu.Lock()
	s.aborted++
	s.mu.Unlock()
	return nil, ctx.Err()
}

func (s *fakeStream) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStream) abortedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) closedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeOpener struct {
	mu      sync.Mutex
	newFn   func() *fakeStream
	opened  []*fakeStream
	sources []string
	err     error
}

func (o *fakeOpener) Open(ctx context.Context, source string) (port.Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeStream{}
	if o.newFn != nil {
		s = o.newFn()
	}
	o.opened = append(o.opened, s)
	o.sources = append(o.sources, source)
	return s, nil
}

func (o *fakeOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

func (o *fakeOpener) last() *fakeStream {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened[len(o.opened)-1]
}

// fakeDetector возвращает метки по содержимому кадра.
type fakeDetector struct {
	labels map[string][]string
	err    error
}

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	res := &entity.DetectionResult{ImageWidth: 100, ImageHeight: 100}
	for _, l := range d.labels[string(imageData)] {
		res.Detections = append(res.Detections, entity.Detection{
			Label:      l,
			Confidence: 1,
			Box:        entity.Box{X1: 10, Y1: 10, X2: 50, Y2: 50},
		})
	}
	return res, nil
}

type fakeHighlighter struct{}

func (fakeHighlighter) Highlight(imageData []byte, result *entity.DetectionResult, animal entity.Animal) ([]byte, error) {
	return append([]byte("hl:"), imageData...), nil
}

type sentPhoto struct {
	chatID  int64
	caption string
	photo   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	photos []sentPhoto
	failTo map[int64]bool
}

func (n *fakeNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	return nil
}

func (n *fakeNotifier) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failTo[chatID] {
		return errors.New("chat unavailable")
	}
	n.photos = append(n.photos, sentPhoto{chatID: chatID, caption: caption, photo: string(photo)})
	return nil
}

func (n *fakeNotifier) sent() []sentPhoto {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentPhoto, len(n.photos))
	copy(out, n.photos)
	return out
}

type fakeLimiter struct {
	allow bool
}

func (l fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.allow, nil
}
