package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
	"animal-watch-bot/internal/infrastructure/metrics"
)

type MonitorConfig struct {
	Interval    time.Duration // пауза перед чтением каждого кадра
	ReadTimeout time.Duration // сколько ждать кадр; по умолчанию равен Interval
	MaxFailures int           // подряд идущих ошибок до остановки, 0 без ограничения
}

// errStaleFrame: трансляция отдаёт тот же кадр, новых не приходит.
var errStaleFrame = errors.New("no new frames from stream")

// MonitorService запускает фоновую проверку кадров, по одной задаче на животное.
type MonitorService struct {
	catalog     port.AnimalCatalog
	detector    port.ObjectDetector
	highlighter port.Highlighter
	notifier    port.Notifier
	subs        port.SubscriptionRepository
	alerts      port.AlertRepository
	cfg         MonitorConfig
	log         zerolog.Logger

	mu       sync.Mutex
	tasks    map[string]*monitorTask
	onFinish func(key string, stream port.Stream)
}

type monitorTask struct {
	stream port.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitorService(
	catalog port.AnimalCatalog,
	detector port.ObjectDetector,
	highlighter port.Highlighter,
	notifier port.Notifier,
	subs port.SubscriptionRepository,
	alerts port.AlertRepository,
	cfg MonitorConfig,
	log zerolog.Logger,
) *MonitorService {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = cfg.Interval
	}
	return &MonitorService{
		catalog:     catalog,
		detector:    detector,
		highlighter: highlighter,
		notifier:    notifier,
		subs:        subs,
		alerts:      alerts,
		cfg:         cfg,
		log:         log,
		tasks:       make(map[string]*monitorTask),
	}
}

// OnFinish задаёт обработчик, вызываемый, когда задача завершилась сама
// (конец трансляции или слишком много ошибок). Обработчик получает трансляцию,
// которую читала задача, и вызывается до того, как задача уберёт себя из списка.
func (m *MonitorService) OnFinish(fn func(key string, stream port.Stream)) {
	m.mu.Lock()
	m.onFinish = fn
	m.mu.Unlock()
}

// Start запускает проверку трансляции. Повторный запуск на той же трансляции
// и nil-трансляция ничего не делают. Задача, читающая другую трансляцию,
// уже завершается сама и заменяется новой.
func (m *MonitorService) Start(key string, stream port.Stream) error {
	animal, err := m.catalog.Get(key)
	if err != nil {
		return err
	}
	if stream == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.tasks[key]; ok {
		if old.stream == stream {
			return nil
		}
		old.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &monitorTask{stream: stream, cancel: cancel, done: make(chan struct{})}
	m.tasks[key] = t
	metrics.MonitorStarted()

	go m.run(ctx, t, animal, stream)
	return nil
}

// Stop останавливает задачу и ждёт её завершения.
func (m *MonitorService) Stop(key string) error {
	if _, err := m.catalog.Get(key); err != nil {
		return err
	}

	m.mu.Lock()
	t, ok := m.tasks[key]
	delete(m.tasks, key)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	t.cancel()
	<-t.done
	return nil
}

// Running сообщает, запущена ли задача для животного.
func (m *MonitorService) Running(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[key]
	return ok
}

// StopAll останавливает все задачи.
func (m *MonitorService) StopAll() {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = make(map[string]*monitorTask)
	m.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

func (m *MonitorService) run(ctx context.Context, t *monitorTask, animal entity.Animal, stream port.Stream) {
	log := m.log.With().Str("animal", animal.Key).Logger()
	log.Info().Dur("interval", m.cfg.Interval).Msg("monitor started")

	finished := false
	defer func() {
		metrics.MonitorStopped()
		if finished {
			m.finish(animal.Key, t)
		}
		close(t.done)
		log.Info().Bool("self_stopped", finished).Msg("monitor stopped")
	}()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	var (
		previous []string
		lastSeq  uint64
		failures int
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		unexpected, frame, result, err := m.inspect(ctx, animal, stream, lastSeq)
		if errors.Is(err, io.EOF) {
			log.Info().Msg("stream ended")
			finished = true
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			log.Warn().Err(err).Int("failures", failures).Msg("frame skipped")
			if m.cfg.MaxFailures > 0 && failures >= m.cfg.MaxFailures {
				log.Error().Int("failures", failures).Msg("too many consecutive failures")
				finished = true
				return
			}
			continue
		}
		failures = 0
		lastSeq = frame.Seq

		fresh := entity.NewLabels(previous, unexpected)
		previous = unexpected
		if len(unexpected) > 0 {
			log.Debug().Strs("unexpected", unexpected).Strs("new", fresh).Msg("unexpected objects")
		}
		if len(fresh) == 0 {
			continue
		}

		metrics.IncUnexpected(animal.Key, fresh)
		m.alert(ctx, log, animal, frame, result, unexpected)
	}
}

// finish освобождает трансляцию и убирает завершившуюся задачу, если её не
// заменили и не остановили. Трансляция освобождается раньше, чем задача уходит
// из списка: новая подписка либо увидит живую задачу, либо откроет новую трансляцию.
func (m *MonitorService) finish(key string, t *monitorTask) {
	m.mu.Lock()
	own := m.tasks[key] == t
	hook := m.onFinish
	m.mu.Unlock()

	if !own {
		return
	}
	if hook != nil {
		hook(key, t.stream)
	}

	m.mu.Lock()
	if m.tasks[key] == t {
		delete(m.tasks, key)
	}
	m.mu.Unlock()
}

func (m *MonitorService) inspect(ctx context.Context, animal entity.Animal, stream port.Stream, lastSeq uint64) ([]string, *entity.Frame, *entity.DetectionResult, error) {
	readCtx, cancel := context.WithTimeout(ctx, m.cfg.ReadTimeout)
	frame, err := stream.Read(readCtx)
	cancel()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil, err
		}
		metrics.IncFrameFailure(animal.Key, "read")
		return nil, nil, nil, fmt.Errorf("read frame: %w", err)
	}
	if frame.Seq != 0 && frame.Seq <= lastSeq {
		metrics.IncFrameFailure(animal.Key, "read")
		return nil, nil, nil, errStaleFrame
	}

	start := time.Now()
	result, err := m.detector.Detect(ctx, frame.Data)
	metrics.ObserveDetection(time.Since(start), err == nil)
	if err != nil {
		metrics.IncFrameFailure(animal.Key, "detect")
		return nil, nil, nil, fmt.Errorf("detect: %w", err)
	}
	metrics.IncFrameProcessed(animal.Key)

	return result.Unexpected(animal), frame, result, nil
}

func (m *MonitorService) alert(ctx context.Context, log zerolog.Logger, animal entity.Animal, frame *entity.Frame, result *entity.DetectionResult, labels []string) {
	chats, err := m.subs.ListSubscribers(ctx, animal.Key)
	if err != nil {
		log.Error().Err(err).Msg("list subscribers")
		return
	}

	photo := frame.Data
	if m.highlighter != nil {
		if img, err := m.highlighter.Highlight(frame.Data, result, animal); err != nil {
			metrics.IncFrameFailure(animal.Key, "highlight")
			log.Warn().Err(err).Msg("highlight frame")
		} else {
			photo = img
		}
	}

	caption := AlertCaption(animal, labels)
	delivered := 0
	for _, chatID := range chats {
		if err := m.notifier.SendPhoto(ctx, chatID, photo, caption); err != nil {
			metrics.IncAlert(animal.Key, false)
			log.Error().Err(err).Int64("chat_id", chatID).Msg("send alert")
			continue
		}
		metrics.IncAlert(animal.Key, true)
		delivered++
	}

	log.Info().Strs("labels", labels).Int("chats", delivered).Msg("alert sent")

	if m.alerts != nil {
		if err := m.alerts.Save(ctx, entity.NewAlert(animal.Key, labels, delivered)); err != nil {
			log.Warn().Err(err).Msg("save alert")
		}
	}
}

// AlertCaption формирует подпись к фото с неожиданными объектами.
func AlertCaption(animal entity.Animal, labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "'" + l + "'"
	}
	return fmt.Sprintf("Ого, у %s неожиданно обнаружен(ы) объект(ы) типа %s!",
		animal.Genitive, strings.Join(quoted, ", "))
}
