package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

const maxFrameSize = 16 << 20

// FFmpegOpener открывает трансляции через процесс ffmpeg, который пишет
// MJPEG-кадры в stdout.
type FFmpegOpener struct {
	FFmpegPath string
	FPS        float64 // частота выборки кадров
	Resolver   Resolver
	Log        zerolog.Logger
}

// NewFFmpegOpener создаёт открыватель с выборкой один кадр в секунду.
func NewFFmpegOpener(ffmpegPath string, resolver Resolver, log zerolog.Logger) *FFmpegOpener {
	return &FFmpegOpener{
		FFmpegPath: ffmpegPath,
		FPS:        1,
		Resolver:   resolver,
		Log:        log,
	}
}

// Open запускает ffmpeg и возвращает поток, отдающий последний кадр.
func (o *FFmpegOpener) Open(ctx context.Context, source string) (port.Stream, error) {
	input, err := o.Resolver.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if isLocalFile(input) {
		// файл читаем в темпе воспроизведения, как живую трансляцию
		args = append(args, "-re")
	}
	args = append(args,
		"-i", input,
		"-an",
		"-vf", "fps="+strconv.FormatFloat(o.FPS, 'f', -1, 64),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"-",
	)

	// процесс живёт дольше ctx запроса: останавливается через Close
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, o.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, n: 4096}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := newFrameStream(cancel)
	go func() {
		readErr := s.consume(stdout)
		waitErr := cmd.Wait()
		if s.closing() {
			s.finish(nil)
			return
		}
		if readErr == nil && waitErr != nil {
			readErr = fmt.Errorf("ffmpeg error: %w, output: %s", waitErr, bytes.TrimSpace(stderr.Bytes()))
		}
		if readErr != nil {
			o.Log.Warn().Err(readErr).Str("source", source).Msg("ffmpeg stream ended")
		}
		s.finish(readErr)
	}()

	o.Log.Debug().Str("source", source).Msg("ffmpeg stream opened")
	return s, nil
}

// frameStream хранит последний кадр, прочитанный из MJPEG-потока.
type frameStream struct {
	cancel context.CancelFunc

	mu        sync.Mutex
	latest    *entity.Frame
	delivered uint64
	seq       uint64
	finished  bool
	closed    bool
	err       error

	updated chan struct{}
	done    chan struct{}
}

func newFrameStream(cancel context.CancelFunc) *frameStream {
	return &frameStream{
		cancel:  cancel,
		updated: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// consume читает кадры, пока поток не закончится.
func (s *frameStream) consume(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), maxFrameSize)
	sc.Split(scanJPEG)
	for sc.Scan() {
		s.push(sc.Bytes())
	}
	return sc.Err()
}

func (s *frameStream) push(data []byte) {
	frame := &entity.Frame{
		CapturedAt: time.Now(),
		Data:       append([]byte(nil), data...),
	}
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		frame.Width, frame.Height = cfg.Width, cfg.Height
	}

	s.mu.Lock()
	s.seq++
	frame.Seq = s.seq
	s.latest = frame
	s.mu.Unlock()

	select {
	case s.updated <- struct{}{}:
	default:
	}
}

func (s *frameStream) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	close(s.done)
}

func (s *frameStream) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Read возвращает последний кадр, не дожидаясь следующего. Пока ffmpeg жив,
// один и тот же кадр может вернуться повторно с тем же Seq. Ждёт только
// первого кадра. После конца трансляции отдаёт ещё не выданный кадр, затем io.EOF.
func (s *frameStream) Read(ctx context.Context) (*entity.Frame, error) {
	for {
		s.mu.Lock()
		latest, finished, err := s.latest, s.finished, s.err
		if latest != nil && (latest.Seq > s.delivered || !finished) {
			s.delivered = latest.Seq
			s.mu.Unlock()
			return latest, nil
		}
		s.mu.Unlock()

		if finished {
			if err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.updated:
		case <-s.done:
		}
	}
}

// Close останавливает ffmpeg; повторный вызов ничего не делает.
func (s *frameStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(3 * time.Second):
		return errors.New("ffmpeg did not stop in time")
	}
	return nil
}

// scanJPEG: bufio.SplitFunc, выделяющий JPEG-кадры по маркерам SOI/EOI.
func scanJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// последний байт может оказаться началом маркера
		if len(data) > 1 {
			return len(data) - 1, nil, nil
		}
		return 0, nil, nil
	}

	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	end += start + len(jpegSOI) + len(jpegEOI)
	return end, data[start:end], nil
}

// limitedWriter хранит не больше n байт вывода.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return len(p), nil
	}
	chunk := p
	if len(chunk) > l.n {
		chunk = chunk[:l.n]
	}
	n, err := l.w.Write(chunk)
	l.n -= n
	if err != nil {
		return n, err
	}
	return len(p), nil
}

var _ port.StreamOpener = (*FFmpegOpener)(nil)
