//go:build gocv
// +build gocv

package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

// GoCVOpener открывает трансляции через OpenCV VideoCapture.
type GoCVOpener struct {
	Resolver Resolver
}

// NewGoCVOpener создаёт открыватель на OpenCV.
func NewGoCVOpener(resolver Resolver) (*GoCVOpener, error) {
	return &GoCVOpener{Resolver: resolver}, nil
}

func (o *GoCVOpener) Open(ctx context.Context, source string) (port.Stream, error) {
	input, err := o.Resolver.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture is not opened")
	}
	// держим в буфере только свежий кадр
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	return &captureStream{capture: capture, img: gocv.NewMat()}, nil
}

type captureStream struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	img     gocv.Mat
	seq     uint64
	closed  bool
}

func (s *captureStream) Read(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, io.EOF
	}
	if !s.capture.Read(&s.img) || s.img.Empty() {
		return nil, io.EOF
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	s.seq++
	return &entity.Frame{
		Seq:        s.seq,
		CapturedAt: time.Now(),
		Width:      s.img.Cols(),
		Height:     s.img.Rows(),
		Data:       append([]byte(nil), buf.GetBytes()...),
	}, nil
}

func (s *captureStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.img.Close()
	return s.capture.Close()
}

var _ port.StreamOpener = (*GoCVOpener)(nil)
