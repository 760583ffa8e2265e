//go:build !gocv
// +build !gocv

package stream

import (
	"context"
	"errors"

	"animal-watch-bot/internal/domain/port"
)

// GoCVOpener: заглушка для сборки без OpenCV.
type GoCVOpener struct {
	Resolver Resolver
}

// NewGoCVOpener возвращает ошибку, если сборка без тега gocv.
func NewGoCVOpener(resolver Resolver) (*GoCVOpener, error) {
	_ = resolver
	return nil, errors.New("gocv build tag is not enabled")
}

// Open возвращает ошибку, если сборка без тега gocv.
func (o *GoCVOpener) Open(ctx context.Context, source string) (port.Stream, error) {
	_ = ctx
	_ = source
	return nil, errors.New("gocv build tag is not enabled")
}
