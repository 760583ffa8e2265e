//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"animal-watch-bot/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// DNNDetector: заглушка для сборки без OpenCV.
type DNNDetector struct {
	Threshold float64
	InputSize int
}

// NewDNNDetector возвращает ошибку, если сборка без тега gocv.
func NewDNNDetector(model, config, labelsPath string, threshold float64) (*DNNDetector, error) {
	_, _, _ = model, config, labelsPath
	return nil, errNoGoCV
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *DNNDetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	_ = ctx
	_ = imageData
	return nil, errNoGoCV
}

// Close ничего не делает.
func (d *DNNDetector) Close() error { return nil }
