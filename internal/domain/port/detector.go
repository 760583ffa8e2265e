package port

import (
	"context"

	"animal-watch-bot/internal/domain/entity"
)

// ObjectDetector интерфейс детектора объектов на кадре
type ObjectDetector interface {
	// Detect анализирует JPEG-кадр и возвращает найденные объекты
	Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error)
}

// Highlighter рисует рамки найденных объектов поверх кадра.
type Highlighter interface {
	// Highlight возвращает JPEG с рамками; объекты, отличные от животного, выделяются особо
	Highlight(imageData []byte, result *entity.DetectionResult, animal entity.Animal) ([]byte, error)
}
