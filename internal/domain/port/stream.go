package port

import (
	"context"

	"animal-watch-bot/internal/domain/entity"
)

// Stream описывает открытый источник видео.
//
// Read возвращает последний доступный кадр; io.EOF означает конец трансляции.
// Если новых кадров нет, Read может вернуть прежний кадр с тем же Seq.
// Close можно вызывать несколько раз.
type Stream interface {
	Read(ctx context.Context) (*entity.Frame, error)
	Close() error
}

// StreamOpener открывает источник по адресу трансляции.
type StreamOpener interface {
	Open(ctx context.Context, source string) (Stream, error)
}
