package entity

import "time"

// Frame хранит кадр трансляции, закодированный в JPEG.
type Frame struct {
	Seq        uint64
	CapturedAt time.Time
	Width      int
	Height     int
	Data       []byte
}
