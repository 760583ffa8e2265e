package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"

	"animal-watch-bot/internal/domain/entity"
)

func grayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func TestNewFrameHighlighter_Colors(t *testing.T) {
	h, err := NewFrameHighlighter("#00ff00", "#ff0000")
	require.NoError(t, err)
	require.Equal(t, color.RGBA{G: 255, A: 255}, h.Expected)
	require.Equal(t, color.RGBA{R: 255, A: 255}, h.Unexpected)

	_, err = NewFrameHighlighter("green", "#ff0000")
	require.Error(t, err)
}

func TestFrameHighlighter_Highlight(t *testing.T) {
	h, err := NewFrameHighlighter("#00ff00", "#ff0000")
	require.NoError(t, err)
	h.Thickness = 4

	animal := entity.Animal{Key: "bird", Label: "bird"}
	result := &entity.DetectionResult{Detections: []entity.Detection{
		{Label: "bird", Confidence: 0.95, Box: entity.Box{X1: 10, Y1: 30, X2: 60, Y2: 90}},
		{Label: "person", Confidence: 0.97, Box: entity.Box{X1: 100, Y1: 30, X2: 150, Y2: 90}},
		{Label: "ghost", Confidence: 0.99, Box: entity.Box{X1: 500, Y1: 500, X2: 600, Y2: 600}},
	}}

	out, err := h.Highlight(grayJPEG(t, 200, 120), result, animal)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 200, 120), img.Bounds())

	// левая граница рамки ожидаемого объекта зелёная
	r, g, _, _ := img.At(11, 60).RGBA()
	require.Greater(t, g>>8, uint32(180))
	require.Less(t, r>>8, uint32(100))

	// левая граница неожиданного объекта красная
	r, g, _, _ = img.At(101, 60).RGBA()
	require.Greater(t, r>>8, uint32(180))
	require.Less(t, g>>8, uint32(100))
}

func TestFrameHighlighter_BadImage(t *testing.T) {
	h, err := NewFrameHighlighter("#00ff00", "#ff0000")
	require.NoError(t, err)

	_, err = h.Highlight([]byte("not a jpeg"), nil, entity.Animal{})
	require.Error(t, err)
}
