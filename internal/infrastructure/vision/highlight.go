package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

// FrameHighlighter рисует рамки объектов: ожидаемые одним цветом, неожиданные другим.
type FrameHighlighter struct {
	Expected   color.RGBA
	Unexpected color.RGBA
	Thickness  int
	Quality    int
}

// NewFrameHighlighter принимает цвета в формате "#rrggbb".
func NewFrameHighlighter(expectedHex, unexpectedHex string) (*FrameHighlighter, error) {
	expected, err := parseHex(expectedHex)
	if err != nil {
		return nil, err
	}
	unexpected, err := parseHex(unexpectedHex)
	if err != nil {
		return nil, err
	}
	return &FrameHighlighter{
		Expected:   expected,
		Unexpected: unexpected,
		Thickness:  2,
		Quality:    90,
	}, nil
}

func parseHex(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Highlight возвращает новый JPEG с рамками и подписями.
func (h *FrameHighlighter) Highlight(imageData []byte, result *entity.DetectionResult, animal entity.Animal) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, errors.New("empty image")
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	if result != nil {
		for _, det := range result.Detections {
			c := h.Expected
			if !animal.IsExpected(det.Label) {
				c = h.Unexpected
			}
			rect := image.Rect(det.Box.X1, det.Box.Y1, det.Box.X2, det.Box.Y2).Add(bounds.Min).Intersect(bounds)
			if rect.Empty() {
				continue
			}
			h.strokeRect(canvas, rect, c)
			drawCaption(canvas, rect, fmt.Sprintf("%s %.2f", det.Label, det.Confidence), c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: h.Quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (h *FrameHighlighter) strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	t := h.Thickness
	if t <= 0 {
		t = 1
	}
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

// drawCaption пишет подпись над рамкой (или внутри, если сверху нет места).
func drawCaption(img *image.RGBA, r image.Rectangle, text string, c color.RGBA) {
	face := basicfont.Face7x13
	y := r.Min.Y - 3
	if y-face.Ascent < img.Bounds().Min.Y {
		y = r.Min.Y + face.Ascent + 2
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(r.Min.X+2, y),
	}
	d.DrawString(text)
}

var _ port.Highlighter = (*FrameHighlighter)(nil)
