package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

// HTTPDetector отправляет кадр во внешний сервис детекции
// (предобученная модель, например DETR) и разбирает ответ.
//
// Сервис принимает JPEG в теле POST-запроса и отвечает JSON вида
//
//	{"width": 1280, "height": 720,
//	 "detections": [{"label": "bird", "score": 0.97, "box": [x1, y1, x2, y2]}]}
type HTTPDetector struct {
	URL       string
	Threshold float64
	Client    *http.Client
}

// NewHTTPDetector создаёт клиент сервиса детекции.
func NewHTTPDetector(url string, threshold float64) *HTTPDetector {
	return &HTTPDetector{
		URL:       url,
		Threshold: threshold,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type detectResponse struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	Detections []struct {
		Label string     `json:"label"`
		Score float64    `json:"score"`
		Box   [4]float64 `json:"box"`
	} `json:"detections"`
}

// Detect отправляет кадр и возвращает объекты с уверенностью не ниже порога.
func (d *HTTPDetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detect request: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var payload detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode detect response: %w", err)
	}

	result := &entity.DetectionResult{
		ImageWidth:  payload.Width,
		ImageHeight: payload.Height,
		Detections:  make([]entity.Detection, 0, len(payload.Detections)),
	}
	for _, det := range payload.Detections {
		result.Detections = append(result.Detections, entity.Detection{
			Label:      det.Label,
			Confidence: det.Score,
			Box: entity.Box{
				X1: int(det.Box[0]),
				Y1: int(det.Box[1]),
				X2: int(det.Box[2]),
				Y2: int(det.Box[3]),
			},
		})
	}
	result.Filter(d.Threshold)

	return result, nil
}

var (
	_ port.ObjectDetector = (*HTTPDetector)(nil)
	_ port.ObjectDetector = (*DNNDetector)(nil)
)
