//go:build gocv
// +build gocv

package vision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"animal-watch-bot/internal/domain/entity"
)

// DNNDetector запускает SSD-модель (COCO) через OpenCV DNN.
type DNNDetector struct {
	Threshold float64
	InputSize int

	mu     sync.Mutex // gocv.Net не потокобезопасен
	net    gocv.Net
	labels []string
}

// NewDNNDetector загружает веса, конфигурацию сети и список меток.
func NewDNNDetector(model, config, labelsPath string, threshold float64) (*DNNDetector, error) {
	if model == "" {
		return nil, errors.New("dnn model path is required")
	}
	labels, err := readLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read dnn model %s", model)
	}

	return &DNNDetector{
		Threshold: threshold,
		InputSize: 300,
		net:       net,
		labels:    labels,
	}, nil
}

// Detect декодирует кадр, прогоняет его через сеть и собирает объекты.
func (d *DNNDetector) Detect(ctx context.Context, imageData []byte) (*entity.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(d.InputSize, d.InputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	d.mu.Unlock()
	defer prob.Close()

	cols, rows := mat.Cols(), mat.Rows()
	result := &entity.DetectionResult{ImageWidth: cols, ImageHeight: rows}

	// Выход SSD: N строк по 7 значений [batch, class, score, x1, y1, x2, y2].
	for i := 0; i+6 < prob.Total(); i += 7 {
		score := float64(prob.GetFloatAt(0, i+2))
		if score < d.Threshold {
			continue
		}
		classID := int(prob.GetFloatAt(0, i+1))
		result.Detections = append(result.Detections, entity.Detection{
			Label:      d.label(classID),
			Confidence: score,
			Box: entity.Box{
				X1: clamp(int(prob.GetFloatAt(0, i+3)*float32(cols)), 0, cols),
				Y1: clamp(int(prob.GetFloatAt(0, i+4)*float32(rows)), 0, rows),
				X2: clamp(int(prob.GetFloatAt(0, i+5)*float32(cols)), 0, cols),
				Y2: clamp(int(prob.GetFloatAt(0, i+6)*float32(rows)), 0, rows),
			},
		})
	}

	return result, nil
}

// Close освобождает сеть.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func (d *DNNDetector) label(classID int) string {
	if classID >= 0 && classID < len(d.labels) && d.labels[classID] != "" {
		return d.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func readLabels(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("dnn labels path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		labels = append(labels, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
