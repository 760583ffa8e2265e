package entity

// Box задаёт прямоугольник в координатах кадра (левый верхний и правый нижний углы).
type Box struct {
	X1, Y1, X2, Y2 int
}

// Width возвращает ширину прямоугольника.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height возвращает высоту прямоугольника.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Center возвращает координаты центра прямоугольника
func (b Box) Center() (x, y int) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// Detection описывает один найденный объект.
type Detection struct {
	Label      string  // метка класса детектора
	Confidence float64 // уверенность 0..1
	Box        Box
}

// DetectionResult хранит итог анализа одного кадра. Не сохраняется.
type DetectionResult struct {
	ImageWidth  int
	ImageHeight int
	Detections  []Detection
}

// Labels возвращает уникальные метки в порядке первого появления.
func (r *DetectionResult) Labels() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Detections))
	labels := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		if _, ok := seen[d.Label]; ok {
			continue
		}
		seen[d.Label] = struct{}{}
		labels = append(labels, d.Label)
	}
	return labels
}

// Unexpected возвращает уникальные метки, отличные от ожидаемой.
func (r *DetectionResult) Unexpected(animal Animal) []string {
	labels := r.Labels()
	var out []string
	for _, l := range labels {
		if !animal.IsExpected(l) {
			out = append(out, l)
		}
	}
	return out
}

// Filter оставляет объекты с уверенностью не ниже порога.
func (r *DetectionResult) Filter(threshold float64) {
	if r == nil {
		return
	}
	kept := r.Detections[:0]
	for _, d := range r.Detections {
		if d.Confidence >= threshold {
			kept = append(kept, d)
		}
	}
	r.Detections = kept
}

// NewLabels возвращает метки из current, которых не было в previous.
func NewLabels(previous, current []string) []string {
	prev := make(map[string]struct{}, len(previous))
	for _, l := range previous {
		prev[l] = struct{}{}
	}
	var out []string
	for _, l := range current {
		if _, ok := prev[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}
