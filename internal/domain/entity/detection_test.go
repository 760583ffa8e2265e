package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var penguins = Animal{Key: "bird", Label: "bird", Emoji: "🐧", Title: "Пингвины"}

func TestBoxCenter(t *testing.T) {
	b := Box{X1: 10, Y1: 20, X2: 18, Y2: 26}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
	require.Equal(t, 8, b.Width())
	require.Equal(t, 6, b.Height())
}

func TestDetectionResult_Unexpected(t *testing.T) {
	r := &DetectionResult{Detections: []Detection{
		{Label: "bird", Confidence: 0.95},
		{Label: "person", Confidence: 0.97},
		{Label: "Bird", Confidence: 0.92},
		{Label: "dog", Confidence: 0.91},
		{Label: "person", Confidence: 0.99},
	}}

	require.Equal(t, []string{"person", "dog"}, r.Unexpected(penguins))
	require.Equal(t, []string{"bird", "person", "Bird", "dog"}, r.Labels())
}

func TestDetectionResult_UnexpectedNothing(t *testing.T) {
	r := &DetectionResult{Detections: []Detection{{Label: "bird"}}}
	require.Empty(t, r.Unexpected(penguins))

	var nilResult *DetectionResult
	require.Empty(t, nilResult.Unexpected(penguins))
}

func TestDetectionResult_Filter(t *testing.T) {
	r := &DetectionResult{Detections: []Detection{
		{Label: "bird", Confidence: 0.95},
		{Label: "person", Confidence: 0.5},
		{Label: "dog", Confidence: 0.9},
	}}
	r.Filter(0.9)
	require.Equal(t, []string{"bird", "dog"}, r.Labels())
}

func TestNewLabels(t *testing.T) {
	require.Equal(t, []string{"dog"}, NewLabels([]string{"person"}, []string{"person", "dog"}))
	require.Empty(t, NewLabels([]string{"person", "dog"}, []string{"dog"}))
	require.Equal(t, []string{"cat"}, NewLabels(nil, []string{"cat"}))
}

func TestAnimalNominative(t *testing.T) {
	require.Equal(t, "🐧 Пингвины", penguins.Nominative())
	require.True(t, penguins.IsExpected("BIRD"))
	require.False(t, penguins.IsExpected("bear"))
}
