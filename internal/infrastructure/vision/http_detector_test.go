package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPDetector_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "frame", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"width": 640, "height": 360, "detections": [
			{"label": "bird", "score": 0.98, "box": [1.4, 2.6, 30.2, 40.9]},
			{"label": "person", "score": 0.5, "box": [0, 0, 10, 10]}
		]}`)
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, 0.9)
	result, err := d.Detect(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.Equal(t, 640, result.ImageWidth)
	require.Equal(t, 360, result.ImageHeight)
	require.Len(t, result.Detections, 1)
	require.Equal(t, "bird", result.Detections[0].Label)
	require.Equal(t, 1, result.Detections[0].Box.X1)
	require.Equal(t, 40, result.Detections[0].Box.Y2)
}

func TestHTTPDetector_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPDetector(srv.URL, 0.9).Detect(context.Background(), []byte("frame"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestHTTPDetector_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{")
	}))
	defer srv.Close()

	_, err := NewHTTPDetector(srv.URL, 0.9).Detect(context.Background(), []byte("frame"))
	require.Error(t, err)
}
