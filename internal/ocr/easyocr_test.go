package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	return path
}

func TestEasyOCREngine_RescalesConfidence(t *testing.T) {
	var got easyOCRRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"text":"Hemoglobin 13.5 g/dL","confidence":0.9},{"text":"TSH 2.1","confidence":0.7}]}`))
	}))
	defer srv.Close()

	e := NewEasyOCREngine(Config{EasyOCREndpoint: srv.URL, Lang: "eng"}, srv.Client(), nil)
	rec, err := e.Recognize(context.Background(), writeImage(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, got.Languages)
	assert.NotEmpty(t, got.Image)
	assert.Equal(t, "Hemoglobin 13.5 g/dL TSH 2.1", rec.Text)

	mean := meanConfidence(rec.Normalized())
	assert.InDelta(t, 80.0, mean, 1e-9)
	assert.GreaterOrEqual(t, mean, 0.0)
	assert.LessOrEqual(t, mean, 100.0)
}

func TestEasyOCREngine_NotConfigured(t *testing.T) {
	_, err := NewEasyOCREngine(Config{}, nil, nil).Recognize(context.Background(), writeImage(t))
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestEasyOCREngine_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewEasyOCREngine(Config{EasyOCREndpoint: srv.URL}, srv.Client(), nil).Recognize(context.Background(), writeImage(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEngineUnavailable)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEasyOCREngine_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewEasyOCREngine(Config{EasyOCREndpoint: url}, nil, nil).Recognize(context.Background(), writeImage(t))
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestEasyOCRLang(t *testing.T) {
	assert.Equal(t, "en", easyOCRLang("eng"))
	assert.Equal(t, "de", easyOCRLang("deu+eng"))
	assert.Equal(t, "hi", easyOCRLang("hin"))
	assert.Equal(t, "it", easyOCRLang("ita"))
	assert.Equal(t, "en", easyOCRLang(""))
}
