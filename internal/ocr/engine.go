package ocr

import (
	"context"
	"errors"
	"math"
)

// ErrEngineUnavailable means the backend is not installed or not configured.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes text in a single image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Recognition, error)
}

// Recognition is one engine's raw output for one image.
type Recognition struct {
	Text        string
	Confidences []float64 // per token, on the engine's native scale; negatives mean "no score"
	Scale       float64   // upper bound of the native scale: 100 for tesseract, 1 for easyocr
}

// Normalized returns the non-negative token confidences rescaled to 0-100.
func (r Recognition) Normalized() []float64 {
	scale := r.Scale
	if scale <= 0 {
		scale = 100
	}
	out := make([]float64, 0, len(r.Confidences))
	for _, c := range r.Confidences {
		if c < 0 || math.IsNaN(c) {
			continue
		}
		out = append(out, c*100/scale)
	}
	return out
}

// meanConfidence averages 0-100 scores, rounded to two decimals; 0 when empty.
func meanConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}
