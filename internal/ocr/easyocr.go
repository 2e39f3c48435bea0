package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// EasyOCREngine calls an EasyOCR HTTP sidecar. Confidences come back as 0-1.
type EasyOCREngine struct {
	endpoint  string
	languages []string
	client    *http.Client
	logger    *slog.Logger
}

type easyOCRRequest struct {
	Image     string   `json:"image"` // base64 encoded file bytes
	Languages []string `json:"languages"`
	Detail    int      `json:"detail"`
}

type easyOCRResponse struct {
	Results []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

func NewEasyOCREngine(cfg Config, client *http.Client, logger *slog.Logger) *EasyOCREngine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.EasyOCRTimeout}
	}
	return &EasyOCREngine{
		endpoint:  cfg.EasyOCREndpoint,
		languages: []string{easyOCRLang(cfg.Lang)},
		client:    client,
		logger:    logger,
	}
}

func (e *EasyOCREngine) Name() string { return EngineEasyOCR }

func (e *EasyOCREngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	if e.endpoint == "" {
		return Recognition{}, fmt.Errorf("%w: easyocr endpoint not configured", ErrEngineUnavailable)
	}
	img, err := os.ReadFile(path)
	if err != nil {
		return Recognition{}, fmt.Errorf("read image: %w", err)
	}

	raw, status, err := sendJSON(ctx, e.client, e.endpoint, easyOCRRequest{
		Image:     base64.StdEncoding.EncodeToString(img),
		Languages: e.languages,
		Detail:    1,
	}, e.logger)
	if err != nil {
		if status == 0 {
			// connection refused or similar: the sidecar is not there
			return Recognition{}, fmt.Errorf("%w: easyocr: %v", ErrEngineUnavailable, err)
		}
		return Recognition{}, fmt.Errorf("easyocr: %w: %s", err, strings.TrimSpace(string(raw)))
	}

	var resp easyOCRResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Recognition{}, fmt.Errorf("easyocr: decode response: %w", err)
	}
	if resp.Error != "" {
		return Recognition{}, fmt.Errorf("easyocr: %s", resp.Error)
	}

	// segments are space-joined, so they never read as separate heading lines
	segments := make([]string, 0, len(resp.Results))
	confs := make([]float64, 0, len(resp.Results))
	for _, r := range resp.Results {
		segments = append(segments, r.Text)
		confs = append(confs, r.Confidence)
	}
	return Recognition{Text: strings.Join(segments, " "), Confidences: confs, Scale: 1}, nil
}

// easyOCRLang maps tesseract language codes onto EasyOCR's two-letter codes.
func easyOCRLang(tess string) string {
	first := strings.SplitN(tess, "+", 2)[0]
	switch first {
	case "eng":
		return "en"
	case "fra":
		return "fr"
	case "deu":
		return "de"
	case "spa":
		return "es"
	case "hin":
		return "hi"
	}
	if len(first) >= 2 {
		return first[:2]
	}
	return "en"
}
