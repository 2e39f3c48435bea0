package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/medreport/internal/runner"
)

// TesseractEngine drives the tesseract CLI. Confidences are 0-100.
type TesseractEngine struct {
	cfg    Config
	runner runner.Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, r runner.Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		r = runner.NewExec(logger)
	}
	return &TesseractEngine{cfg: cfg.withDefaults(), runner: r, logger: logger}
}

func (e *TesseractEngine) Name() string { return EngineTesseract }

func (e *TesseractEngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.args(path)...)
	if err != nil {
		return Recognition{}, e.wrap("tesseract", err, errb)
	}

	// same image again in TSV mode for per-word confidences
	tsv, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, append(e.args(path), "tsv")...)
	if err != nil {
		return Recognition{}, e.wrap("tesseract TSV", err, errb)
	}

	return Recognition{
		Text:        string(out),
		Confidences: parseTSVConfidences(string(tsv)),
		Scale:       100,
	}, nil
}

func (e *TesseractEngine) args(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *TesseractEngine) wrap(what string, err error, stderr []byte) error {
	if errors.Is(err, runner.ErrNotInstalled) {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, what, err)
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return fmt.Errorf("%s: %w: %s", what, err, msg)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// parseTSVConfidences reads the conf column (located by header name) of
// tesseract TSV output. Rows without a word keep their -1 and are skipped later.
func parseTSVConfidences(tsv string) []float64 {
	lines := strings.Split(strings.ReplaceAll(tsv, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}
	header := strings.Split(lines[0], "\t")
	confIdx, textIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "conf":
			confIdx = i
		case "text":
			textIdx = i
		}
	}
	if confIdx < 0 {
		return nil
	}

	var confs []float64
	for _, ln := range lines[1:] {
		if ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) <= confIdx {
			continue
		}
		if textIdx >= 0 && (len(cols) <= textIdx || strings.TrimSpace(cols[textIdx]) == "") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[confIdx]), 64)
		if err != nil {
			continue
		}
		confs = append(confs, v)
	}
	return confs
}
