package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/medreport/internal/runner"
)

// Rasterizer turns PDF pages into image files for OCR.
type Rasterizer interface {
	PageCount(path string) (int, error)
	// RenderPage writes page (1-based) as an image inside dir and returns its path.
	RenderPage(ctx context.Context, path string, page int, dir string) (string, error)
}

// PopplerRasterizer counts pages with pdfcpu and renders each one with pdftoppm.
type PopplerRasterizer struct {
	bin    string
	dpi    int
	runner runner.Runner
	logger *slog.Logger
}

func NewPopplerRasterizer(cfg Config, r runner.Runner, logger *slog.Logger) *PopplerRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		r = runner.NewExec(logger)
	}
	cfg = cfg.withDefaults()
	return &PopplerRasterizer{bin: cfg.Pdftoppm, dpi: cfg.DPI, runner: r, logger: logger}
}

func (p *PopplerRasterizer) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("failed to close pdf", "path", path, "error", cerr)
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}

func (p *PopplerRasterizer) RenderPage(ctx context.Context, path string, page int, dir string) (string, error) {
	prefix := filepath.Join(dir, "page-"+strconv.Itoa(page))
	n := strconv.Itoa(page)
	// pdftoppm -r 300 -png -f N -l N -singlefile <in.pdf> <dir/page-N>
	_, errb, err := p.runner.Run(ctx, p.bin, "-r", strconv.Itoa(p.dpi), "-png", "-f", n, "-l", n, "-singlefile", path, prefix)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("pdftoppm page %d: %w: %s", page, err, msg)
		}
		return "", fmt.Errorf("pdftoppm page %d: %w", page, err)
	}
	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return out, nil
}
