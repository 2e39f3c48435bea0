package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/runner"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// Service runs OCR over images and scanned PDFs.
// Images try every engine in order; PDFs use only the primary.
type Service struct {
	cfg     Config
	engines []Engine // engines[0] is the primary
	raster  Rasterizer
	logger  *slog.Logger
}

// NewService wires tesseract and EasyOCR, ordered by cfg.Primary.
func NewService(cfg Config, r runner.Runner, client *http.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	tess := NewTesseractEngine(cfg, r, logger)
	easy := NewEasyOCREngine(cfg, client, logger)

	engines := []Engine{tess, easy}
	if cfg.Primary == EngineEasyOCR {
		engines = []Engine{easy, tess}
	}
	return NewServiceWithEngines(cfg, NewPopplerRasterizer(cfg, r, logger), logger, engines...)
}

func NewServiceWithEngines(cfg Config, raster Rasterizer, logger *slog.Logger, engines ...Engine) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg.withDefaults(), engines: engines, raster: raster, logger: logger}
}

// Run never returns a Go error; failures are reported on the result.
func (s *Service) Run(ctx context.Context, path string, fileType constants.FileType) extract.TextResult {
	start := time.Now()
	var res extract.TextResult
	switch fileType {
	case constants.IMAGE:
		res = s.runImage(ctx, path)
	case constants.PDF:
		res = s.runPDF(ctx, path)
	default:
		s.logger.Error("unsupported ocr file type", "path", path, "file_type", fileType)
		return extract.Failed("", "", fmt.Errorf("unsupported file_type: %q", fileType))
	}
	res.Duration = time.Since(start)
	res.Language = s.cfg.Lang
	if res.Success {
		res.NeedsReview = res.Confidence < s.cfg.MinConfidence
		s.logger.Info("ocr done",
			"path", path,
			"engine", res.Engine,
			"pages", res.PageCount,
			"words", res.WordCount,
			"confidence", res.Confidence,
			"needs_review", res.NeedsReview,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	return res
}

// imageStrategy adapts an Engine to the ordered-fallback contract.
type imageStrategy struct {
	engine Engine
	logger *slog.Logger
}

func (is imageStrategy) Name() string { return is.engine.Name() }

func (is imageStrategy) Extract(ctx context.Context, path string) extract.TextResult {
	rec, err := is.engine.Recognize(ctx, path)
	if err != nil {
		is.logger.Warn("ocr engine failed", "engine", is.engine.Name(), "path", path, "error", err)
		return extract.Failed(is.engine.Name(), extract.MethodImageOCR, err)
	}
	res := extract.FromPages(is.engine.Name(), extract.MethodImageOCR, []string{textutil.CleanText(rec.Text)})
	res.Confidence = meanConfidence(rec.Normalized())
	return res
}

func (s *Service) runImage(ctx context.Context, path string) extract.TextResult {
	if _, err := os.Stat(path); err != nil {
		return extract.Failed("", extract.MethodImageOCR, fmt.Errorf("image not readable: %w", err))
	}
	strategies := make([]extract.Strategy, 0, len(s.engines))
	for _, e := range s.engines {
		strategies = append(strategies, imageStrategy{engine: e, logger: s.logger})
	}
	res := extract.FirstAccepted(ctx, path, strategies, extract.AcceptAny)
	res.Method = extract.MethodImageOCR
	if !res.Success {
		res.Error = "all OCR engines failed: " + res.Error
	}
	return res
}

func (s *Service) runPDF(ctx context.Context, path string) extract.TextResult {
	fail := func(err error) extract.TextResult {
		s.logger.Error("pdf ocr failed", "path", path, "error", err)
		name := ""
		if len(s.engines) > 0 {
			name = s.engines[0].Name()
		}
		return extract.Failed(name, extract.MethodPDFOCR, fmt.Errorf("all OCR engines failed for PDF: %w", err))
	}
	if len(s.engines) == 0 {
		return fail(errors.New("no ocr engine configured"))
	}
	if s.raster == nil {
		return fail(errors.New("no rasterizer configured"))
	}
	engine := s.engines[0]

	n, err := s.raster.PageCount(path)
	if err != nil {
		return fail(fmt.Errorf("count pages: %w", err))
	}
	if n == 0 {
		return fail(errors.New("pdf has no pages"))
	}
	var warnings []string
	if s.cfg.MaxPages > 0 && n > s.cfg.MaxPages {
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were processed", s.cfg.MaxPages, n))
		n = s.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "medreport-ocr-*")
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	pages := make([]string, 0, n)
	var scores []float64
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		img, err := s.raster.RenderPage(ctx, path, i, tmpDir)
		if err != nil {
			return fail(err)
		}
		rec, err := engine.Recognize(ctx, img)
		if rmErr := os.Remove(img); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove page image", "image", img, "error", rmErr)
		}
		// one unreadable page fails the whole pass
		if err != nil {
			return fail(fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, textutil.CleanText(rec.Text))
		scores = append(scores, rec.Normalized()...)
	}

	res := extract.FromPages(engine.Name(), extract.MethodPDFOCR, pages)
	res.Confidence = meanConfidence(scores)
	res.Warnings = warnings
	return res
}
