package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// EngineNative names the pure-Go content-stream strategy.
const EngineNative = "pdf-native"

// NativeStrategy reads embedded text page by page with ledongthuc/pdf.
type NativeStrategy struct {
	logger *slog.Logger
}

func NewNativeStrategy(logger *slog.Logger) *NativeStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeStrategy{logger: logger}
}

func (s *NativeStrategy) Name() string { return EngineNative }

func (s *NativeStrategy) Extract(ctx context.Context, path string) (res extract.TextResult) {
	start := time.Now()
	defer func() {
		// the content-stream interpreter panics on some malformed files
		if r := recover(); r != nil {
			s.logger.Error("native pdf extraction panicked", "path", path, "panic", r)
			res = extract.Failed(EngineNative, extract.MethodPDFText, fmt.Errorf("pdf parse panic: %v", r))
		}
		res.Duration = time.Since(start)
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return extract.Failed(EngineNative, extract.MethodPDFText, fmt.Errorf("open pdf: %w", err))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("failed to close pdf", "path", path, "error", cerr)
		}
	}()

	n := r.NumPage()
	if n == 0 {
		return extract.Failed(EngineNative, extract.MethodPDFText, fmt.Errorf("pdf has no pages"))
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return extract.Failed(EngineNative, extract.MethodPDFText, err)
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			return extract.Failed(EngineNative, extract.MethodPDFText, fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, textutil.CleanText(txt))
	}

	res = extract.FromPages(EngineNative, extract.MethodPDFText, pages)
	s.logger.Debug("native pdf text extracted", "path", path, "pages", res.PageCount, "words", res.WordCount)
	return res
}
