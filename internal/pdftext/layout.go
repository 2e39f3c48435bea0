package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/runner"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// EngineLayout names the poppler pdftotext strategy.
const EngineLayout = "pdftotext"

// LayoutStrategy shells out to pdftotext -layout, which keeps table columns aligned.
type LayoutStrategy struct {
	bin    string
	runner runner.Runner
	logger *slog.Logger
}

func NewLayoutStrategy(bin string, r runner.Runner, logger *slog.Logger) *LayoutStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if r == nil {
		r = runner.NewExec(logger)
	}
	return &LayoutStrategy{bin: bin, runner: r, logger: logger}
}

func (s *LayoutStrategy) Name() string { return EngineLayout }

func (s *LayoutStrategy) Extract(ctx context.Context, path string) extract.TextResult {
	start := time.Now()
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := s.runner.Run(ctx, s.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		res := extract.Failed(EngineLayout, extract.MethodPDFText, fmt.Errorf("pdftotext: %w", err))
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			res.Warnings = append(res.Warnings, msg)
		}
		res.Duration = time.Since(start)
		return res
	}

	res := extract.FromPages(EngineLayout, extract.MethodPDFText, splitPages(string(out)))
	res.Duration = time.Since(start)
	return res
}

// splitPages cuts pdftotext output on form feeds. pdftotext terminates every
// page with \f, so a trailing empty segment is not a page.
func splitPages(out string) []string {
	parts := strings.Split(out, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]string, len(parts))
	for i, p := range parts {
		pages[i] = textutil.CleanText(p)
	}
	return pages
}
