package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/runner"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MinWords  int    // richness threshold, default 30
}

// Parser extracts embedded text from digital PDFs, trying strategies in order
// until one yields text-rich output.
type Parser struct {
	strategies []extract.Strategy
	minWords   int
	logger     *slog.Logger
}

// NewParser wires the native strategy first and pdftotext second.
func NewParser(cfg Config, r runner.Runner, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return NewParserWithStrategies(cfg.MinWords, logger,
		NewNativeStrategy(logger),
		NewLayoutStrategy(cfg.Pdftotext, r, logger),
	)
}

func NewParserWithStrategies(minWords int, logger *slog.Logger, strategies ...extract.Strategy) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if minWords <= 0 {
		minWords = textutil.DefaultMinWords
	}
	return &Parser{strategies: strategies, minWords: minWords, logger: logger}
}

// MinWords is the richness threshold this parser applies.
func (p *Parser) MinWords() int { return p.minWords }

// Extract never returns a Go error: a missing file or exhausted strategies
// come back as an unsuccessful result.
func (p *Parser) Extract(ctx context.Context, path string) extract.TextResult {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("file not found: %s", path)
		}
		p.logger.Error("pdf not readable", "path", path, "error", err)
		return extract.Failed("", extract.MethodPDFText, err)
	}

	res := extract.FirstAccepted(ctx, path, p.strategies, extract.RichEnough(p.minWords))
	res.Method = extract.MethodPDFText
	res.Duration = time.Since(start)
	if !res.Success {
		p.logger.Warn("pdf text extraction failed", "path", path, "error", res.Error)
		return res
	}
	p.logger.Info("pdf text extracted",
		"path", path,
		"engine", res.Engine,
		"pages", res.PageCount,
		"words", res.WordCount,
		"rich", textutil.IsTextRich(res.RawText, p.minWords),
	)
	return res
}

// IsRich reports whether res carries enough text to skip OCR.
func (p *Parser) IsRich(res extract.TextResult) bool {
	return res.Success && textutil.IsTextRich(res.RawText, p.minWords)
}
