package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// Method values recorded on a TextResult.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
	MethodText     = "text"
)

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) TextResult
}

// TextResult is the outcome of one text-acquisition attempt. Failures are
// reported through Success/Error, never as a Go error.
type TextResult struct {
	Success     bool              `json:"success"`
	RawText     string            `json:"raw_text"`
	PageTexts   map[string]string `json:"page_texts"`
	PageCount   int               `json:"page_count"`
	WordCount   int               `json:"word_count"`
	Confidence  float64           `json:"confidence"` // 0-100; 0 for non-OCR text
	Engine      string            `json:"engine_used"`
	Method      string            `json:"method,omitempty"`
	Language    string            `json:"language,omitempty"`
	NeedsReview bool              `json:"needs_review,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Duration    time.Duration     `json:"duration_ns,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// PageKey labels page n (1-based) in PageTexts.
func PageKey(n int) string { return "page_" + strconv.Itoa(n) }

// FromPages builds a successful result from already-cleaned per-page text.
// Pages are joined with a blank line; empty pages keep their key but add nothing to RawText.
func FromPages(engine, method string, pages []string) TextResult {
	pageTexts := make(map[string]string, len(pages))
	nonEmpty := make([]string, 0, len(pages))
	for i, p := range pages {
		pageTexts[PageKey(i+1)] = p
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	raw := strings.Join(nonEmpty, "\n\n")
	return TextResult{
		Success:   true,
		RawText:   raw,
		PageTexts: pageTexts,
		PageCount: len(pages),
		WordCount: textutil.CountWords(raw),
		Engine:    engine,
		Method:    method,
	}
}

// Failed returns an unsuccessful result carrying err's message.
func Failed(engine, method string, err error) TextResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return TextResult{Engine: engine, Method: method, Error: msg}
}

// Consistent reports whether a successful result's payload agrees with itself.
func (r TextResult) Consistent() bool {
	if !r.Success {
		return true
	}
	return r.PageCount == len(r.PageTexts)
}

// AddWarning appends a formatted warning.
func (r *TextResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Strategy is one interchangeable text-acquisition backend.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) TextResult
}

// Accept decides whether a successful result is good enough to stop trying.
type Accept func(TextResult) bool

// AcceptAny accepts every successful result.
func AcceptAny(TextResult) bool { return true }

// RichEnough accepts results with at least minWords words.
func RichEnough(minWords int) Accept {
	return func(r TextResult) bool { return textutil.IsTextRich(r.RawText, minWords) }
}

// FirstAccepted tries strategies in order and returns the first successful
// result that satisfies accept. When none is accepted the primary's own
// outcome stands: a sparse primary is returned as is, and a failed primary
// stays failed even if a later strategy produced sparse text. Later
// outcomes are kept as warnings.
func FirstAccepted(ctx context.Context, path string, strategies []Strategy, accept Accept) TextResult {
	if accept == nil {
		accept = AcceptAny
	}
	if len(strategies) == 0 {
		return Failed("", "", errors.New("no extraction strategy configured"))
	}

	var (
		primary  *TextResult
		errs     []error
		warnings []string
	)
	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res := s.Extract(ctx, path)
		if res.Engine == "" {
			res.Engine = s.Name()
		}
		if i == 0 {
			r := res
			primary = &r
		}
		if !res.Success {
			errs = append(errs, fmt.Errorf("%s: %s", s.Name(), res.Error))
			warnings = append(warnings, fmt.Sprintf("%s failed: %s", s.Name(), res.Error))
			continue
		}
		if accept(res) {
			res.Warnings = append(warnings, res.Warnings...)
			return res
		}
		warnings = append(warnings, fmt.Sprintf("%s: text not rich enough (%d words)", s.Name(), res.WordCount))
	}

	if primary != nil && primary.Success {
		out := *primary
		out.Warnings = append(warnings, out.Warnings...)
		return out
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no strategy produced text"))
	}
	out := Failed("", "", errors.Join(errs...))
	if primary != nil {
		out.Engine = primary.Engine
	}
	out.Warnings = warnings
	return out
}
