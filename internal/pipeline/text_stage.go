package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// EnginePlainText names results produced from .txt input or host-supplied text.
const EnginePlainText = "plain-text"

// acquireText routes by file type. PDFs whose embedded text is not rich are
// escalated to OCR; a sparse PDF result still wins over a failed OCR pass.
func (p *Processor) acquireText(ctx context.Context, log *slog.Logger, path string, fileType constants.FileType) extract.TextResult {
	switch fileType {
	case constants.TEXT:
		return readPlainText(path)
	case constants.IMAGE:
		if p.OCR == nil {
			return extract.Failed("", extract.MethodImageOCR, fmt.Errorf("no OCR service configured"))
		}
		return p.OCR.Run(ctx, path, constants.IMAGE)
	case constants.PDF:
		return p.acquirePDF(ctx, log, path)
	}
	return extract.Failed("", "", fmt.Errorf("%w: %q", constants.ErrUnsupportedFileType, fileType))
}

func (p *Processor) acquirePDF(ctx context.Context, log *slog.Logger, path string) extract.TextResult {
	var pdfRes extract.TextResult
	if p.PDF != nil {
		pdfRes = p.PDF.Extract(ctx, path)
		if p.PDF.IsRich(pdfRes) {
			return pdfRes
		}
	} else {
		pdfRes = extract.Failed("", extract.MethodPDFText, fmt.Errorf("no PDF text extractor configured"))
	}
	if p.OCR == nil {
		return pdfRes
	}

	if pdfRes.Success {
		log.Info("pdf text sparse; escalating to OCR", "words", pdfRes.WordCount)
	} else {
		log.Info("pdf text failed; escalating to OCR", "error", pdfRes.Error)
	}
	ocrRes := p.OCR.Run(ctx, path, constants.PDF)

	switch {
	case ocrRes.Success:
		if pdfRes.Success {
			ocrRes.Warnings = append([]string{fmt.Sprintf("pdf text sparse (%d words); used OCR", pdfRes.WordCount)}, ocrRes.Warnings...)
		} else {
			ocrRes.Warnings = append([]string{"pdf text extraction failed: " + pdfRes.Error}, ocrRes.Warnings...)
		}
		return ocrRes
	case pdfRes.Success:
		log.Warn("OCR failed; keeping sparse pdf text", "error", ocrRes.Error)
		pdfRes.AddWarning("pdf text sparse (%d words)", pdfRes.WordCount)
		pdfRes.AddWarning("OCR fallback failed: %s", ocrRes.Error)
		return pdfRes
	default:
		ocrRes.Warnings = append([]string{"pdf text extraction failed: " + pdfRes.Error}, ocrRes.Warnings...)
		return ocrRes
	}
}

func readPlainText(path string) extract.TextResult {
	start := time.Now()
	b, err := os.ReadFile(path)
	if err != nil {
		return extract.Failed(EnginePlainText, extract.MethodText, fmt.Errorf("read %s: %w", path, err))
	}
	res := plainTextResult(string(b))
	res.Duration = time.Since(start)
	return res
}

func plainTextResult(text string) extract.TextResult {
	cleaned := textutil.CleanText(text)
	return extract.FromPages(EnginePlainText, extract.MethodText, []string{cleaned})
}
