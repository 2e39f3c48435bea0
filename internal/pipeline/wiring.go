package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/extraction"
	"github.com/joseph-ayodele/medreport/internal/ocr"
	"github.com/joseph-ayodele/medreport/internal/pdftext"
	"github.com/joseph-ayodele/medreport/internal/runner"
)

// OCRConfig maps the application config onto the OCR service settings.
func OCRConfig(cfg *common.Config) ocr.Config {
	return ocr.Config{
		Primary:         cfg.OCR.Engine,
		Lang:            cfg.OCR.Language,
		Tesseract:       cfg.OCR.TesseractCmd,
		TessdataDir:     cfg.OCR.TessdataDir,
		PSM:             cfg.OCR.PSM,
		OEM:             cfg.OCR.OEM,
		EasyOCREndpoint: cfg.OCR.EasyOCREndpoint,
		EasyOCRTimeout:  cfg.OCR.CallTimeout,
		Pdftoppm:        cfg.OCR.PdftoppmCmd,
		DPI:             cfg.OCR.DPI,
		MaxPages:        cfg.OCR.MaxPages,
		MinConfidence:   cfg.OCR.MinConfidence,
	}
}

// NewFromConfig builds a Processor backed by the real engines. Every external
// command is bounded by cfg.OCR.CallTimeout. jobs may be nil.
func NewFromConfig(cfg *common.Config, jobs JobRecorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	r := runner.WithTimeout(runner.NewExec(logger), cfg.OCR.CallTimeout)
	parser := pdftext.NewParser(pdftext.Config{Pdftotext: cfg.PDF.PdftotextCmd, MinWords: cfg.PDF.MinWords}, r, logger)
	ocrSvc := ocr.NewService(OCRConfig(cfg), r, nil, logger)
	opts := Options{
		MaxFileSize:       cfg.Files.MaxFileSizeBytes(),
		AllowedExtensions: cfg.Files.AllowedExtensions,
	}
	return NewProcessor(logger, opts, parser, ocrSvc, extraction.Default(), jobs)
}
