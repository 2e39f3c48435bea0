package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/extraction"
)

// PDFTextExtractor is the digital-PDF text stage.
type PDFTextExtractor interface {
	Extract(ctx context.Context, path string) extract.TextResult
	IsRich(res extract.TextResult) bool
}

// OCRService recognizes images and scanned PDFs.
type OCRService interface {
	Run(ctx context.Context, path string, fileType constants.FileType) extract.TextResult
}

// DataExtractor turns raw text into metrics and notes.
type DataExtractor interface {
	ExtractDataFromText(raw string) extraction.Result
}

// JobRecorder persists one ledger row per processed file.
type JobRecorder interface {
	Start(ctx context.Context, filePath string, fileType constants.FileType) (uuid.UUID, error)
	Finish(ctx context.Context, jobID uuid.UUID, out entity.ExtractJobOutcome) error
}

// Options bounds the inputs a Processor accepts.
type Options struct {
	MaxFileSize       int64    // bytes; 0 = unlimited
	AllowedExtensions []string // normalized, without dot; empty = any supported type
}

// Result is the outcome of one document run. Success mirrors Text.Success;
// Extraction is always non-nil, and empty when text acquisition failed.
type Result struct {
	JobID      uuid.UUID          `json:"job_id,omitzero"`
	FilePath   string             `json:"file_path,omitempty"`
	FileType   constants.FileType `json:"file_type"`
	Success    bool               `json:"success"`
	Text       extract.TextResult `json:"text"`
	Extraction extraction.Result  `json:"extraction"`
	Duration   time.Duration      `json:"duration_ns"`
	Error      string             `json:"error,omitempty"`
}

// Processor coordinates text acquisition then rule-based extraction.
type Processor struct {
	Logger *slog.Logger
	PDF    PDFTextExtractor
	OCR    OCRService
	Engine DataExtractor
	Jobs   JobRecorder // optional
	opts   Options
}

func NewProcessor(logger *slog.Logger, opts Options, pdf PDFTextExtractor, ocr OCRService, engine DataExtractor, jobs JobRecorder) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = extraction.Default()
	}
	exts := make([]string, 0, len(opts.AllowedExtensions))
	for _, e := range opts.AllowedExtensions {
		exts = append(exts, constants.NormalizeExt(e))
	}
	opts.AllowedExtensions = exts
	return &Processor{Logger: logger, PDF: pdf, OCR: ocr, Engine: engine, Jobs: jobs, opts: opts}
}

// ProcessFile validates path, acquires its text and extracts structured data.
// declared may be empty, in which case the type is inferred from the extension.
// It never returns a Go error; every failure is reported on the Result.
func (p *Processor) ProcessFile(ctx context.Context, path string, declared string) Result {
	start := time.Now()
	ctx, reqID := common.EnsureRequestID(ctx)
	log := p.Logger.With("request_id", reqID, "path", path)

	fileType, err := p.validate(path, declared)
	if err != nil {
		log.Warn("input rejected", "error", err)
		return p.failed(path, fileType, err, start)
	}

	jobID := p.startJob(ctx, log, path, fileType)
	if jobID != uuid.Nil {
		ctx = common.WithJobID(ctx, jobID)
		log = log.With("job_id", jobID)
	}

	text := p.acquireText(ctx, log, path, fileType)
	res := p.extractStage(text)
	res.JobID, res.FilePath, res.FileType = jobID, path, fileType
	res.Duration = time.Since(start)

	p.finishJob(ctx, log, jobID, res)
	if res.Success {
		log.Info("document processed",
			"file_type", fileType,
			"method", text.Method,
			"engine", text.Engine,
			"metrics", len(res.Extraction.Metrics),
			"notes", len(res.Extraction.Notes),
			"duration_ms", res.Duration.Milliseconds(),
		)
	} else {
		log.Warn("document failed", "file_type", fileType, "error", res.Error)
	}
	return res
}

// ExtractText runs only the extraction stage over text supplied by the host.
func (p *Processor) ExtractText(ctx context.Context, text string) Result {
	start := time.Now()
	_, reqID := common.EnsureRequestID(ctx)
	res := p.extractStage(plainTextResult(text))
	res.FileType = constants.TEXT
	res.Duration = time.Since(start)
	p.Logger.Debug("text extracted", "request_id", reqID, "metrics", len(res.Extraction.Metrics), "notes", len(res.Extraction.Notes))
	return res
}

func (p *Processor) validate(path, declared string) (constants.FileType, error) {
	var (
		fileType constants.FileType
		err      error
	)
	if declared != "" {
		fileType, err = constants.ParseFileType(declared)
	} else {
		fileType, err = constants.DetectFileType(path)
	}
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fileType, fmt.Errorf("file not found: %s", path)
	case err != nil:
		return fileType, fmt.Errorf("stat %s: %w", path, err)
	case info.IsDir():
		return fileType, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	case p.opts.MaxFileSize > 0 && info.Size() > p.opts.MaxFileSize:
		return fileType, fmt.Errorf("%w: file size %d bytes exceeds limit of %d bytes", common.ErrInvalidInput, info.Size(), p.opts.MaxFileSize)
	}

	if ext := constants.NormalizeExt(filepath.Ext(path)); len(p.opts.AllowedExtensions) > 0 && !slices.Contains(p.opts.AllowedExtensions, ext) {
		return fileType, fmt.Errorf("%w: extension %q is not allowed", common.ErrInvalidInput, ext)
	}
	return fileType, nil
}

func (p *Processor) failed(path string, fileType constants.FileType, err error, start time.Time) Result {
	text := extract.Failed("", "", err)
	res := p.extractStage(text)
	res.FilePath, res.FileType = path, fileType
	res.Duration = time.Since(start)
	return res
}

func (p *Processor) startJob(ctx context.Context, log *slog.Logger, path string, fileType constants.FileType) uuid.UUID {
	if p.Jobs == nil {
		return uuid.Nil
	}
	id, err := p.Jobs.Start(ctx, path, fileType)
	if err != nil {
		log.Error("could not record job start", "error", err)
		return uuid.Nil
	}
	return id
}

func (p *Processor) finishJob(ctx context.Context, log *slog.Logger, jobID uuid.UUID, res Result) {
	if p.Jobs == nil || jobID == uuid.Nil {
		return
	}
	out := entity.ExtractJobOutcome{
		Success:      res.Success,
		Method:       res.Text.Method,
		EngineUsed:   res.Text.Engine,
		WordCount:    res.Text.WordCount,
		MetricsCount: len(res.Extraction.Metrics),
		NotesCount:   len(res.Extraction.Notes),
		NeedsReview:  res.Text.NeedsReview,
		ErrorMessage: res.Error,
	}
	if res.Text.Method == extract.MethodPDFOCR || res.Text.Method == extract.MethodImageOCR {
		c := res.Text.Confidence
		out.Confidence = &c
	}
	if res.Success {
		if b, err := json.Marshal(res.Extraction); err == nil {
			out.ResultJSON = b
		}
	}
	// the ledger write must survive a cancelled request
	if err := p.Jobs.Finish(context.WithoutCancel(ctx), jobID, out); err != nil {
		log.Error("could not record job outcome", "error", err)
	}
}
