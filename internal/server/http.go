package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPConfig configures NewHTTPHandler.
type HTTPConfig struct {
	Pipeline  Pipeline
	Jobs      JobReader                       // optional
	Ping      func(ctx context.Context) error // optional readiness probe
	MaxUpload int64                           // bytes
	Logger    *slog.Logger
}

type httpAPI struct {
	cfg      HTTPConfig
	exporter *export.Service
	logger   *slog.Logger
}

// NewHTTPHandler returns the JSON API router.
func NewHTTPHandler(cfg HTTPConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	api := &httpAPI{cfg: cfg, exporter: export.NewService(cfg.Logger), logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(api.requestLogger)

	r.Get("/healthz", api.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract/text", api.handleExtractText)
		r.Post("/extract/file", api.handleExtractFile)
		r.Get("/jobs", api.handleListJobs)
		r.Get("/jobs/{job_id}", api.handleGetJob)
	})
	return r
}

// requestLogger carries chi's request id into the pipeline context and logs each request.
func (a *httpAPI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		a.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", common.RequestIDFromContext(ctx),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (a *httpAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Ping != nil {
		if err := a.cfg.Ping(r.Context()); err != nil {
			a.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *httpAPI) handleExtractText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4*MaxTextLength)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateText(body.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := a.cfg.Pipeline.ExtractText(r.Context(), body.Text)
	if err := checkResult(res); err != nil {
		a.logger.Error("extraction result failed validation", "error", err)
		writeError(w, http.StatusInternalServerError, "invalid extraction result")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *httpAPI) handleExtractFile(w http.ResponseWriter, r *http.Request) {
	limit := a.cfg.MaxUpload
	if limit <= 0 {
		limit = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	req := fileRequest{Content: content, Filename: header.Filename, FileType: r.FormValue("file_type")}
	if err := req.validate(limit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Content) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return
	}

	res, err := processFileRequest(r.Context(), a.cfg.Pipeline, req)
	if err != nil {
		a.logger.Error("extract file failed", "error", err)
		writeError(w, http.StatusInternalServerError, "invalid extraction result")
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		a.writeXLSX(w, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *httpAPI) writeXLSX(w http.ResponseWriter, res pipeline.Result) {
	b, err := a.exporter.ResultXLSX(res)
	if err != nil {
		a.logger.Error("export.xlsx.failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (a *httpAPI) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Jobs == nil {
		writeError(w, http.StatusNotFound, "job ledger is not configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "job_id must be a UUID")
		return
	}
	job, err := a.cfg.Jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *httpAPI) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Jobs == nil {
		writeError(w, http.StatusNotFound, "job ledger is not configured")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	jobs, err := a.cfg.Jobs.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
