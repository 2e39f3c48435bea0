package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/extraction"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

// MaxTextLength bounds inline text requests, in runes.
const MaxTextLength = 1 << 20

// Pipeline is what every transport calls into.
type Pipeline interface {
	ProcessFile(ctx context.Context, path string, declared string) pipeline.Result
	ExtractText(ctx context.Context, text string) pipeline.Result
}

// JobReader exposes the job ledger to transports. Optional.
type JobReader interface {
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

var fileTypes = []string{string(constants.PDF), string(constants.IMAGE), string(constants.TEXT)}

// fileRequest is the transport-neutral shape of an ExtractFile call:
// either a path readable by the daemon, or inline content plus a filename.
type fileRequest struct {
	Path     string `json:"path,omitempty"`
	Content  []byte `json:"content,omitempty"` // base64 in JSON
	Filename string `json:"filename,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

func (r fileRequest) validate(maxBytes int64) error {
	v := common.NewValidator().Field("file_type", r.FileType, common.OneOf(fileTypes...))
	switch {
	case r.Path != "" && len(r.Content) > 0:
		v.Field("path", r.Path, func(field string, value any) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "path and content are mutually exclusive"}
		})
	case len(r.Content) > 0:
		v.Field("filename", r.Filename, common.Required)
		if maxBytes > 0 {
			v.Field("content", r.Content, common.MaxBytes(maxBytes))
		}
	default:
		v.Field("path", r.Path, common.Required)
	}
	return v.Err()
}

func validateText(text string) error {
	return common.NewValidator().Field("text", text, common.Required, common.MaxLength(MaxTextLength)).Err()
}

// decodeContent accepts standard or URL-safe base64.
func decodeContent(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: content is not base64", common.ErrInvalidInput)
	}
	return b, nil
}

// stageUpload writes inline content to a private temp dir, keeping the
// filename's extension so type detection still works.
func stageUpload(content []byte, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "medreport-upload-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}

// processFileRequest runs a validated request through the pipeline.
func processFileRequest(ctx context.Context, p Pipeline, req fileRequest) (pipeline.Result, error) {
	path := req.Path
	if len(req.Content) > 0 {
		staged, cleanup, err := stageUpload(req.Content, req.Filename)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("stage upload: %w", err)
		}
		defer cleanup()
		path = staged
	}
	res := p.ProcessFile(ctx, path, req.FileType)
	if len(req.Content) > 0 {
		res.FilePath = req.Filename
	}
	return res, checkResult(res)
}

// checkResult enforces the extraction output contract before a result leaves a transport.
func checkResult(res pipeline.Result) error {
	if err := extraction.ValidateResult(res.Extraction); err != nil {
		return errors.Join(common.ErrInternal, err)
	}
	return nil
}
