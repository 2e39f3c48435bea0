package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document to run through the pipeline.
type Job struct {
	Path        string
	FileType    string // declared type; empty = detect from extension
	SubmittedAt time.Time
	TraceID     string
	// OnDone, when set, receives the result on the worker goroutine.
	OnDone func(Job, pipeline.Result)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context) error
}
