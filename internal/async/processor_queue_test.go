package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

type countingProcessor struct {
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	sawTrace atomic.Bool
}

func (c *countingProcessor) ProcessFile(ctx context.Context, path string, _ string) pipeline.Result {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if common.RequestIDFromContext(ctx) == "trace-1" {
		c.sawTrace.Store(true)
	}
	time.Sleep(c.delay)
	c.calls.Add(1)
	return pipeline.Result{Success: path != "bad.pdf", FilePath: path}
}

func TestProcessorQueue_ProcessesAllAndDrains(t *testing.T) {
	proc := &countingProcessor{delay: 5 * time.Millisecond}
	q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(2))

	var (
		mu      sync.Mutex
		results = map[string]bool{}
	)
	onDone := func(j Job, r pipeline.Result) {
		mu.Lock()
		results[j.Path] = r.Success
		mu.Unlock()
	}
	paths := []string{"a.pdf", "b.png", "bad.pdf", "c.txt", "d.pdf", "e.pdf", "f.pdf"}
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p, TraceID: "trace-1", OnDone: onDone}))
	}

	require.NoError(t, q.Shutdown(context.Background()))
	assert.Equal(t, int32(len(paths)), proc.calls.Load())
	assert.LessOrEqual(t, proc.peak.Load(), int32(3))
	assert.True(t, proc.sawTrace.Load())
	assert.Len(t, results, len(paths))
	assert.False(t, results["bad.pdf"])
	assert.True(t, results["a.pdf"])
}

func TestProcessorQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&countingProcessor{}, nil, WithWorkers(1))
	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "a.pdf"}), ErrQueueClosed)
	assert.NoError(t, q.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestProcessorQueue_ShutdownHonoursContext(t *testing.T) {
	proc := &countingProcessor{delay: 200 * time.Millisecond}
	q := NewProcessorQueue(proc, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Shutdown(ctx), context.DeadlineExceeded)
}

func TestProcessorQueue_EnqueueBackpressureHonoursContext(t *testing.T) {
	proc := &countingProcessor{delay: 200 * time.Millisecond}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))
	t.Cleanup(func() { _ = q.Shutdown(context.Background()) })

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1.pdf"}))
	// Wait for the worker to pick up the first job so the buffer slot frees.
	require.Eventually(t, func() bool { return proc.inflight.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "2.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "3.pdf"}), context.DeadlineExceeded)
}

func TestFromConfig(t *testing.T) {
	q := NewProcessorQueue(&countingProcessor{}, nil, FromConfig(common.QueueConfig{Workers: 2, Size: 5, JobTimeout: time.Minute})...)
	defer func() { _ = q.Shutdown(context.Background()) }()
	assert.Equal(t, 2, q.workers)
	assert.Equal(t, 5, cap(q.ch))
	assert.Equal(t, time.Minute, q.timeout)
}
