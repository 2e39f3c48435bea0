package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	<-ctx.Done()
	return nil, []byte("killed"), ctx.Err()
}

type recordingRunner struct{ deadline bool }

func (r *recordingRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	_, r.deadline = ctx.Deadline()
	return []byte("ok"), nil, nil
}

func TestWithTimeout_BoundsCall(t *testing.T) {
	r := WithTimeout(blockingRunner{}, 20*time.Millisecond)

	start := time.Now()
	_, _, err := r.Run(context.Background(), "tesseract")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWithTimeout_ZeroIsPassthrough(t *testing.T) {
	rec := &recordingRunner{}
	r := WithTimeout(rec, 0)
	out, _, err := r.Run(context.Background(), "pdftotext")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.False(t, rec.deadline)
}

func TestExec_MissingBinary(t *testing.T) {
	_, _, err := NewExec(nil).Run(context.Background(), "definitely-not-a-real-binary-8f3a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...(truncated)", truncate("abcdef", 2))
}
