package ocr

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/internal/runner"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t50\t12\t96.5\tHbA1c\n" +
	"5\t1\t1\t1\t1\t2\t70\t10\t30\t12\t88.5\t6.5\n" +
	"5\t1\t1\t1\t1\t3\t110\t10\t10\t12\t-1\t%\n"

// tessRunner answers text calls and TSV calls separately.
type tessRunner struct {
	text string
	tsv  string
	err  error
	args [][]string
}

func (r *tessRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	r.args = append(r.args, args)
	if r.err != nil {
		return nil, []byte("boom"), r.err
	}
	if slices.Contains(args, "tsv") {
		return []byte(r.tsv), nil, nil
	}
	return []byte(r.text), nil, nil
}

func TestParseTSVConfidences(t *testing.T) {
	confs := parseTSVConfidences(sampleTSV)
	// the page row has no text; the -1 word stays and is dropped by Normalized
	assert.Equal(t, []float64{96.5, 88.5, -1}, confs)

	rec := Recognition{Confidences: confs, Scale: 100}
	assert.InDelta(t, 92.5, meanConfidence(rec.Normalized()), 1e-9)
}

func TestParseTSVConfidences_NoHeader(t *testing.T) {
	assert.Empty(t, parseTSVConfidences(""))
	assert.Empty(t, parseTSVConfidences("garbage\nrows"))
}

func TestTesseractEngine_Recognize(t *testing.T) {
	r := &tessRunner{text: "HbA1c 6.5 %\n", tsv: sampleTSV}
	e := NewTesseractEngine(Config{Lang: "eng", PSM: 6}, r, nil)

	rec, err := e.Recognize(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "HbA1c 6.5 %\n", rec.Text)
	assert.Equal(t, 100.0, rec.Scale)
	require.Len(t, r.args, 2)
	assert.Equal(t, []string{"scan.png", "stdout", "-l", "eng", "--psm", "6"}, r.args[0])
	assert.Equal(t, "tsv", r.args[1][len(r.args[1])-1])
}

func TestTesseractEngine_NotInstalled(t *testing.T) {
	r := &tessRunner{err: errors.Join(runner.ErrNotInstalled, errors.New("exec: not found"))}
	_, err := NewTesseractEngine(Config{}, r, nil).Recognize(context.Background(), "scan.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestTesseractEngine_ProcessFailure(t *testing.T) {
	r := &tessRunner{err: errors.New("exit status 1")}
	_, err := NewTesseractEngine(Config{}, r, nil).Recognize(context.Background(), "scan.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEngineUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestRecognition_Normalized(t *testing.T) {
	rec := Recognition{Confidences: []float64{0.9, 0.5, -1}, Scale: 1}
	assert.Equal(t, []float64{90, 50}, rec.Normalized())

	assert.Equal(t, 0.0, meanConfidence(nil))
	assert.Equal(t, 33.33, meanConfidence([]float64{33.333, 33.333, 33.334}))
}
