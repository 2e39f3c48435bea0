package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/extraction"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

const reportText = "LIPID PROFILE\nTotal Cholesterol: 245 mg/dL\nTSH: 2.5 mIU/L"

// fakePipeline reads the file it is given so tests can check staged uploads.
type fakePipeline struct {
	mu       sync.Mutex
	paths    []string
	declared []string
	contents []string
}

func (f *fakePipeline) ProcessFile(_ context.Context, path, declared string) pipeline.Result {
	b, err := os.ReadFile(path)
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.declared = append(f.declared, declared)
	f.contents = append(f.contents, string(b))
	f.mu.Unlock()
	if err != nil {
		return pipeline.Result{
			FilePath:   path,
			Text:       extract.Failed("", "", err),
			Extraction: extraction.ExtractDataFromText(""),
			Error:      "file not found: " + path,
		}
	}
	text := string(b)
	return pipeline.Result{
		FilePath:   path,
		FileType:   constants.TEXT,
		Success:    true,
		Text:       extract.FromPages("plain-text", extract.MethodText, []string{text}),
		Extraction: extraction.ExtractDataFromText(text),
	}
}

func (f *fakePipeline) ExtractText(_ context.Context, text string) pipeline.Result {
	return pipeline.Result{
		FileType:   constants.TEXT,
		Success:    true,
		Text:       extract.FromPages("plain-text", extract.MethodText, []string{text}),
		Extraction: extraction.ExtractDataFromText(text),
	}
}

type fakeJobs struct {
	jobs map[uuid.UUID]*entity.ExtractJob
}

func newFakeJobs() (*fakeJobs, uuid.UUID) {
	id := uuid.New()
	return &fakeJobs{jobs: map[uuid.UUID]*entity.ExtractJob{
		id: {ID: id, FilePath: "/r.pdf", FileType: "pdf", Status: string(constants.JobStatusExtracted), StartedAt: time.Now().UTC()},
	}}, id
}

func (f *fakeJobs) Get(_ context.Context, id uuid.UUID) (*entity.ExtractJob, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return nil, common.WrapError(common.ErrNotFound, "extract job "+id.String())
}

func (f *fakeJobs) ListRecent(_ context.Context, limit int) ([]*entity.ExtractJob, error) {
	out := []*entity.ExtractJob{}
	for _, j := range f.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, j)
	}
	return out, nil
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte(reportText), 0o600))
	return path
}

func TestFileRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  fileRequest
		ok   bool
	}{
		{"path", fileRequest{Path: "/a.pdf"}, true},
		{"content", fileRequest{Content: []byte("x"), Filename: "a.pdf", FileType: "PDF"}, true},
		{"nothing", fileRequest{}, false},
		{"both", fileRequest{Path: "/a.pdf", Content: []byte("x"), Filename: "a.pdf"}, false},
		{"content without name", fileRequest{Content: []byte("x")}, false},
		{"too large", fileRequest{Content: []byte("12345"), Filename: "a.txt"}, false},
		{"bad type", fileRequest{Path: "/a.pdf", FileType: "docx"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.validate(4)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrValidation)
			}
		})
	}
}

func TestStageUpload(t *testing.T) {
	path, cleanup, err := stageUpload([]byte("data"), `..\..\evil/report.PDF`)
	require.NoError(t, err)
	assert.Equal(t, "report.PDF", filepath.Base(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	cleanup()
	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestDecodeContent(t *testing.T) {
	b, err := decodeContent("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = decodeContent("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = decodeContent("***")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
