package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestHTTP_Health(t *testing.T) {
	h := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}, Ping: func(context.Context) error { return errors.New("db down") }})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTP_ExtractText(t *testing.T) {
	h := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}})

	body, _ := json.Marshal(map[string]string{"text": reportText})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract/text", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Extraction.Metrics, 2)

	for _, bad := range []string{`{"text":""}`, `not json`} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/extract/text", strings.NewReader(bad)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestHTTP_ExtractFile(t *testing.T) {
	fp := &fakePipeline{}
	h := NewHTTPHandler(HTTPConfig{Pipeline: fp, MaxUpload: 1 << 20})

	body, ct := multipartBody(t, "lipid.txt", reportText, map[string]string{"file_type": "text"})
	req := httptest.NewRequest(http.MethodPost, "/v1/extract/file", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "lipid.txt", res.FilePath)
	assert.Equal(t, []string{"text"}, fp.declared)
	assert.Equal(t, reportText, fp.contents[0])
	assert.NoFileExists(t, fp.paths[0], "staged upload is removed")
}

func TestHTTP_ExtractFileXLSX(t *testing.T) {
	h := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}})

	body, ct := multipartBody(t, "lipid.txt", reportText, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/extract/file?format=xlsx", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetMetrics)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHTTP_ExtractFileErrors(t *testing.T) {
	h := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}, MaxUpload: 16})

	cases := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		want     int
	}{
		{"missing file", "", "", nil, http.StatusBadRequest},
		{"empty file", "a.txt", "", nil, http.StatusBadRequest},
		{"too large", "a.txt", strings.Repeat("x", 17), nil, http.StatusBadRequest},
		{"bad file type", "a.txt", "x", map[string]string{"file_type": "docx"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.filename, tc.content, tc.fields)
			req := httptest.NewRequest(http.MethodPost, "/v1/extract/file", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTP_Jobs(t *testing.T) {
	jobs, id := newFakeJobs()
	h := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}, Jobs: jobs})

	cases := []struct {
		path string
		want int
	}{
		{"/v1/jobs/" + id.String(), http.StatusOK},
		{"/v1/jobs/not-a-uuid", http.StatusBadRequest},
		{"/v1/jobs/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{"/v1/jobs?limit=5", http.StatusOK},
		{"/v1/jobs?limit=-1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, tc.path)
	}

	noLedger := NewHTTPHandler(HTTPConfig{Pipeline: &fakePipeline{}})
	rec := httptest.NewRecorder()
	noLedger.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
