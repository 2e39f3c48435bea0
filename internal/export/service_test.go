package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/extraction"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
)

func TestResultXLSX(t *testing.T) {
	text := "LIPID PROFILE\nTotal Cholesterol: 245 mg/dL\nTSH: 2.5 mIU/L\nPrescriptions:\nTab Atorvastatin 10 mg once daily at bedtime."
	res := pipeline.Result{
		FilePath:   "/reports/lipid.pdf",
		FileType:   constants.PDF,
		Success:    true,
		Text:       extract.FromPages("pdf-native", extract.MethodPDFText, []string{text}),
		Extraction: extraction.ExtractDataFromText(text),
	}
	require.Len(t, res.Extraction.Metrics, 2)

	b, err := NewService(nil).ResultXLSX(res)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetSummary, SheetMetrics, SheetNotes}, f.GetSheetList())

	rows, err := f.GetRows(SheetMetrics)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Metric", rows[0][0])
	assert.Equal(t, "total_cholesterol", rows[1][1])
	assert.Equal(t, "245", rows[1][2])
	assert.Equal(t, "high", rows[1][6])
	assert.Equal(t, "tsh", rows[2][1])

	// abnormal rows are styled, normal rows are not
	high, err := f.GetCellStyle(SheetMetrics, "A2")
	require.NoError(t, err)
	normal, err := f.GetCellStyle(SheetMetrics, "A3")
	require.NoError(t, err)
	assert.NotEqual(t, high, normal)

	notes, err := f.GetRows(SheetNotes)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, string(constants.NotePrescription), notes[1][0])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Source", "/reports/lipid.pdf"}, summary[0])
}

func TestResultXLSX_FailedResult(t *testing.T) {
	res := pipeline.Result{
		FilePath:   "/reports/broken.pdf",
		FileType:   constants.PDF,
		Text:       extract.Failed("", extract.MethodPDFText, assert.AnError),
		Extraction: extraction.ExtractDataFromText(""),
		Error:      assert.AnError.Error(),
	}
	b, err := NewService(nil).ResultXLSX(res)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetMetrics)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	last := summary[len(summary)-1]
	assert.Equal(t, "Error", last[0])
}
