package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/extraction"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// Sheet names in the exported workbook.
const (
	SheetSummary = "Summary"
	SheetMetrics = "Metrics"
	SheetNotes   = "Notes"
)

// Service renders pipeline results as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultXLSX returns a workbook with Summary, Metrics and Notes sheets.
// Abnormal metric rows are highlighted.
func (s *Service) ResultXLSX(res pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, sheet := range []string{SheetMetrics, SheetNotes} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	writeSummary(f, res)
	if err := writeMetrics(f, res.Extraction.Metrics); err != nil {
		return nil, err
	}
	writeNotes(f, res.Extraction.Notes)

	idx, _ := f.GetSheetIndex(SheetMetrics)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"path", res.FilePath,
		"metrics", len(res.Extraction.Metrics),
		"notes", len(res.Extraction.Notes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func writeSummary(f *excelize.File, res pipeline.Result) {
	sum := res.Extraction.Summary()
	rows := [][]any{
		{"Source", res.FilePath},
		{"File Type", string(res.FileType)},
		{"Success", res.Success},
		{"Engine", res.Text.Engine},
		{"Method", res.Text.Method},
		{"Pages", res.Text.PageCount},
		{"Words", res.Text.WordCount},
		{"OCR Confidence", res.Text.Confidence},
		{"Needs Review", res.Text.NeedsReview},
		{"Metrics", sum.MetricCount},
		{"Abnormal Metrics", len(sum.Abnormal)},
		{"Notes", sum.NoteCount},
		{"Sections", len(res.Extraction.SectionsFound)},
	}
	if res.Error != "" {
		rows = append(rows, []any{"Error", res.Error})
	}
	for i, r := range rows {
		writeRow(f, SheetSummary, i+1, r...)
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 20)
	_ = f.SetColWidth(SheetSummary, "B", "B", 60)
}

func writeMetrics(f *excelize.File, metrics []extraction.Metric) error {
	writeRow(f, SheetMetrics, 1, "Metric", "Key", "Value", "Unit", "Reference Min", "Reference Max", "Status", "Source Text")

	abnormal, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, m := range metrics {
		row := i + 2
		writeRow(f, SheetMetrics, row,
			m.Name, m.Key, m.Value, m.Unit,
			optional(m.ReferenceMin), optional(m.ReferenceMax),
			string(m.Status), textutil.Truncate(m.RawTextSnippet, 140),
		)
		if m.Status != constants.StatusNormal && m.Status != constants.StatusUnknown {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(8, row)
			_ = f.SetCellStyle(SheetMetrics, first, last, abnormal)
		}
	}

	_ = f.SetColWidth(SheetMetrics, "A", "A", 26) // name
	_ = f.SetColWidth(SheetMetrics, "B", "B", 22) // key
	_ = f.SetColWidth(SheetMetrics, "C", "F", 14)
	_ = f.SetColWidth(SheetMetrics, "G", "G", 10)
	_ = f.SetColWidth(SheetMetrics, "H", "H", 60)
	return nil
}

func writeNotes(f *excelize.File, notes []extraction.Note) {
	writeRow(f, SheetNotes, 1, "Type", "Section", "Content")
	for i, n := range notes {
		writeRow(f, SheetNotes, i+2, string(n.NoteType), n.SectionHeading, n.Content)
	}
	_ = f.SetColWidth(SheetNotes, "A", "A", 16)
	_ = f.SetColWidth(SheetNotes, "B", "B", 24)
	_ = f.SetColWidth(SheetNotes, "C", "C", 100)
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
