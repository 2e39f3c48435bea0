package extraction

import "github.com/joseph-ayodele/medreport/constants"

// RuleConfidence is the fixed score given to every regex-derived metric.
const RuleConfidence = 0.85

// SnippetMaxRunes bounds Metric.RawTextSnippet.
const SnippetMaxRunes = 120

// MinNoteLength is the minimum trimmed section length for a note.
const MinNoteLength = 20

// Metric is one recognized numeric lab value. Never mutated after creation.
type Metric struct {
	Key            string                 `json:"metric_key"`
	Name           string                 `json:"metric_name"`
	Value          float64                `json:"value"`
	Unit           string                 `json:"unit"`
	ReferenceMin   *float64               `json:"reference_min"`
	ReferenceMax   *float64               `json:"reference_max"`
	Status         constants.MetricStatus `json:"status"`
	RawTextSnippet string                 `json:"raw_text_snippet"`
	Confidence     float64                `json:"confidence"`
}

// Note is one clinically relevant block of free text.
type Note struct {
	NoteType       constants.NoteType `json:"note_type"`
	Content        string             `json:"content"`
	SectionHeading string             `json:"section_heading"`
}

// Result is the output of one extraction pass. Metrics keep pattern-table
// order and hold at most one entry per key; notes keep section order.
type Result struct {
	Metrics       []Metric `json:"metrics"`
	Notes         []Note   `json:"notes"`
	SectionsFound []string `json:"sections_found"`
}

func emptyResult() Result {
	return Result{Metrics: []Metric{}, Notes: []Note{}, SectionsFound: []string{}}
}

// IsEmpty reports whether nothing at all was extracted.
func (r Result) IsEmpty() bool {
	return len(r.Metrics) == 0 && len(r.Notes) == 0 && len(r.SectionsFound) == 0
}

// Metric returns the metric for key, if present.
func (r Result) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Summary condenses a result for the insights display.
type Summary struct {
	MetricCount int                            `json:"metric_count"`
	ByStatus    map[constants.MetricStatus]int `json:"by_status"`
	Abnormal    []string                       `json:"abnormal"` // keys not classified normal or unknown
	NoteCount   int                            `json:"note_count"`
	NotesByType map[constants.NoteType]int     `json:"notes_by_type"`
}

func (r Result) Summary() Summary {
	s := Summary{
		MetricCount: len(r.Metrics),
		ByStatus:    make(map[constants.MetricStatus]int, len(constants.AllMetricStatuses)),
		Abnormal:    []string{},
		NoteCount:   len(r.Notes),
		NotesByType: make(map[constants.NoteType]int, len(constants.AllNoteTypes)),
	}
	for _, m := range r.Metrics {
		s.ByStatus[m.Status]++
		if m.Status != constants.StatusNormal && m.Status != constants.StatusUnknown {
			s.Abnormal = append(s.Abnormal, m.Key)
		}
	}
	for _, n := range r.Notes {
		s.NotesByType[n.NoteType]++
	}
	return s
}
