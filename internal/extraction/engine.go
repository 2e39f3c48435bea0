package extraction

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/textutil"
)

// Engine turns raw report text into metrics and notes. Its tables are
// compiled once and only read afterwards, so one Engine serves any number
// of goroutines.
type Engine struct {
	patterns []compiledPattern
	faults   []PatternFault
	logger   *slog.Logger
}

type compiledPattern struct {
	MetricPattern
	re *regexp.Regexp
}

// PatternFault records a pattern that could not be compiled and is skipped.
type PatternFault struct {
	Key string
	Err error
}

type engineOptions struct {
	patterns []MetricPattern
	logger   *slog.Logger
}

type Option func(*engineOptions)

// WithPatterns replaces the built-in pattern table.
func WithPatterns(p []MetricPattern) Option {
	return func(o *engineOptions) { o.patterns = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

func NewEngine(opts ...Option) *Engine {
	o := engineOptions{patterns: metricPatterns}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	e := &Engine{logger: o.logger}
	for _, p := range o.patterns {
		re, err := regexp.Compile(`(?i)` + p.Pattern)
		if err != nil {
			o.logger.Warn("skipping metric pattern", "metric_key", p.Key, "error", err)
			e.faults = append(e.faults, PatternFault{Key: p.Key, Err: err})
			continue
		}
		e.patterns = append(e.patterns, compiledPattern{MetricPattern: p, re: re})
	}
	return e
}

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine() })

// Default returns the shared engine built from the built-in tables.
func Default() *Engine { return defaultEngine() }

// Faults lists patterns skipped at construction.
func (e *Engine) Faults() []PatternFault {
	out := make([]PatternFault, len(e.faults))
	copy(out, e.faults)
	return out
}

// ExtractDataFromText runs section splitting, metric extraction and note
// extraction over the same text. Blank input yields an empty result.
func (e *Engine) ExtractDataFromText(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		e.logger.Warn("extraction received empty text")
		return emptyResult()
	}
	sections := textutil.SplitIntoSections(raw)
	res := Result{
		Metrics:       e.ExtractMetrics(raw),
		Notes:         e.notesFromSections(sections),
		SectionsFound: sections.Headings(),
	}
	e.logger.Debug("extraction done",
		"metrics", len(res.Metrics),
		"notes", len(res.Notes),
		"sections", sections.Len(),
	)
	return res
}

// ExtractMetrics keeps the first parseable in-document match per metric key.
func (e *Engine) ExtractMetrics(text string) []Metric {
	metrics := []Metric{}
	seen := make(map[string]bool, len(e.patterns))

	for _, p := range e.patterns {
		if seen[p.Key] {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			metric, ok := buildMetric(p.MetricPattern, text, m)
			if !ok {
				continue
			}
			metrics = append(metrics, metric)
			seen[p.Key] = true
			break
		}
	}
	return metrics
}

func buildMetric(p MetricPattern, text string, loc []int) (Metric, bool) {
	group := func(i int) string {
		if 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	value, ok := textutil.ExtractNumericValue(group(1))
	if !ok {
		return Metric{}, false
	}

	ref, hasRef := referenceRanges[p.Key]
	unit := strings.TrimSpace(group(2))
	switch {
	case unit != "":
		unit = textutil.NormalizeUnit(unit)
	case hasRef:
		unit = ref.Unit
	}

	var refMin, refMax *float64
	if hasRef {
		r := ref.clone()
		refMin, refMax = r.Min, r.Max
	}

	return Metric{
		Key:            p.Key,
		Name:           p.Name,
		Value:          value,
		Unit:           unit,
		ReferenceMin:   refMin,
		ReferenceMax:   refMax,
		Status:         ClassifyStatus(value, refMin, refMax),
		RawTextSnippet: textutil.Truncate(group(0), SnippetMaxRunes),
		Confidence:     RuleConfidence,
	}, true
}

// ExtractTextualNotes splits text into sections and keeps the clinically relevant ones.
func (e *Engine) ExtractTextualNotes(text string) []Note {
	return e.notesFromSections(textutil.SplitIntoSections(text))
}

func (e *Engine) notesFromSections(sections textutil.SectionMap) []Note {
	notes := []Note{}
	for _, heading := range sections.Headings() {
		content := sections.Content(heading)
		if len(strings.TrimSpace(content)) < MinNoteLength {
			continue
		}
		if !headingIsNoteworthy(heading) && !containsAny(strings.ToLower(content), noteKeywords) {
			continue
		}
		notes = append(notes, Note{
			NoteType:       ClassifyNote(heading, content),
			Content:        textutil.CleanText(content),
			SectionHeading: textutil.DisplayHeading(heading),
		})
	}
	return notes
}

func headingIsNoteworthy(heading string) bool {
	upper := strings.ToUpper(heading)
	for _, h := range noteHeadings {
		if strings.Contains(upper, h) {
			return true
		}
	}
	return false
}

// ClassifyNote assigns a note type from heading and content keywords:
// prescription, then diagnosis, then doctor, else general.
func ClassifyNote(heading, content string) constants.NoteType {
	combined := strings.ToLower(heading + " " + content)
	switch {
	case containsAny(combined, prescriptionKeywords):
		return constants.NotePrescription
	case containsAny(combined, diagnosisKeywords):
		return constants.NoteDiagnosis
	case containsAny(combined, doctorKeywords):
		return constants.NoteDoctor
	default:
		return constants.NoteGeneral
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// ExtractDataFromText runs the default engine.
func ExtractDataFromText(raw string) Result { return Default().ExtractDataFromText(raw) }

// ExtractMetrics runs the default engine's metric pass.
func ExtractMetrics(text string) []Metric { return Default().ExtractMetrics(text) }

// ExtractTextualNotes runs the default engine's note pass.
func ExtractTextualNotes(text string) []Note { return Default().ExtractTextualNotes(text) }
