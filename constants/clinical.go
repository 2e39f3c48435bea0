package constants

// MetricStatus classifies a lab value against its reference range.
type MetricStatus string

const (
	StatusNormal   MetricStatus = "normal"
	StatusLow      MetricStatus = "low"
	StatusHigh     MetricStatus = "high"
	StatusCritical MetricStatus = "critical"
	StatusUnknown  MetricStatus = "unknown"
)

// AllMetricStatuses lists statuses in display order.
var AllMetricStatuses = []MetricStatus{StatusNormal, StatusLow, StatusHigh, StatusCritical, StatusUnknown}

// NoteType is the heuristic category of a textual note.
type NoteType string

const (
	NoteDoctor       NoteType = "doctor_note"
	NotePrescription NoteType = "prescription"
	NoteDiagnosis    NoteType = "diagnosis"
	NoteGeneral      NoteType = "general"
)

// AllNoteTypes lists note types in classification priority order, general last.
var AllNoteTypes = []NoteType{NotePrescription, NoteDiagnosis, NoteDoctor, NoteGeneral}

// AsStringSlice returns typed enum values as plain strings (JSON schema enums).
func AsStringSlice[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
