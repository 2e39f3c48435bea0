package pipeline

import (
	"github.com/joseph-ayodele/medreport/internal/extract"
)

// extractStage hands winning text to the rule engine. A failed acquisition
// skips the engine and carries its error through unchanged.
func (p *Processor) extractStage(text extract.TextResult) Result {
	if !text.Success {
		return Result{
			Text:       text,
			Extraction: p.Engine.ExtractDataFromText(""),
			Error:      text.Error,
		}
	}
	return Result{
		Success:    true,
		Text:       text,
		Extraction: p.Engine.ExtractDataFromText(text.RawText),
	}
}
