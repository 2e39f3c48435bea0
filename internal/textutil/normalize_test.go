package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	in := "Patient:\tJohn  Doe\r\n\r\n\r\n\r\nHbA1c  6.5 %\x00\x07\n-----\n\fPage 2   "
	got := CleanText(in)
	assert.Equal(t, "Patient: John Doe\n\nHbA1c 6.5 %\n\nPage 2", got)
	assert.Equal(t, "", CleanText(""))
}

func TestCleanText_Deterministic(t *testing.T) {
	in := "  A  \n\n\n\nB\t\tC  "
	assert.Equal(t, CleanText(in), CleanText(in))
	assert.Equal(t, CleanText(in), CleanText(CleanText(in)))
}

func TestExtractNumericValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"6.5", 6.5, true},
		{" 210 ", 210, true},
		{"1,250", 1250, true},
		{"12,345.6", 12345.6, true},
		{"5,6", 5.6, true},
		{"5.6.", 5.6, true},
		{"~7.2*", 7.2, true},
		{"1.2.3", 1.2, true},
		{"-3", -3, true},
		{".", 0, false},
		{"..", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ExtractNumericValue(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := map[string]string{
		"mg/dl":    "mg/dL",
		"MG/DL":    "mg/dL",
		"mg/dL":    "mg/dL",
		"kg/m2":    "kg/m²",
		"kg/m²":    "kg/m²",
		"mmhg":     "mmHg",
		"µIU/mL":   "μIU/mL",
		"uIU/ml":   "μIU/mL",
		"mIU/L":    "mIU/L",
		" ng/ml ":  "ng/mL",
		"%":        "%",
		"cells/uL": "cells/uL",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUnit(in), "input %q", in)
	}
}

func TestCountWordsAndRichness(t *testing.T) {
	assert.Equal(t, 0, CountWords("  \n\t "))
	assert.Equal(t, 3, CountWords("one two\nthree"))

	assert.False(t, IsTextRich("a few words only", 0))
	assert.True(t, IsTextRich("a few words only", 4))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ü…", Truncate("üüüü", 2))
}
