package textutil

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinWords is the word count at which extracted text is considered rich enough to skip OCR.
const DefaultMinWords = 30

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reHSpace     = regexp.MustCompile(`[ \t\x{00A0}\x{2007}\x{202F}]+`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=~]{3,}\s*$`)
)

// CleanText collapses noisy whitespace and strips control characters.
// Line structure is kept (section splitting depends on it); runs of blank lines
// collapse to a single blank line.
func CleanText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == utf8.RuneError:
			return -1
		case unicode.IsControl(r):
			return -1
		case unicode.Is(unicode.Cf, r):
			// zero-width joiners, BOMs and friends
			return -1
		}
		return r
	}, s)
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reHSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CountWords counts whitespace-separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// IsTextRich reports whether text carries at least minWords words.
// A non-positive minWords uses DefaultMinWords.
func IsTextRich(s string, minWords int) bool {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return CountWords(s) >= minWords
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}

var (
	reNumericJunk = regexp.MustCompile(`[^0-9.,\-]`)
	reThousands   = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// ExtractNumericValue parses a possibly malformed numeric token ("1,250", "5.6.", "~7.2*").
// ok is false when nothing numeric survives; callers must skip the match, never treat it as zero.
func ExtractNumericValue(raw string) (value float64, ok bool) {
	s := reNumericJunk.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return 0, false
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.ReplaceAll(s, "-", "")

	switch {
	case reThousands.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		// decimal comma, e.g. "5,6"
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	s = strings.Trim(s, ".")
	if strings.Count(s, ".") > 1 {
		parts := strings.SplitN(s, ".", 3)
		s = parts[0] + "." + parts[1]
	}
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// canonical unit spellings keyed by NFKC-folded, lowercased, space-free form.
var canonicalUnits = map[string]string{
	"mg/dl":  "mg/dL",
	"mg/l":   "mg/L",
	"g/dl":   "g/dL",
	"g/l":    "g/L",
	"mmol/l": "mmol/L",
	"umol/l": "μmol/L",
	"μmol/l": "μmol/L",
	"nmol/l": "nmol/L",
	"pmol/l": "pmol/L",
	"ng/ml":  "ng/mL",
	"pg/ml":  "pg/mL",
	"miu/l":  "mIU/L",
	"uiu/ml": "μIU/mL",
	"μiu/ml": "μIU/mL",
	"iu/l":   "IU/L",
	"u/l":    "U/L",
	"kg/m2":  "kg/m²",
	"mmhg":   "mmHg",
	"%":      "%",
	"fl":     "fL",
	"pg":     "pg",
}

// NormalizeUnit maps loosely formatted unit text to its canonical spelling.
// Unknown units are returned trimmed and NFKC-folded.
func NormalizeUnit(raw string) string {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if c, ok := canonicalUnits[key]; ok {
		return c
	}
	return s
}
