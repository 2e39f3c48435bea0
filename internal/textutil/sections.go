package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSection holds text that precedes the first detected heading,
// or the whole document when no heading is found.
const DefaultSection = "GENERAL"

// SectionMap is an insertion-ordered heading -> content mapping.
type SectionMap struct {
	order   []string
	content map[string]string
}

// Headings returns heading keys in document order.
func (m SectionMap) Headings() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Content returns the text under heading h.
func (m SectionMap) Content(h string) string { return m.content[h] }

// Len returns the number of sections.
func (m SectionMap) Len() int { return len(m.order) }

var (
	reNonKey     = regexp.MustCompile(`[^\p{L}\p{Nd}]+`)
	reMarkdownHd = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
)

const (
	minHeadingRunes = 3
	maxHeadingRunes = 60
	maxLabelWords   = 5
	maxCapsWords    = 6
)

// SplitIntoSections segments text into named sections. Headings are detected from
// colon-terminated labels ("Diagnosis:"), all-caps lines ("DOCTOR NOTES") and
// markdown-style "# Heading" lines. Keys are uppercase with underscores
// ("DOCTOR_NOTES"). A heading seen twice appends to its first occurrence.
func SplitIntoSections(text string) SectionMap {
	m := SectionMap{content: map[string]string{}}
	if strings.TrimSpace(text) == "" {
		return m
	}

	lines := map[string][]string{}
	current := DefaultSection
	var order []string
	seen := map[string]bool{}
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if key, ok := detectHeading(line); ok {
			current = key
			add(current)
			continue
		}
		if current == DefaultSection && line != "" {
			add(DefaultSection)
		}
		lines[current] = append(lines[current], line)
	}

	for _, key := range order {
		m.order = append(m.order, key)
		m.content[key] = strings.TrimSpace(strings.Join(lines[key], "\n"))
	}
	return m
}

func detectHeading(line string) (string, bool) {
	if hm := reMarkdownHd.FindStringSubmatch(line); hm != nil {
		line = strings.TrimSpace(hm[1])
		if key := headingKey(line); key != "" {
			return key, true
		}
	}

	n := utf8.RuneCountInString(line)
	if n < minHeadingRunes || n > maxHeadingRunes {
		return "", false
	}

	if strings.HasSuffix(line, ":") {
		label := strings.TrimSpace(strings.TrimSuffix(line, ":"))
		if !isLabel(label) {
			return "", false
		}
		key := headingKey(label)
		return key, key != ""
	}

	if isCapsHeading(line) {
		key := headingKey(line)
		return key, key != ""
	}
	return "", false
}

// isLabel accepts short digit-free phrases such as "Doctor's Notes".
func isLabel(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > maxLabelWords {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isCapsHeading accepts lines made only of uppercase words and light punctuation.
func isCapsHeading(s string) bool {
	if len(strings.Fields(s)) > maxCapsWords {
		return false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		case r == ' ' || r == '&' || r == '-' || r == '_' || r == '/' || r == '\'' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return letters >= minHeadingRunes
}

// headingKey uppercases s and joins its letter and digit runs with
// underscores. Non-Latin scripts are kept.
func headingKey(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(s, "'", ""))
	return strings.Trim(reNonKey.ReplaceAllString(s, "_"), "_")
}

// DisplayHeading turns a section key into a human label: "DOCTOR_NOTES" -> "Doctor Notes".
func DisplayHeading(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
