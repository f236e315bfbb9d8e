package analysis

import (
	"log/slog"
	"regexp"
	"strings"
)

// Fixed vocabularies per element type. Matching is case-insensitive and
// word-bounded; anything outside these patterns is simply not extracted.
var (
	peopleVocabulary = []string{
		"mother", "father", "mom", "dad", "sister", "brother",
		"grandmother", "grandfather", "grandma", "grandpa",
		"aunt", "uncle", "cousin", "wife", "husband", "son", "daughter",
		"friend", "neighbor", "teacher", "doctor", "boss", "colleague",
	}
	locationVocabulary = []string{
		"house", "home", "school", "hospital", "church", "park", "beach",
		"city", "town", "village", "farm", "store", "shop", "office",
		"kitchen", "garden", "street", "river", "lake", "mountain",
	}
	eventVocabulary = []string{
		"born", "married", "moved", "graduated", "died", "traveled",
		"visited", "celebrated", "met", "arrived", "started", "finished",
		"worked", "played", "learned", "built",
	}
	objectVocabulary = []string{
		"car", "bicycle", "bike", "book", "letter", "photo", "photograph",
		"piano", "guitar", "dress", "watch", "ring", "doll", "toy",
		"radio", "television",
	}
	timeframePhrases = []string{
		"when i was", "years ago", "last year", "last summer", "last winter",
		"as a child", "growing up", "back then", "in those days",
		"every summer", "every winter", "that morning", "that night",
	}
)

var (
	yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	peoplePattern    = vocabularyPattern(peopleVocabulary)
	locationPattern  = vocabularyPattern(locationVocabulary)
	eventPattern     = vocabularyPattern(eventVocabulary)
	objectPattern    = vocabularyPattern(objectVocabulary)
	timeframePattern = vocabularyPattern(timeframePhrases)
)

func vocabularyPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Extractor recognizes typed memory elements in raw text. Stateless and
// safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a new pattern extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract scans content against the fixed vocabulary for each element
// type. Matches are deduplicated case-insensitively per type before
// elements are built, and every element is verified: only text explicitly
// present in the input produces an element.
func (e *Extractor) Extract(content string) map[ElementType][]MemoryElement {
	elements := make(map[ElementType][]MemoryElement)
	if strings.TrimSpace(content) == "" {
		return elements
	}

	scans := []struct {
		typ      ElementType
		patterns []*regexp.Regexp
	}{
		{ElementPerson, []*regexp.Regexp{peoplePattern}},
		{ElementLocation, []*regexp.Regexp{locationPattern}},
		{ElementEvent, []*regexp.Regexp{eventPattern}},
		{ElementTimeframe, []*regexp.Regexp{timeframePattern, yearPattern}},
		{ElementObject, []*regexp.Regexp{objectPattern}},
	}

	for _, scan := range scans {
		seen := make(map[string]bool)
		for _, pattern := range scan.patterns {
			for _, match := range pattern.FindAllString(content, -1) {
				value := strings.ToLower(strings.TrimSpace(match))
				if value == "" || seen[value] {
					continue
				}
				seen[value] = true
				elements[scan.typ] = append(elements[scan.typ], MemoryElement{
					Type:       scan.typ,
					Value:      value,
					Context:    sentenceContext(content, match),
					Verified:   true,
					Confidence: 1.0,
				})
			}
		}
	}

	return elements
}

// sentenceContext returns the smallest sentence containing the match,
// located via a sentence-boundary pattern anchored on the match itself.
// Returns the empty string when no containing sentence is found; that is
// not an error, the element just carries no context.
func sentenceContext(content, match string) string {
	pattern, err := regexp.Compile(`(?i)[^.!?\n]*` + regexp.QuoteMeta(match) + `[^.!?\n]*[.!?]?`)
	if err != nil {
		slog.Debug("sentence lookup failed", "match", match, "error", err)
		return ""
	}
	return strings.TrimSpace(pattern.FindString(content))
}
