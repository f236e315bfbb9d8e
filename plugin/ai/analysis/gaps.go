package analysis

import (
	"regexp"
)

// Surface patterns used by the gap rules. These are heuristics over
// literal text, not semantic understanding; the contract is determinism,
// not linguistic correctness.
var (
	// Locative prepositions that situate a named place. Note "to the" is
	// deliberately absent: "went to the hospital" names a place without
	// situating the scene there, so spatial context is still flagged.
	locativePattern = regexp.MustCompile(`(?i)\b(?:in|at|near|by|inside|outside|around)\s+the\b`)

	// Reaction and feeling verbs that anchor a personal perspective.
	reactionPattern = regexp.MustCompile(`(?i)\b(?:felt|thought|said|told|asked|responded|reacted)\b`)
)

// IdentifyMissingContext determines which context categories the content
// under-specifies. Rules apply independently:
//
//   - temporal: no timeframe elements were extracted.
//   - spatial: a place was named but never situated with a locative
//     preposition.
//   - personal: a person was named but no reaction or feeling was recorded.
func IdentifyMissingContext(elements map[ElementType][]MemoryElement, content string) []ContextCategory {
	missing := []ContextCategory{}

	if len(elements[ElementTimeframe]) == 0 {
		missing = append(missing, ContextTemporal)
	}
	if len(elements[ElementLocation]) > 0 && !locativePattern.MatchString(content) {
		missing = append(missing, ContextSpatial)
	}
	if len(elements[ElementPerson]) > 0 && !reactionPattern.MatchString(content) {
		missing = append(missing, ContextPersonal)
	}

	return missing
}
