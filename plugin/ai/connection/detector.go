// Package connection detects people mentioned by name in story text and
// maintains the per-user connection registry linking people to the
// stories they appear in.
package connection

import (
	"regexp"
	"strings"
)

// relationshipWords is the relationship vocabulary a name must be
// adjacent to before it is accepted. Free-standing capitalized words are
// never treated as names; precision over recall.
var relationshipWords = []string{
	"mother", "father", "mom", "dad", "sister", "brother",
	"grandmother", "grandfather", "grandma", "grandpa",
	"aunt", "uncle", "cousin", "wife", "husband", "son", "daughter",
	"friend", "neighbor", "teacher", "doctor", "boss", "colleague",
}

// Name-like span: one or two capitalized tokens.
const namePattern = `([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`

var (
	relAlternation = strings.Join(relationshipWords, "|")

	// "my mother Sarah"
	possessivePattern = regexp.MustCompile(
		`(?:(?i)\b(?:my|our|his|her|their)\s+(` + relAlternation + `)\s+)` + namePattern + `\b`)
	// "a friend named Tom", "my teacher called Mrs Harris"
	namedPattern = regexp.MustCompile(
		`(?:(?i)\b(` + relAlternation + `)\s+(?:named|called)\s+)` + namePattern + `\b`)
	// "Sarah, my mother"
	appositivePattern = regexp.MustCompile(
		`\b` + namePattern + `(?:(?i),\s*(?:my|our|his|her|their)\s+(` + relAlternation + `))\b`)
)

// Match is one probable person detected in text.
type Match struct {
	Name         string
	Relationship string
}

// Detector pattern-matches probable person names tied to relationship
// keywords. Stateless and safe for concurrent use.
type Detector struct{}

// NewDetector creates a new connection detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectMatches returns probable person names with the relationship word
// they were adjacent to, deduplicated by exact name. Order follows the
// surface patterns, but callers must not rely on it; uniqueness is the
// contract.
func (d *Detector) DetectMatches(content string) []Match {
	seen := make(map[string]bool)
	matches := []Match{}

	add := func(name, relationship string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		matches = append(matches, Match{
			Name:         name,
			Relationship: strings.ToLower(relationship),
		})
	}

	for _, m := range possessivePattern.FindAllStringSubmatch(content, -1) {
		add(m[2], m[1])
	}
	for _, m := range namedPattern.FindAllStringSubmatch(content, -1) {
		add(m[2], m[1])
	}
	for _, m := range appositivePattern.FindAllStringSubmatch(content, -1) {
		add(m[1], m[2])
	}

	return matches
}

// Detect returns probable person names found in content, excluding any
// already present in knownNames (compared by normalized name).
func (d *Detector) Detect(content string, knownNames ...string) []string {
	known := make(map[string]bool, len(knownNames))
	for _, n := range knownNames {
		known[NormalizeName(n)] = true
	}

	names := []string{}
	for _, m := range d.DetectMatches(content) {
		if known[NormalizeName(m.Name)] {
			continue
		}
		names = append(names, m.Name)
	}
	return names
}

// NormalizeName is the canonical form used for deduplication: at most one
// connection exists per (user, normalized name).
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
