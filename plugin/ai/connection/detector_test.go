package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPossessivePattern(t *testing.T) {
	d := NewDetector()
	names := d.Detect("My mother Sarah took me to the hospital when I was 5.")
	assert.Equal(t, []string{"Sarah"}, names)
}

func TestDetectNamedPattern(t *testing.T) {
	d := NewDetector()
	names := d.Detect("I had a friend named Tom who lived next door.")
	assert.Equal(t, []string{"Tom"}, names)

	names = d.Detect("There was a teacher called Mrs Harris at our school.")
	assert.Equal(t, []string{"Mrs Harris"}, names)
}

func TestDetectAppositivePattern(t *testing.T) {
	d := NewDetector()
	names := d.Detect("Sarah, my mother, drove us home in silence.")
	assert.Equal(t, []string{"Sarah"}, names)
}

func TestDetectUnique(t *testing.T) {
	d := NewDetector()
	names := d.Detect("My brother David was there. David, my brother, laughed a lot.")
	assert.Len(t, names, 1)
	assert.Contains(t, names, "David")
}

func TestDetectFreeStandingCapitalizedWordRejected(t *testing.T) {
	d := NewDetector()
	// Capitalized words without adjacent relationship vocabulary are
	// never treated as names.
	names := d.Detect("Paris was beautiful that October. Everyone loved it.")
	assert.Empty(t, names)
}

func TestDetectExcludesKnownNames(t *testing.T) {
	d := NewDetector()
	names := d.Detect("My mother Sarah and my uncle Pete argued all night.", "sarah")
	assert.Equal(t, []string{"Pete"}, names)
}

func TestDetectMatchesCarryRelationship(t *testing.T) {
	d := NewDetector()
	matches := d.DetectMatches("My mother Sarah waved. I had a friend named Tom.")

	require.Len(t, matches, 2)
	byName := map[string]string{}
	for _, m := range matches {
		byName[m.Name] = m.Relationship
	}
	assert.Equal(t, "mother", byName["Sarah"])
	assert.Equal(t, "friend", byName["Tom"])
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "mrs harris", NormalizeName("  Mrs   Harris "))
	assert.Equal(t, "sarah", NormalizeName("Sarah"))
}
