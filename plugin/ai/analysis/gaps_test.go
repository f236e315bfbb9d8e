package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingContextHospitalBoundaryCase(t *testing.T) {
	e := NewExtractor()
	content := "My mother Sarah took me to the hospital when I was 5."
	elements := e.Extract(content)

	missing := IdentifyMissingContext(elements, content)

	// "when I was" supplies the timeframe.
	assert.NotContains(t, missing, ContextTemporal)
	// "to the hospital" names a place but "to" is not a locative
	// preposition, so spatial context is still flagged missing.
	assert.Contains(t, missing, ContextSpatial)
	// A person appears but no feeling or reaction is recorded.
	assert.Contains(t, missing, ContextPersonal)
}

func TestMissingContextRulesIndependent(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name    string
		content string
		want    []ContextCategory
	}{
		{
			name:    "nothing extracted flags only temporal",
			content: "Something happened once.",
			want:    []ContextCategory{ContextTemporal},
		},
		{
			name:    "situated location with timeframe flags nothing",
			content: "In 1990 we lived in the house by the lake, near the mountain.",
			want:    []ContextCategory{},
		},
		{
			name:    "person with reaction verb is not personal-missing",
			content: "My father said he was proud of me in 1982.",
			want:    []ContextCategory{},
		},
		{
			name:    "person without reaction verb is personal-missing",
			content: "My father drove for hours in 1982.",
			want:    []ContextCategory{ContextPersonal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements := e.Extract(tt.content)
			assert.Equal(t, tt.want, IdentifyMissingContext(elements, tt.content))
		})
	}
}

func TestMissingContextDeterministic(t *testing.T) {
	e := NewExtractor()
	content := "My aunt visited the farm."
	elements := e.Extract(content)

	first := IdentifyMissingContext(elements, content)
	second := IdentifyMissingContext(elements, content)
	assert.Equal(t, first, second)
}
