// Package analysis extracts typed memory elements from story text and
// derives what context the story still under-specifies. Extraction is
// pattern-based and deterministic: only text explicitly present can
// produce an element, and every produced element is verified.
package analysis

import (
	"time"
)

// ElementType classifies a memory element.
type ElementType string

const (
	ElementPerson    ElementType = "person"
	ElementLocation  ElementType = "location"
	ElementEvent     ElementType = "event"
	ElementTimeframe ElementType = "timeframe"
	ElementObject    ElementType = "object"
)

// AllElementTypes lists every element type in scan order.
var AllElementTypes = []ElementType{
	ElementPerson, ElementLocation, ElementEvent, ElementTimeframe, ElementObject,
}

// ContextCategory classifies a kind of missing context.
type ContextCategory string

const (
	ContextTemporal ContextCategory = "temporal"
	ContextSpatial  ContextCategory = "spatial"
	ContextPersonal ContextCategory = "personal"
)

// MemoryElement is one recognized fact. Immutable after creation.
// Verified is true iff the value was extracted directly from text;
// inferred elements are never produced.
type MemoryElement struct {
	Type       ElementType `json:"type"`
	Value      string      `json:"value"`
	Context    string      `json:"context"`
	Verified   bool        `json:"verified"`
	Confidence float64     `json:"confidence,omitempty"`
}

// Metadata carries aggregate measurements for one analysis pass.
type Metadata struct {
	TotalElements    int     `json:"totalElements"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	Confidence       float64 `json:"confidence"`
}

// Result is the aggregate of one analysis pass. Created fresh on every
// call and never mutated; a later analysis supersedes it.
type Result struct {
	Elements        map[ElementType][]MemoryElement `json:"elements"`
	MissingContexts []ContextCategory               `json:"missingContexts"`
	VerifiedDetails []string                        `json:"verifiedDetails"`
	Timestamp       time.Time                       `json:"timestamp"`
	Metadata        Metadata                        `json:"metadata"`
}

// EmptyResult returns the neutral result used for empty input and for
// internal failures. Analyze never propagates an error.
func EmptyResult() *Result {
	return &Result{
		Elements:        map[ElementType][]MemoryElement{},
		MissingContexts: []ContextCategory{},
		VerifiedDetails: []string{},
		Timestamp:       time.Now(),
	}
}

// FollowUpQuestion is a templated prompt derived from a Result's missing
// contexts. Stateless; regenerated on demand.
type FollowUpQuestion struct {
	Type            string          `json:"type"`
	Text            string          `json:"text"`
	Context         ContextCategory `json:"context"`
	Priority        int             `json:"priority,omitempty"`
	RelatedElements []string        `json:"relatedElements,omitempty"`
}
