package analysis

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Engine orchestrates extraction, gap analysis, and confidence scoring
// into a single analysis pass. Analyze never returns an error: any
// internal failure degrades to an empty result so a malformed story can
// never break the conversation around it.
type Engine struct {
	extractor *Extractor
}

// NewEngine creates a new memory analysis engine.
func NewEngine() *Engine {
	return &Engine{extractor: NewExtractor()}
}

// Analyze runs one analysis pass over story content. Idempotent: the same
// content always yields the same elements and missing contexts (only
// timestamps and processing time vary between calls).
func (e *Engine) Analyze(content string) *Result {
	start := time.Now()

	if strings.TrimSpace(content) == "" {
		return EmptyResult()
	}

	// Strip markdown so pattern scans see prose, not syntax.
	plain := StripMarkdown(content)

	elements := e.extractor.Extract(plain)
	missing := IdentifyMissingContext(elements, plain)

	verifiedDetails := []string{}
	total := 0
	verified := 0
	for _, typ := range AllElementTypes {
		for _, el := range elements[typ] {
			total++
			if el.Verified {
				verified++
				verifiedDetails = append(verifiedDetails, el.Value)
			}
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = float64(verified) / float64(total)
	}

	result := &Result{
		Elements:        elements,
		MissingContexts: missing,
		VerifiedDetails: verifiedDetails,
		Timestamp:       time.Now(),
		Metadata: Metadata{
			TotalElements:    total,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Confidence:       confidence,
		},
	}

	slog.Debug("analysis pass complete",
		"total_elements", total,
		"missing_contexts", len(missing),
		"duration_ms", result.Metadata.ProcessingTimeMs,
	)
	return result
}

// GenerateFollowUpQuestions derives at most one templated question per
// missing context category. Deterministic for a given result.
func (e *Engine) GenerateFollowUpQuestions(result *Result) []FollowUpQuestion {
	questions := []FollowUpQuestion{}
	if result == nil {
		return questions
	}

	for _, category := range result.MissingContexts {
		switch category {
		case ContextTemporal:
			questions = append(questions, FollowUpQuestion{
				Type:     "timeframe",
				Text:     "When did this happen?",
				Context:  ContextTemporal,
				Priority: 1,
			})
		case ContextSpatial:
			q := FollowUpQuestion{
				Type:     "location",
				Text:     "Where did this take place?",
				Context:  ContextSpatial,
				Priority: 2,
			}
			if locations := result.Elements[ElementLocation]; len(locations) > 0 {
				q.Text = fmt.Sprintf("What was the %s like? Can you picture it?", locations[0].Value)
				q.RelatedElements = []string{locations[0].Value}
			}
			questions = append(questions, q)
		case ContextPersonal:
			q := FollowUpQuestion{
				Type:     "feeling",
				Text:     "How did you feel in that moment?",
				Context:  ContextPersonal,
				Priority: 3,
			}
			if people := result.Elements[ElementPerson]; len(people) > 0 {
				q.Text = fmt.Sprintf("How did you feel about your %s in that moment?", people[0].Value)
				q.RelatedElements = []string{people[0].Value}
			}
			questions = append(questions, q)
		}
	}

	return questions
}

// GenerateGreeting builds the deterministic opening line for a story
// conversation. References the first event and location pair when both
// are present, then appends the first follow-up question; otherwise
// falls back to a generic continuation prompt.
func (e *Engine) GenerateGreeting(content string, result *Result) string {
	fallback := "Thanks for sharing this memory. I'd love to hear more - what happened next?"
	if result == nil {
		return fallback
	}

	events := result.Elements[ElementEvent]
	locations := result.Elements[ElementLocation]
	questions := e.GenerateFollowUpQuestions(result)

	if len(events) > 0 && len(locations) > 0 {
		greeting := fmt.Sprintf(
			"It sounds like a lot happened around the time you %s at the %s.",
			events[0].Value, locations[0].Value,
		)
		if len(questions) > 0 {
			greeting += " " + questions[0].Text
		}
		return greeting
	}

	if len(questions) > 0 {
		return fallback + " " + questions[0].Text
	}
	return fallback
}
