package ports

import "context"

// RelationshipCandidate is one proposed concept relationship exactly as the
// completion service returned it. Untrusted: every field is re-validated and
// clamped before it can reach the graph store.
type RelationshipCandidate struct {
	SourceConcept    string  `json:"source_concept"`
	TargetConcept    string  `json:"target_concept"`
	RelationshipType string  `json:"relationship_type"`
	Strength         float64 `json:"strength"`
	Confidence       float64 `json:"confidence"`
}

// InsightCandidate is one proposed insight or pattern from the completion
// service. Kind distinguishes the two; untrusted like everything else.
type InsightCandidate struct {
	Kind        string  `json:"kind"` // "insight" or "pattern"
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// SuggestionCandidate is one proposed suggestion from the completion service
type SuggestionCandidate struct {
	SuggestionType  string   `json:"suggestion_type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RelevanceScore  float64  `json:"relevance_score"`
	Confidence      float64  `json:"confidence"`
	Priority        string   `json:"priority"`
	BasedOnInsights []string `json:"based_on_insights"`
	BasedOnPatterns []string `json:"based_on_patterns"`
	ContextTags     []string `json:"context_tags"`
}

// GenerationContext is the evidence bundle handed to the completion service
// when synthesizing suggestion candidates
type GenerationContext struct {
	Insights    []GenerationInsight  `json:"insights"`
	Patterns    []GenerationPattern  `json:"patterns"`
	Preferences []GenerationPreference `json:"preferences"`
}

// GenerationInsight summarizes one insight for the generation prompt
type GenerationInsight struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}

// GenerationPattern summarizes one pattern for the generation prompt
type GenerationPattern struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Confidence      float64 `json:"confidence"`
	OccurrenceCount int     `json:"occurrence_count"`
}

// GenerationPreference summarizes one preference for the generation prompt
type GenerationPreference struct {
	Type       string  `json:"type"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// CompletionService is the single outbound contract to the external
// text-understanding service: prompt in, JSON array of typed objects out.
// Responses are untrusted data. Calls are time-bounded by the caller's
// context; a failure or timeout degrades to an empty result upstream, it is
// never fatal.
type CompletionService interface {
	// ExtractRelationships proposes concept relationships from a transcript
	ExtractRelationships(ctx context.Context, transcript string) ([]RelationshipCandidate, error)

	// ExtractInsights proposes insights and patterns from a transcript
	ExtractInsights(ctx context.Context, transcript string) ([]InsightCandidate, error)

	// GenerateSuggestions synthesizes suggestion candidates from the
	// accumulated evidence
	GenerateSuggestions(ctx context.Context, generation GenerationContext) ([]SuggestionCandidate, error)
}
