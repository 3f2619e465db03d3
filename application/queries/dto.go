package queries

import (
	"time"

	"github.com/TPCMinistries/insight-engine/domain/core/aggregates"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
)

// EdgeDTO is the read-side shape of a relationship
type EdgeDTO struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	SourceConcept  string    `json:"source_concept"`
	TargetConcept  string    `json:"target_concept"`
	RelationType   string    `json:"relation_type"`
	Strength       float64   `json:"strength"`
	Confidence     float64   `json:"confidence"`
	EvidenceCount  int       `json:"evidence_count"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EdgeToDTO converts a relationship entity
func EdgeToDTO(edge *entities.Relationship) EdgeDTO {
	return EdgeDTO{
		ID:             edge.ID(),
		OrganizationID: edge.OrganizationID(),
		SourceConcept:  edge.Source().String(),
		TargetConcept:  edge.Target().String(),
		RelationType:   string(edge.Type()),
		Strength:       edge.Strength(),
		Confidence:     edge.Confidence(),
		EvidenceCount:  edge.EvidenceCount(),
		IsActive:       edge.IsActive(),
		CreatedAt:      edge.CreatedAt(),
		UpdatedAt:      edge.UpdatedAt(),
	}
}

// EdgesToDTO converts a slice of relationships
func EdgesToDTO(edges []*entities.Relationship) []EdgeDTO {
	result := make([]EdgeDTO, 0, len(edges))
	for _, edge := range edges {
		result = append(result, EdgeToDTO(edge))
	}
	return result
}

// PathResult is the outcome of a shortest-path query. Found distinguishes an
// empty path that means "unreachable" from a short one.
type PathResult struct {
	SourceConcept string    `json:"source_concept"`
	TargetConcept string    `json:"target_concept"`
	Found         bool      `json:"found"`
	Hops          int       `json:"hops"`
	Path          []EdgeDTO `json:"path"`
}

// ClustersResult lists the connected components of the graph
type ClustersResult struct {
	OrganizationID string              `json:"organization_id"`
	Clusters       []aggregates.Cluster `json:"clusters"`
}

// StatsResult wraps the graph statistics
type StatsResult struct {
	OrganizationID string               `json:"organization_id"`
	Stats          aggregates.GraphStats `json:"stats"`
}

// SuggestionDTO is the read-side shape of a suggestion
type SuggestionDTO struct {
	ID             string     `json:"id"`
	SuggestionType string     `json:"suggestion_type"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
	Confidence     float64    `json:"confidence"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	ContextTags    []string   `json:"context_tags,omitempty"`
	SnoozedUntil   *time.Time `json:"snoozed_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SuggestionToDTO converts a suggestion entity
func SuggestionToDTO(suggestion *entities.Suggestion) SuggestionDTO {
	dto := SuggestionDTO{
		ID:             suggestion.ID(),
		SuggestionType: suggestion.Type(),
		Title:          suggestion.Title(),
		Description:    suggestion.Description(),
		RelevanceScore: suggestion.RelevanceScore(),
		Confidence:     suggestion.Confidence(),
		Priority:       string(suggestion.Priority()),
		Status:         string(suggestion.Status()),
		ContextTags:    suggestion.ContextTags(),
		CreatedAt:      suggestion.CreatedAt(),
	}
	if !suggestion.SnoozedUntil().IsZero() {
		snoozed := suggestion.SnoozedUntil()
		dto.SnoozedUntil = &snoozed
	}
	return dto
}

// SuggestionsToDTO converts a slice of suggestions
func SuggestionsToDTO(suggestions []*entities.Suggestion) []SuggestionDTO {
	result := make([]SuggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		result = append(result, SuggestionToDTO(suggestion))
	}
	return result
}
