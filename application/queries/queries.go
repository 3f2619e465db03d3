package queries

import (
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// GetPendingSuggestionsQuery lists a user's actionable suggestions, ranked
type GetPendingSuggestionsQuery struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	Limit          int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// Validate checks the query's invariants
func (q GetPendingSuggestionsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// FindPathQuery finds a shortest relationship path between two concepts
type FindPathQuery struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	SourceConcept  string `json:"source_concept" validate:"required"`
	TargetConcept  string `json:"target_concept" validate:"required"`
	MaxDepth       int    `json:"max_depth,omitempty" validate:"omitempty,min=1,max=10"`
}

// Validate checks the query's invariants
func (q FindPathQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetClustersQuery lists the connected components of the active graph
type GetClustersQuery struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	MinSize        int    `json:"min_size,omitempty" validate:"omitempty,min=1"`
}

// Validate checks the query's invariants
func (q GetClustersQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetGraphStatsQuery summarizes the active graph
type GetGraphStatsQuery struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

// Validate checks the query's invariants
func (q GetGraphStatsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetEdgesQuery lists edges for an organization, optionally filtered
type GetEdgesQuery struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Concept        string `json:"concept,omitempty"`
	RelationType   string `json:"relation_type,omitempty"`
	Limit          int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// Validate checks the query's invariants
func (q GetEdgesQuery) Validate() error {
	return utils.ValidateStruct(q)
}
