package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// RelationshipType defines the type of connection between two concepts
type RelationshipType string

const (
	RelationRelatedTo  RelationshipType = "related_to"
	RelationDependsOn  RelationshipType = "depends_on"
	RelationSimilarTo  RelationshipType = "similar_to"
	RelationOppositeOf RelationshipType = "opposite_of"
	RelationPartOf     RelationshipType = "part_of"
)

// ParseRelationshipType validates a raw relationship type string. Unknown
// types are rejected so that completion-service output cannot invent edge
// semantics; the caller drops the offending edge, it is never defaulted.
func ParseRelationshipType(raw string) (RelationshipType, error) {
	switch RelationshipType(raw) {
	case RelationRelatedTo, RelationDependsOn, RelationSimilarTo, RelationOppositeOf, RelationPartOf:
		return RelationshipType(raw), nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown relationship type: %q", raw))
	}
}

// Relationship is a typed, weighted, confidence-scored edge between two
// concepts, scoped to an organization. It is stored with a source/target
// orientation but traversed in both directions.
type Relationship struct {
	id             string
	organizationID string
	source         valueobjects.Concept
	target         valueobjects.Concept
	relationType   RelationshipType
	strength       float64
	confidence     float64
	evidenceCount  int
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewRelationship creates a relationship from a first observation.
// Strength and confidence are clamped into [0,1]; a self-edge is invalid.
func NewRelationship(
	organizationID string,
	source, target valueobjects.Concept,
	relationType RelationshipType,
	strength, confidence float64,
) (*Relationship, error) {
	if organizationID == "" {
		return nil, pkgerrors.NewValidationError("organizationID cannot be empty")
	}
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("both concepts are required")
	}
	if source.Equals(target) {
		return nil, pkgerrors.NewValidationError("cannot relate a concept to itself")
	}

	now := time.Now()
	return &Relationship{
		id:             uuid.New().String(),
		organizationID: organizationID,
		source:         source,
		target:         target,
		relationType:   relationType,
		strength:       valueobjects.ClampUnit(strength),
		confidence:     valueobjects.ClampUnit(confidence),
		evidenceCount:  1,
		isActive:       true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRelationship recreates a relationship from stored data
func ReconstructRelationship(
	id string,
	organizationID string,
	source, target valueobjects.Concept,
	relationType RelationshipType,
	strength, confidence float64,
	evidenceCount int,
	isActive bool,
	createdAt, updatedAt time.Time,
) (*Relationship, error) {
	if id == "" || organizationID == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for relationship reconstruction")
	}
	if evidenceCount < 1 {
		evidenceCount = 1
	}

	return &Relationship{
		id:             id,
		organizationID: organizationID,
		source:         source,
		target:         target,
		relationType:   relationType,
		strength:       valueobjects.ClampUnit(strength),
		confidence:     valueobjects.ClampUnit(confidence),
		evidenceCount:  evidenceCount,
		isActive:       isActive,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// ID returns the relationship's unique identifier
func (r *Relationship) ID() string { return r.id }

// OrganizationID returns the owning organization
func (r *Relationship) OrganizationID() string { return r.organizationID }

// Source returns the source concept
func (r *Relationship) Source() valueobjects.Concept { return r.source }

// Target returns the target concept
func (r *Relationship) Target() valueobjects.Concept { return r.target }

// Type returns the relationship type
func (r *Relationship) Type() RelationshipType { return r.relationType }

// Strength returns the denoised strength estimate
func (r *Relationship) Strength() float64 { return r.strength }

// Confidence returns the denoised confidence estimate
func (r *Relationship) Confidence() float64 { return r.confidence }

// EvidenceCount returns how many times this relationship has been observed
func (r *Relationship) EvidenceCount() int { return r.evidenceCount }

// IsActive reports whether the edge participates in traversals
func (r *Relationship) IsActive() bool { return r.isActive }

// CreatedAt returns when the edge was first observed
func (r *Relationship) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the edge was last observed or pruned
func (r *Relationship) UpdatedAt() time.Time { return r.updatedAt }

// NaturalKey identifies the edge for dedup purposes. Two observations of the
// same (organization, source, target, type) always merge into one row.
func (r *Relationship) NaturalKey() string {
	return NaturalEdgeKey(r.organizationID, r.source, r.target, r.relationType)
}

// NaturalEdgeKey builds the dedup key for an edge observation
func NaturalEdgeKey(organizationID string, source, target valueobjects.Concept, relationType RelationshipType) string {
	return organizationID + "|" + source.String() + "|" + target.String() + "|" + string(relationType)
}

// Observe merges a repeat observation into the edge. Strength and confidence
// move by a weighted running average, new = old + (observed-old)/n, so the
// stored weights converge over repeat mentions instead of oscillating, and a
// single noisy observation cannot dominate an edge with many prior ones.
func (r *Relationship) Observe(strength, confidence float64) {
	r.evidenceCount++
	n := float64(r.evidenceCount)
	r.strength = valueobjects.ClampUnit(r.strength + (valueobjects.ClampUnit(strength)-r.strength)/n)
	r.confidence = valueobjects.ClampUnit(r.confidence + (valueobjects.ClampUnit(confidence)-r.confidence)/n)
	r.updatedAt = time.Now()
}

// Deactivate soft-deletes the edge. Pruned edges keep their accumulated
// evidence but stop participating in traversals.
func (r *Relationship) Deactivate() {
	r.isActive = false
	r.updatedAt = time.Now()
}
