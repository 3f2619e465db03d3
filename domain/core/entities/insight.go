package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// RecordStatus represents the lifecycle state of an insight or pattern
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusArchived RecordStatus = "archived"
)

// Evidence links a derived record back to the conversations it came from
type Evidence struct {
	ConversationIDs []string `json:"conversation_ids,omitempty"`
}

// Insight is a stored, confidence-scored observation derived from
// conversation evidence. Everything except confidence is immutable after
// creation; confidence moves only through the credit-assignment path.
type Insight struct {
	id             string
	organizationID string
	userID         string // empty = org-wide
	insightType    string
	title          string
	description    string
	confidence     float64
	evidence       Evidence
	status         RecordStatus
	createdAt      time.Time
	updatedAt      time.Time
}

// NewInsight creates an active insight from validated intake output
func NewInsight(organizationID, userID, insightType, title, description string, confidence float64, evidence Evidence) (*Insight, error) {
	if organizationID == "" {
		return nil, pkgerrors.NewValidationError("organizationID cannot be empty")
	}
	if insightType == "" || title == "" {
		return nil, pkgerrors.NewValidationError("insight type and title are required")
	}

	now := time.Now()
	return &Insight{
		id:             uuid.New().String(),
		organizationID: organizationID,
		userID:         userID,
		insightType:    insightType,
		title:          title,
		description:    description,
		confidence:     valueobjects.ClampUnit(confidence),
		evidence:       evidence,
		status:         RecordStatusActive,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructInsight recreates an insight from stored data
func ReconstructInsight(
	id, organizationID, userID, insightType, title, description string,
	confidence float64,
	evidence Evidence,
	status RecordStatus,
	createdAt, updatedAt time.Time,
) (*Insight, error) {
	if id == "" || organizationID == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for insight reconstruction")
	}
	return &Insight{
		id:             id,
		organizationID: organizationID,
		userID:         userID,
		insightType:    insightType,
		title:          title,
		description:    description,
		confidence:     valueobjects.ClampUnit(confidence),
		evidence:       evidence,
		status:         status,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// ID returns the insight's unique identifier
func (i *Insight) ID() string { return i.id }

// OrganizationID returns the owning organization
func (i *Insight) OrganizationID() string { return i.organizationID }

// UserID returns the owning user, empty for org-wide insights
func (i *Insight) UserID() string { return i.userID }

// Type returns the insight category
func (i *Insight) Type() string { return i.insightType }

// Title returns the short summary
func (i *Insight) Title() string { return i.title }

// Description returns the long-form description
func (i *Insight) Description() string { return i.description }

// Confidence returns the current confidence score
func (i *Insight) Confidence() float64 { return i.confidence }

// Evidence returns the source conversation references
func (i *Insight) Evidence() Evidence { return i.evidence }

// Status returns active or archived
func (i *Insight) Status() RecordStatus { return i.status }

// CreatedAt returns when the insight was derived
func (i *Insight) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns when confidence or status last moved
func (i *Insight) UpdatedAt() time.Time { return i.updatedAt }

// Boost raises confidence, capped at the ceiling
func (i *Insight) Boost(delta float64) {
	i.confidence = valueobjects.ClampRange(i.confidence+delta, 0, config.ConfidenceCeiling)
	i.updatedAt = time.Now()
}

// Archive removes the insight from suggestion generation
func (i *Insight) Archive() {
	i.status = RecordStatusArchived
	i.updatedAt = time.Now()
}

// Pattern is a recurring behavior observation. It carries an occurrence count
// that drives its rank during suggestion generation, and unlike insights its
// confidence both rises on accepted suggestions and decays on dismissals.
type Pattern struct {
	id              string
	organizationID  string
	userID          string // empty = org-wide
	patternType     string
	title           string
	description     string
	confidence      float64
	occurrenceCount int
	evidence        Evidence
	status          RecordStatus
	createdAt       time.Time
	updatedAt       time.Time
}

// NewPattern creates an active pattern from validated intake output
func NewPattern(organizationID, userID, patternType, title, description string, confidence float64, evidence Evidence) (*Pattern, error) {
	if organizationID == "" {
		return nil, pkgerrors.NewValidationError("organizationID cannot be empty")
	}
	if patternType == "" || title == "" {
		return nil, pkgerrors.NewValidationError("pattern type and title are required")
	}

	now := time.Now()
	return &Pattern{
		id:              uuid.New().String(),
		organizationID:  organizationID,
		userID:          userID,
		patternType:     patternType,
		title:           title,
		description:     description,
		confidence:      valueobjects.ClampUnit(confidence),
		occurrenceCount: 1,
		evidence:        evidence,
		status:          RecordStatusActive,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructPattern recreates a pattern from stored data
func ReconstructPattern(
	id, organizationID, userID, patternType, title, description string,
	confidence float64,
	occurrenceCount int,
	evidence Evidence,
	status RecordStatus,
	createdAt, updatedAt time.Time,
) (*Pattern, error) {
	if id == "" || organizationID == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for pattern reconstruction")
	}
	if occurrenceCount < 1 {
		occurrenceCount = 1
	}
	return &Pattern{
		id:              id,
		organizationID:  organizationID,
		userID:          userID,
		patternType:     patternType,
		title:           title,
		description:     description,
		confidence:      valueobjects.ClampUnit(confidence),
		occurrenceCount: occurrenceCount,
		evidence:        evidence,
		status:          status,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

// ID returns the pattern's unique identifier
func (p *Pattern) ID() string { return p.id }

// OrganizationID returns the owning organization
func (p *Pattern) OrganizationID() string { return p.organizationID }

// UserID returns the owning user, empty for org-wide patterns
func (p *Pattern) UserID() string { return p.userID }

// Type returns the pattern category
func (p *Pattern) Type() string { return p.patternType }

// Title returns the short summary
func (p *Pattern) Title() string { return p.title }

// Description returns the long-form description
func (p *Pattern) Description() string { return p.description }

// Confidence returns the current confidence score
func (p *Pattern) Confidence() float64 { return p.confidence }

// OccurrenceCount returns how many times the pattern has been observed
func (p *Pattern) OccurrenceCount() int { return p.occurrenceCount }

// Evidence returns the source conversation references
func (p *Pattern) Evidence() Evidence { return p.evidence }

// Status returns active or archived
func (p *Pattern) Status() RecordStatus { return p.status }

// CreatedAt returns when the pattern was derived
func (p *Pattern) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the pattern last moved
func (p *Pattern) UpdatedAt() time.Time { return p.updatedAt }

// RecordOccurrence counts a repeat observation of the pattern
func (p *Pattern) RecordOccurrence() {
	p.occurrenceCount++
	p.updatedAt = time.Now()
}

// Boost raises confidence, capped at the ceiling
func (p *Pattern) Boost(delta float64) {
	p.confidence = valueobjects.ClampRange(p.confidence+delta, 0, config.ConfidenceCeiling)
	p.updatedAt = time.Now()
}

// Decay lowers confidence down to the floor, never below. A pattern that has
// decayed to the floor is still tracked, not erased.
func (p *Pattern) Decay(delta float64) {
	p.confidence = valueobjects.ClampRange(p.confidence-delta, config.ConfidenceFloor, config.ConfidenceCeiling)
	p.updatedAt = time.Now()
}

// Archive removes the pattern from suggestion generation
func (p *Pattern) Archive() {
	p.status = RecordStatusArchived
	p.updatedAt = time.Now()
}
