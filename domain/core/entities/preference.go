package entities

import (
	"time"

	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// Preference types understood by the engine. Likes and dislikes are tracked
// as distinct keys, never folded into one signed scalar, so mixed feedback
// does not cancel to a falsely neutral state.
const (
	PreferenceTypeInterest      = "interest"
	PreferenceTypeDislike       = "dislike"
	PreferenceTypeCommunication = "communication"
	PreferenceTypeWorkStyle     = "work_style"
)

// Preference is a per-user confidence-scored belief about what the user
// likes, dislikes, or does. Its value describes what is currently true, so a
// repeat observation overwrites it outright; confidence is the accumulated
// part, bounded so it never reaches zero and never exceeds 1.0.
type Preference struct {
	userID         string
	organizationID string
	preferenceType string
	preferenceKey  string
	value          string
	confidence     float64
	evidenceCount  int
	isExplicit     bool
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewPreference creates a preference from its first piece of evidence. The
// starting confidence is a neutral prior plus the boost: one observation is
// weak evidence, not zero evidence.
func NewPreference(userID, organizationID, preferenceType, preferenceKey, value string, boost float64, isExplicit bool) (*Preference, error) {
	if userID == "" || organizationID == "" {
		return nil, pkgerrors.NewValidationError("userID and organizationID are required")
	}
	if preferenceType == "" || preferenceKey == "" {
		return nil, pkgerrors.NewValidationError("preference type and key are required")
	}

	now := time.Now()
	return &Preference{
		userID:         userID,
		organizationID: organizationID,
		preferenceType: preferenceType,
		preferenceKey:  preferenceKey,
		value:          value,
		confidence:     valueobjects.ClampRange(config.NeutralPrior+boost, config.ConfidenceFloor, config.ConfidenceCeiling),
		evidenceCount:  1,
		isExplicit:     isExplicit,
		isActive:       true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructPreference recreates a preference from stored data
func ReconstructPreference(
	userID, organizationID, preferenceType, preferenceKey, value string,
	confidence float64,
	evidenceCount int,
	isExplicit, isActive bool,
	createdAt, updatedAt time.Time,
) (*Preference, error) {
	if userID == "" || organizationID == "" || preferenceType == "" || preferenceKey == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for preference reconstruction")
	}
	if evidenceCount < 1 {
		evidenceCount = 1
	}
	return &Preference{
		userID:         userID,
		organizationID: organizationID,
		preferenceType: preferenceType,
		preferenceKey:  preferenceKey,
		value:          value,
		confidence:     valueobjects.ClampRange(confidence, config.ConfidenceFloor, config.ConfidenceCeiling),
		evidenceCount:  evidenceCount,
		isExplicit:     isExplicit,
		isActive:       isActive,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// UserID returns the owning user
func (p *Preference) UserID() string { return p.userID }

// OrganizationID returns the owning organization
func (p *Preference) OrganizationID() string { return p.organizationID }

// Type returns the preference type
func (p *Preference) Type() string { return p.preferenceType }

// Key returns the preference key
func (p *Preference) Key() string { return p.preferenceKey }

// Value returns the latest observed value
func (p *Preference) Value() string { return p.value }

// Confidence returns the bounded confidence score
func (p *Preference) Confidence() float64 { return p.confidence }

// EvidenceCount returns how many observations back this preference
func (p *Preference) EvidenceCount() int { return p.evidenceCount }

// IsExplicit reports whether the user stated this preference directly
func (p *Preference) IsExplicit() bool { return p.isExplicit }

// IsActive reports whether the preference participates in generation
func (p *Preference) IsActive() bool { return p.isActive }

// CreatedAt returns when the preference was first observed
func (p *Preference) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the preference last moved
func (p *Preference) UpdatedAt() time.Time { return p.updatedAt }

// NaturalKey identifies the preference for upsert purposes
func (p *Preference) NaturalKey() string {
	return NaturalPreferenceKey(p.userID, p.preferenceType, p.preferenceKey)
}

// NaturalPreferenceKey builds the upsert key for a preference observation
func NaturalPreferenceKey(userID, preferenceType, preferenceKey string) string {
	return userID + "|" + preferenceType + "|" + preferenceKey
}

// ApplyBoost merges a repeat observation: confidence rises by the boost up to
// the ceiling, the value is overwritten with what is currently true, and the
// evidence count grows. A negative boost decays down to the floor.
func (p *Preference) ApplyBoost(value string, boost float64) {
	p.confidence = valueobjects.ClampRange(p.confidence+boost, config.ConfidenceFloor, config.ConfidenceCeiling)
	if value != "" {
		p.value = value
	}
	p.evidenceCount++
	p.updatedAt = time.Now()
}

// MarkExplicit upgrades the preference to a user-stated one
func (p *Preference) MarkExplicit() {
	p.isExplicit = true
	p.updatedAt = time.Now()
}

// Deactivate removes the preference from generation without deleting it
func (p *Preference) Deactivate() {
	p.isActive = false
	p.updatedAt = time.Now()
}
