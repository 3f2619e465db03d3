package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// SuggestionStatus represents the lifecycle state of a suggestion
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionDismissed SuggestionStatus = "dismissed"
	SuggestionSnoozed   SuggestionStatus = "snoozed"
)

// SuggestionPriority orders suggestions for presentation
type SuggestionPriority string

const (
	PriorityLow    SuggestionPriority = "low"
	PriorityMedium SuggestionPriority = "medium"
	PriorityHigh   SuggestionPriority = "high"
	PriorityUrgent SuggestionPriority = "urgent"
)

// ParseSuggestionPriority validates a raw priority string from the
// completion service. Unknown priorities are rejected, not defaulted.
func ParseSuggestionPriority(raw string) (SuggestionPriority, error) {
	switch SuggestionPriority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return SuggestionPriority(raw), nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown priority: %q", raw))
	}
}

// Rank returns the priority's sort weight, higher first
func (p SuggestionPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Suggestion is a ranked, stateful recommendation derived from insights,
// patterns, and preferences. Status is the only field with a transition
// table:
//
//	pending --accept--> accepted
//	pending --dismiss--> dismissed
//	pending --snooze--> snoozed(until)
//	snoozed --expiry--> pending
//
// Repeating an action on a terminal suggestion is a no-op so retried client
// calls stay idempotent; every other transition is rejected.
type Suggestion struct {
	id              string
	organizationID  string
	userID          string
	suggestionType  string
	title           string
	description     string
	relevanceScore  float64
	confidence      float64
	priority        SuggestionPriority
	basedOnInsights []string
	basedOnPatterns []string
	contextTags     []string
	status          SuggestionStatus
	snoozedUntil    time.Time
	dismissReason   string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewSuggestion creates a pending suggestion from validated generation output
func NewSuggestion(
	organizationID, userID, suggestionType, title, description string,
	relevanceScore, confidence float64,
	priority SuggestionPriority,
	basedOnInsights, basedOnPatterns, contextTags []string,
) (*Suggestion, error) {
	if organizationID == "" || userID == "" {
		return nil, pkgerrors.NewValidationError("organizationID and userID are required")
	}
	if suggestionType == "" || title == "" {
		return nil, pkgerrors.NewValidationError("suggestion type and title are required")
	}

	now := time.Now()
	return &Suggestion{
		id:              uuid.New().String(),
		organizationID:  organizationID,
		userID:          userID,
		suggestionType:  suggestionType,
		title:           title,
		description:     description,
		relevanceScore:  valueobjects.ClampUnit(relevanceScore),
		confidence:      valueobjects.ClampUnit(confidence),
		priority:        priority,
		basedOnInsights: basedOnInsights,
		basedOnPatterns: basedOnPatterns,
		contextTags:     contextTags,
		status:          SuggestionPending,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructSuggestion recreates a suggestion from stored data
func ReconstructSuggestion(
	id, organizationID, userID, suggestionType, title, description string,
	relevanceScore, confidence float64,
	priority SuggestionPriority,
	basedOnInsights, basedOnPatterns, contextTags []string,
	status SuggestionStatus,
	snoozedUntil time.Time,
	dismissReason string,
	createdAt, updatedAt time.Time,
) (*Suggestion, error) {
	if id == "" || organizationID == "" || userID == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for suggestion reconstruction")
	}
	return &Suggestion{
		id:              id,
		organizationID:  organizationID,
		userID:          userID,
		suggestionType:  suggestionType,
		title:           title,
		description:     description,
		relevanceScore:  valueobjects.ClampUnit(relevanceScore),
		confidence:      valueobjects.ClampUnit(confidence),
		priority:        priority,
		basedOnInsights: basedOnInsights,
		basedOnPatterns: basedOnPatterns,
		contextTags:     contextTags,
		status:          status,
		snoozedUntil:    snoozedUntil,
		dismissReason:   dismissReason,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

// ID returns the suggestion's unique identifier
func (s *Suggestion) ID() string { return s.id }

// OrganizationID returns the owning organization
func (s *Suggestion) OrganizationID() string { return s.organizationID }

// UserID returns the user the suggestion targets
func (s *Suggestion) UserID() string { return s.userID }

// Type returns the suggestion type
func (s *Suggestion) Type() string { return s.suggestionType }

// Title returns the short call to action
func (s *Suggestion) Title() string { return s.title }

// Description returns the long-form description
func (s *Suggestion) Description() string { return s.description }

// RelevanceScore returns the primary ranking score
func (s *Suggestion) RelevanceScore() float64 { return s.relevanceScore }

// Confidence returns the generation confidence
func (s *Suggestion) Confidence() float64 { return s.confidence }

// Priority returns the secondary ranking key
func (s *Suggestion) Priority() SuggestionPriority { return s.priority }

// BasedOnInsights returns contributing insight ids for credit assignment
func (s *Suggestion) BasedOnInsights() []string { return s.basedOnInsights }

// BasedOnPatterns returns contributing pattern ids for credit assignment
func (s *Suggestion) BasedOnPatterns() []string { return s.basedOnPatterns }

// ContextTags returns the interest tags boosted on accept
func (s *Suggestion) ContextTags() []string { return s.contextTags }

// Status returns the current lifecycle state
func (s *Suggestion) Status() SuggestionStatus { return s.status }

// SnoozedUntil returns when a snoozed suggestion re-enters ranking
func (s *Suggestion) SnoozedUntil() time.Time { return s.snoozedUntil }

// DismissReason returns the optional reason supplied on dismissal
func (s *Suggestion) DismissReason() string { return s.dismissReason }

// CreatedAt returns when the suggestion was generated
func (s *Suggestion) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the suggestion last transitioned
func (s *Suggestion) UpdatedAt() time.Time { return s.updatedAt }

// Accept moves the suggestion to its accepted terminal state. The returned
// bool reports whether the transition actually happened; a repeated accept
// returns (false, nil) so the caller runs credit assignment exactly once.
func (s *Suggestion) Accept() (bool, error) {
	if s.status == SuggestionAccepted {
		return false, nil
	}
	if s.status != SuggestionPending {
		return false, invalidTransition(s.status, SuggestionAccepted)
	}
	s.status = SuggestionAccepted
	s.updatedAt = time.Now()
	return true, nil
}

// Dismiss moves the suggestion to its dismissed terminal state. Semantics
// mirror Accept: repeats are no-ops, anything else is rejected.
func (s *Suggestion) Dismiss(reason string) (bool, error) {
	if s.status == SuggestionDismissed {
		return false, nil
	}
	if s.status != SuggestionPending {
		return false, invalidTransition(s.status, SuggestionDismissed)
	}
	s.status = SuggestionDismissed
	s.dismissReason = reason
	s.updatedAt = time.Now()
	return true, nil
}

// Snooze parks a pending suggestion until the given time. Re-snoozing an
// already-snoozed suggestion to a different time moves the window and reports
// a change, so the caller persists the new window; the same time is a no-op.
func (s *Suggestion) Snooze(until time.Time) (bool, error) {
	if s.status == SuggestionSnoozed {
		if until.Equal(s.snoozedUntil) {
			return false, nil
		}
		s.snoozedUntil = until
		s.updatedAt = time.Now()
		return true, nil
	}
	if s.status != SuggestionPending {
		return false, invalidTransition(s.status, SuggestionSnoozed)
	}
	s.status = SuggestionSnoozed
	s.snoozedUntil = until
	s.updatedAt = time.Now()
	return true, nil
}

// WakeIfExpired returns a snoozed suggestion to pending once its snooze
// window has passed. Reports whether the suggestion woke.
func (s *Suggestion) WakeIfExpired(now time.Time) bool {
	if s.status != SuggestionSnoozed || now.Before(s.snoozedUntil) {
		return false
	}
	s.status = SuggestionPending
	s.snoozedUntil = time.Time{}
	s.updatedAt = now
	return true
}

// IsRankable reports whether the suggestion should appear in the pending
// queue at the given time
func (s *Suggestion) IsRankable(now time.Time) bool {
	if s.status == SuggestionPending {
		return true
	}
	return s.status == SuggestionSnoozed && !now.Before(s.snoozedUntil)
}

func invalidTransition(from, to SuggestionStatus) error {
	return pkgerrors.NewConflictError(fmt.Sprintf("illegal suggestion transition %s -> %s", from, to))
}
