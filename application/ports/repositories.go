package ports

import (
	"context"
	"time"

	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	"github.com/TPCMinistries/insight-engine/domain/events"
)

// EdgeObservation is one validated sighting of a concept relationship
type EdgeObservation struct {
	OrganizationID string
	Source         valueobjects.Concept
	Target         valueobjects.Concept
	Type           entities.RelationshipType
	Strength       float64
	Confidence     float64
}

// EdgeFilter narrows an edge listing
type EdgeFilter struct {
	Concept      string
	RelationType string
	IncludeInactive bool
	Limit        int
}

// EdgeRepository defines the interface for graph edge persistence.
// This is a port in hexagonal architecture - the domain doesn't know about
// the implementation.
type EdgeRepository interface {
	// Upsert merges an observation into the edge identified by its natural
	// key (organization, source, target, type), creating it on first sight.
	// The read-modify-write must be atomic: two concurrent observations of
	// the same edge must both be reflected in evidence_count and in the
	// running averages.
	Upsert(ctx context.Context, observation EdgeObservation) (*entities.Relationship, error)

	// GetByID retrieves an edge by its ID
	GetByID(ctx context.Context, organizationID, edgeID string) (*entities.Relationship, error)

	// GetEdges retrieves edges for an organization, active only by default
	GetEdges(ctx context.Context, organizationID string, filter EdgeFilter) ([]*entities.Relationship, error)

	// Deactivate soft-deletes an edge; it is never hard-deleted
	Deactivate(ctx context.Context, organizationID, edgeID string) error
}

// PreferenceRepository defines the interface for preference persistence
type PreferenceRepository interface {
	// ApplyDelta upserts a preference on its natural key (user, type, key):
	// boost confidence and overwrite the value if it exists, otherwise
	// create it from the neutral prior. Atomic per natural key.
	ApplyDelta(ctx context.Context, delta PreferenceDelta) (*entities.Preference, error)

	// Get retrieves one preference by natural key
	Get(ctx context.Context, userID, preferenceType, preferenceKey string) (*entities.Preference, error)

	// GetActive retrieves all active preferences for a user
	GetActive(ctx context.Context, userID string) ([]*entities.Preference, error)
}

// PreferenceDelta is one feedback-driven preference update
type PreferenceDelta struct {
	UserID         string
	OrganizationID string
	Type           string
	Key            string
	Value          string
	Boost          float64
	IsExplicit     bool
}

// InsightRepository defines the interface for insight persistence
type InsightRepository interface {
	// Save persists a new insight
	Save(ctx context.Context, insight *entities.Insight) error

	// GetByID retrieves an insight by its ID
	GetByID(ctx context.Context, organizationID, insightID string) (*entities.Insight, error)

	// GetTopByConfidence retrieves the highest-confidence active insights
	// visible to a user (their own plus org-wide)
	GetTopByConfidence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Insight, error)

	// AdjustConfidence atomically moves confidence by delta, clamped into
	// the bounded range. The only legal mutation after creation.
	AdjustConfidence(ctx context.Context, organizationID, insightID string, delta float64) error
}

// PatternRepository defines the interface for pattern persistence
type PatternRepository interface {
	// Save persists a new pattern
	Save(ctx context.Context, pattern *entities.Pattern) error

	// GetByID retrieves a pattern by its ID
	GetByID(ctx context.Context, organizationID, patternID string) (*entities.Pattern, error)

	// GetTopByOccurrence retrieves the most frequently observed active
	// patterns visible to a user
	GetTopByOccurrence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Pattern, error)

	// AdjustConfidence atomically moves confidence by delta, clamped into
	// the bounded range
	AdjustConfidence(ctx context.Context, organizationID, patternID string, delta float64) error
}

// SuggestionRepository defines the interface for suggestion persistence
type SuggestionRepository interface {
	// Save persists a suggestion (create or full update)
	Save(ctx context.Context, suggestion *entities.Suggestion) error

	// GetByID retrieves a suggestion by its ID
	GetByID(ctx context.Context, organizationID, suggestionID string) (*entities.Suggestion, error)

	// GetRankable retrieves pending suggestions plus snoozed ones whose
	// snooze window has expired by now
	GetRankable(ctx context.Context, organizationID, userID string, now time.Time) ([]*entities.Suggestion, error)

	// UpdateStatus persists a status transition conditioned on the status
	// the transition was computed from; a lost race returns a conflict
	UpdateStatus(ctx context.Context, suggestion *entities.Suggestion, expected entities.SuggestionStatus) error

	// CountDismissedByType counts a user's dismissed suggestions of a type,
	// used for the dislike threshold
	CountDismissedByType(ctx context.Context, organizationID, userID, suggestionType string) (int, error)
}

// EventPublisher publishes domain events to the surrounding product.
// Publishing is best effort and must never fail the operation that raised
// the event.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache provides lookups for transient derived data such as graph snapshots
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
