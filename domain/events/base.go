package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Intake events

// EvidenceIngested is raised after a conversation has been processed
type EvidenceIngested struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	EdgesUpserted  int    `json:"edges_upserted"`
	InsightsSaved  int    `json:"insights_saved"`
	PatternsSaved  int    `json:"patterns_saved"`
}

// NewEvidenceIngested creates an EvidenceIngested event
func NewEvidenceIngested(organizationID, userID, conversationID string, edges, insights, patterns int, timestamp time.Time) EvidenceIngested {
	return EvidenceIngested{
		BaseEvent: BaseEvent{
			AggregateID: conversationID,
			EventType:   "evidence.ingested",
			Timestamp:   timestamp,
			Version:     1,
		},
		OrganizationID: organizationID,
		UserID:         userID,
		ConversationID: conversationID,
		EdgesUpserted:  edges,
		InsightsSaved:  insights,
		PatternsSaved:  patterns,
	}
}

// Suggestion events

// SuggestionCreated is raised when a generated suggestion is persisted
type SuggestionCreated struct {
	BaseEvent
	SuggestionID   string `json:"suggestion_id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	SuggestionType string `json:"suggestion_type"`
	Priority       string `json:"priority"`
}

// NewSuggestionCreated creates a SuggestionCreated event
func NewSuggestionCreated(suggestionID, organizationID, userID, suggestionType, priority string, timestamp time.Time) SuggestionCreated {
	return SuggestionCreated{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID,
			EventType:   "suggestion.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID:   suggestionID,
		OrganizationID: organizationID,
		UserID:         userID,
		SuggestionType: suggestionType,
		Priority:       priority,
	}
}

// SuggestionStatusChanged is raised when a suggestion transitions state
type SuggestionStatusChanged struct {
	BaseEvent
	SuggestionID   string `json:"suggestion_id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
	Reason         string `json:"reason,omitempty"`
}

// NewSuggestionStatusChanged creates a SuggestionStatusChanged event
func NewSuggestionStatusChanged(suggestionID, organizationID, userID, oldStatus, newStatus, reason string, timestamp time.Time) SuggestionStatusChanged {
	return SuggestionStatusChanged{
		BaseEvent: BaseEvent{
			AggregateID: suggestionID,
			EventType:   "suggestion.status_changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SuggestionID:   suggestionID,
		OrganizationID: organizationID,
		UserID:         userID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		Reason:         reason,
	}
}
