package commands

import (
	"time"

	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// Feedback actions accepted from clients
const (
	FeedbackAccept  = "accept"
	FeedbackDismiss = "dismiss"
	FeedbackSnooze  = "snooze"
)

// RecordFeedbackCommand applies a user's verdict on a suggestion and runs
// credit assignment back through the records that produced it
type RecordFeedbackCommand struct {
	OrganizationID string    `json:"organization_id" validate:"required"`
	UserID         string    `json:"user_id" validate:"required"`
	SuggestionID   string    `json:"suggestion_id" validate:"required"`
	Action         string    `json:"action" validate:"required,oneof=accept dismiss snooze"`
	Reason         string    `json:"reason,omitempty" validate:"max=500"`
	SnoozeUntil    time.Time `json:"snooze_until,omitempty"`
}

// Validate checks the command's invariants
func (c RecordFeedbackCommand) Validate() error {
	return utils.ValidateStruct(c)
}
