package commands

import (
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// GenerateSuggestionsCommand synthesizes fresh suggestions for a user from
// their accumulated insights, patterns, and preferences
type GenerateSuggestionsCommand struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	MaxSuggestions int    `json:"max_suggestions,omitempty" validate:"omitempty,min=1,max=50"`
}

// Validate checks the command's invariants
func (c GenerateSuggestionsCommand) Validate() error {
	return utils.ValidateStruct(c)
}
