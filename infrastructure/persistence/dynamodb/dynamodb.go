// Package dynamodb persists the engine's records in a single DynamoDB table.
//
// Key layout:
//
//	ORG#<org>   / EDGE#<source>#<target>#<type>  graph edges (natural key)
//	ORG#<org>   / INSIGHT#<id>                   insights
//	ORG#<org>   / PATTERN#<id>                   patterns
//	ORG#<org>   / SUGGESTION#<id>                suggestions
//	USER#<user> / PREF#<type>#<key>              preferences (natural key)
//
// Upserts on natural keys are optimistic: read, mutate the entity, write
// conditioned on the evidence count the read observed, retry on a lost race.
package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func orgPK(organizationID string) string {
	return fmt.Sprintf("ORG#%s", organizationID)
}

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

// isConditionalCheckFailed reports whether a write lost an optimistic race
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
