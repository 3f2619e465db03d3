package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// SuggestionRepository implements ports.SuggestionRepository using DynamoDB
type SuggestionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSuggestionRepository creates a new SuggestionRepository
func NewSuggestionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SuggestionRepository {
	return &SuggestionRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// suggestionItem represents the DynamoDB item structure for a suggestion
type suggestionItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	SuggestionID    string   `dynamodbav:"SuggestionID"`
	OrgID           string   `dynamodbav:"OrgID"`
	UserID          string   `dynamodbav:"UserID"`
	SuggestionType  string   `dynamodbav:"SuggestionType"`
	Title           string   `dynamodbav:"Title"`
	Description     string   `dynamodbav:"Description"`
	RelevanceScore  float64  `dynamodbav:"RelevanceScore"`
	Confidence      float64  `dynamodbav:"Confidence"`
	Priority        string   `dynamodbav:"Priority"`
	BasedOnInsights []string `dynamodbav:"BasedOnInsights,omitempty"`
	BasedOnPatterns []string `dynamodbav:"BasedOnPatterns,omitempty"`
	ContextTags     []string `dynamodbav:"ContextTags,omitempty"`
	Status          string   `dynamodbav:"Status"`
	SnoozedUntil    string   `dynamodbav:"SnoozedUntil,omitempty"`
	DismissReason   string   `dynamodbav:"DismissReason,omitempty"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
	UpdatedAt       string   `dynamodbav:"UpdatedAt"`
}

func suggestionSK(suggestionID string) string {
	return fmt.Sprintf("SUGGESTION#%s", suggestionID)
}

func suggestionToItem(suggestion *entities.Suggestion) suggestionItem {
	item := suggestionItem{
		PK:              orgPK(suggestion.OrganizationID()),
		SK:              suggestionSK(suggestion.ID()),
		EntityType:      "SUGGESTION",
		SuggestionID:    suggestion.ID(),
		OrgID:           suggestion.OrganizationID(),
		UserID:          suggestion.UserID(),
		SuggestionType:  suggestion.Type(),
		Title:           suggestion.Title(),
		Description:     suggestion.Description(),
		RelevanceScore:  suggestion.RelevanceScore(),
		Confidence:      suggestion.Confidence(),
		Priority:        string(suggestion.Priority()),
		BasedOnInsights: suggestion.BasedOnInsights(),
		BasedOnPatterns: suggestion.BasedOnPatterns(),
		ContextTags:     suggestion.ContextTags(),
		Status:          string(suggestion.Status()),
		DismissReason:   suggestion.DismissReason(),
		CreatedAt:       suggestion.CreatedAt().Format(time.RFC3339),
		UpdatedAt:       suggestion.UpdatedAt().Format(time.RFC3339),
	}
	if !suggestion.SnoozedUntil().IsZero() {
		item.SnoozedUntil = suggestion.SnoozedUntil().Format(time.RFC3339)
	}
	return item
}

func itemToSuggestion(item suggestionItem) (*entities.Suggestion, error) {
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	var snoozedUntil time.Time
	if item.SnoozedUntil != "" {
		snoozedUntil, _ = time.Parse(time.RFC3339, item.SnoozedUntil)
	}

	return entities.ReconstructSuggestion(
		item.SuggestionID, item.OrgID, item.UserID,
		item.SuggestionType, item.Title, item.Description,
		item.RelevanceScore, item.Confidence,
		entities.SuggestionPriority(item.Priority),
		item.BasedOnInsights, item.BasedOnPatterns, item.ContextTags,
		entities.SuggestionStatus(item.Status),
		snoozedUntil,
		item.DismissReason,
		createdAt, updatedAt,
	)
}

// Save persists a suggestion
func (r *SuggestionRepository) Save(ctx context.Context, suggestion *entities.Suggestion) error {
	av, err := attributevalue.MarshalMap(suggestionToItem(suggestion))
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("suggestion save", err)
	}
	return nil
}

// GetByID retrieves a suggestion by its ID
func (r *SuggestionRepository) GetByID(ctx context.Context, organizationID, suggestionID string) (*entities.Suggestion, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: suggestionSK(suggestionID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("suggestion get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("suggestion")
	}

	var item suggestionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}
	return itemToSuggestion(item)
}

// GetRankable retrieves pending suggestions plus snoozed ones whose window
// has expired by now. The expiry comparison happens in code, not in the
// filter, so the Clock stays the single source of truth for "now".
func (r *SuggestionRepository) GetRankable(ctx context.Context, organizationID, userID string, now time.Time) ([]*entities.Suggestion, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("SUGGESTION#"))
	filter := expression.Name("UserID").Equal(expression.Value(userID)).
		And(expression.Or(
			expression.Name("Status").Equal(expression.Value(string(entities.SuggestionPending))),
			expression.Name("Status").Equal(expression.Value(string(entities.SuggestionSnoozed))),
		))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var suggestions []*entities.Suggestion
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("suggestion query", err)
		}
		for _, raw := range page.Items {
			var item suggestionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
			}
			suggestion, err := itemToSuggestion(item)
			if err != nil {
				r.logger.Warn("Skipping corrupt suggestion item", zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			if suggestion.IsRankable(now) {
				suggestions = append(suggestions, suggestion)
			}
		}
	}

	return suggestions, nil
}

// UpdateStatus persists a status transition conditioned on the status the
// transition was computed from. A concurrent transition that got there first
// fails the condition and surfaces as a conflict for the caller to retry.
func (r *SuggestionRepository) UpdateStatus(ctx context.Context, suggestion *entities.Suggestion, expected entities.SuggestionStatus) error {
	update := expression.Set(expression.Name("Status"), expression.Value(string(suggestion.Status()))).
		Set(expression.Name("SnoozedUntil"), expression.Value(formatOptionalTime(suggestion.SnoozedUntil()))).
		Set(expression.Name("DismissReason"), expression.Value(suggestion.DismissReason())).
		Set(expression.Name("UpdatedAt"), expression.Value(suggestion.UpdatedAt().Format(time.RFC3339)))
	condition := expression.Name("Status").Equal(expression.Value(string(expected)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(suggestion.OrganizationID())},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: suggestionSK(suggestion.ID())},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError(fmt.Sprintf("suggestion %s changed status concurrently", suggestion.ID()))
		}
		return pkgerrors.NewDatabaseError("suggestion update", err)
	}
	return nil
}

// CountDismissedByType counts a user's dismissed suggestions of a type
func (r *SuggestionRepository) CountDismissedByType(ctx context.Context, organizationID, userID, suggestionType string) (int, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("SUGGESTION#"))
	filter := expression.Name("UserID").Equal(expression.Value(userID)).
		And(expression.Name("Status").Equal(expression.Value(string(entities.SuggestionDismissed)))).
		And(expression.Name("SuggestionType").Equal(expression.Value(suggestionType)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).WithFilter(filter).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    dynamodbtypes.SelectCount,
	})

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("suggestion count", err)
		}
		count += int(page.Count)
	}

	return count, nil
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
