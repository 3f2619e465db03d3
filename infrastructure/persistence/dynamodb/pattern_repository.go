package dynamodb

import (
	"context"
	"fmt"
	"sort"
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

// PatternRepository implements ports.PatternRepository using DynamoDB
type PatternRepository struct {
	client     *dynamodb.Client
	tableName  string
	maxRetries int
	logger     *zap.Logger
}

// NewPatternRepository creates a new PatternRepository
func NewPatternRepository(client *dynamodb.Client, tableName string, maxRetries int, logger *zap.Logger) ports.PatternRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PatternRepository{
		client:     client,
		tableName:  tableName,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// patternItem represents the DynamoDB item structure for a pattern
type patternItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	PatternID       string   `dynamodbav:"PatternID"`
	OrgID           string   `dynamodbav:"OrgID"`
	UserID          string   `dynamodbav:"UserID"`
	PatternType     string   `dynamodbav:"PatternType"`
	Title           string   `dynamodbav:"Title"`
	Description     string   `dynamodbav:"Description"`
	Confidence      float64  `dynamodbav:"Confidence"`
	OccurrenceCount int      `dynamodbav:"OccurrenceCount"`
	ConversationIDs []string `dynamodbav:"ConversationIDs,omitempty"`
	Status          string   `dynamodbav:"Status"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
	UpdatedAt       string   `dynamodbav:"UpdatedAt"`
}

func patternSK(patternID string) string {
	return fmt.Sprintf("PATTERN#%s", patternID)
}

func patternToItem(pattern *entities.Pattern) patternItem {
	return patternItem{
		PK:              orgPK(pattern.OrganizationID()),
		SK:              patternSK(pattern.ID()),
		EntityType:      "PATTERN",
		PatternID:       pattern.ID(),
		OrgID:           pattern.OrganizationID(),
		UserID:          pattern.UserID(),
		PatternType:     pattern.Type(),
		Title:           pattern.Title(),
		Description:     pattern.Description(),
		Confidence:      pattern.Confidence(),
		OccurrenceCount: pattern.OccurrenceCount(),
		ConversationIDs: pattern.Evidence().ConversationIDs,
		Status:          string(pattern.Status()),
		CreatedAt:       pattern.CreatedAt().Format(time.RFC3339),
		UpdatedAt:       pattern.UpdatedAt().Format(time.RFC3339),
	}
}

func itemToPattern(item patternItem) (*entities.Pattern, error) {
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructPattern(
		item.PatternID, item.OrgID, item.UserID,
		item.PatternType, item.Title, item.Description,
		item.Confidence, item.OccurrenceCount,
		entities.Evidence{ConversationIDs: item.ConversationIDs},
		entities.RecordStatus(item.Status),
		createdAt, updatedAt,
	)
}

// Save persists a new pattern
func (r *PatternRepository) Save(ctx context.Context, pattern *entities.Pattern) error {
	av, err := attributevalue.MarshalMap(patternToItem(pattern))
	if err != nil {
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("pattern save", err)
	}
	return nil
}

// GetByID retrieves a pattern by its ID
func (r *PatternRepository) GetByID(ctx context.Context, organizationID, patternID string) (*entities.Pattern, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: patternSK(patternID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("pattern get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("pattern")
	}

	var item patternItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pattern: %w", err)
	}
	return itemToPattern(item)
}

// GetTopByOccurrence retrieves the most frequently observed active patterns
// visible to a user, ties broken by confidence
func (r *PatternRepository) GetTopByOccurrence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Pattern, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("PATTERN#"))
	filter := expression.Name("Status").Equal(expression.Value(string(entities.RecordStatusActive))).
		And(expression.Or(
			expression.Name("UserID").Equal(expression.Value(userID)),
			expression.Name("UserID").Equal(expression.Value("")),
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

	var patterns []*entities.Pattern
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("pattern query", err)
		}
		for _, raw := range page.Items {
			var item patternItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal pattern: %w", err)
			}
			pattern, err := itemToPattern(item)
			if err != nil {
				r.logger.Warn("Skipping corrupt pattern item", zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			patterns = append(patterns, pattern)
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].OccurrenceCount() != patterns[j].OccurrenceCount() {
			return patterns[i].OccurrenceCount() > patterns[j].OccurrenceCount()
		}
		return patterns[i].Confidence() > patterns[j].Confidence()
	})
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

// AdjustConfidence atomically moves confidence by delta. Positive deltas cap
// at the ceiling, negative ones stop at the floor; the conditional write plus
// retry keeps concurrent adjustments from clobbering each other.
func (r *PatternRepository) AdjustConfidence(ctx context.Context, organizationID, patternID string, delta float64) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		pattern, err := r.GetByID(ctx, organizationID, patternID)
		if err != nil {
			return err
		}

		prior := pattern.Confidence()
		if delta >= 0 {
			pattern.Boost(delta)
		} else {
			pattern.Decay(-delta)
		}

		update := expression.Set(expression.Name("Confidence"), expression.Value(pattern.Confidence())).
			Set(expression.Name("UpdatedAt"), expression.Value(pattern.UpdatedAt().Format(time.RFC3339)))
		condition := expression.Name("Confidence").Equal(expression.Value(prior))

		expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build update: %w", err)
		}

		_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]dynamodbtypes.AttributeValue{
				"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
				"SK": &dynamodbtypes.AttributeValueMemberS{Value: patternSK(patternID)},
			},
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				continue
			}
			return pkgerrors.NewDatabaseError("pattern adjust", err)
		}
		return nil
	}

	return pkgerrors.NewConflictError("pattern adjustment kept losing races")
}
