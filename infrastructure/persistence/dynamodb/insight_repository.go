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

// InsightRepository implements ports.InsightRepository using DynamoDB
type InsightRepository struct {
	client     *dynamodb.Client
	tableName  string
	maxRetries int
	logger     *zap.Logger
}

// NewInsightRepository creates a new InsightRepository
func NewInsightRepository(client *dynamodb.Client, tableName string, maxRetries int, logger *zap.Logger) ports.InsightRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &InsightRepository{
		client:     client,
		tableName:  tableName,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// insightItem represents the DynamoDB item structure for an insight
type insightItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	EntityType      string   `dynamodbav:"EntityType"`
	InsightID       string   `dynamodbav:"InsightID"`
	OrgID           string   `dynamodbav:"OrgID"`
	UserID          string   `dynamodbav:"UserID"`
	InsightType     string   `dynamodbav:"InsightType"`
	Title           string   `dynamodbav:"Title"`
	Description     string   `dynamodbav:"Description"`
	Confidence      float64  `dynamodbav:"Confidence"`
	ConversationIDs []string `dynamodbav:"ConversationIDs,omitempty"`
	Status          string   `dynamodbav:"Status"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
	UpdatedAt       string   `dynamodbav:"UpdatedAt"`
}

func insightSK(insightID string) string {
	return fmt.Sprintf("INSIGHT#%s", insightID)
}

func insightToItem(insight *entities.Insight) insightItem {
	return insightItem{
		PK:              orgPK(insight.OrganizationID()),
		SK:              insightSK(insight.ID()),
		EntityType:      "INSIGHT",
		InsightID:       insight.ID(),
		OrgID:           insight.OrganizationID(),
		UserID:          insight.UserID(),
		InsightType:     insight.Type(),
		Title:           insight.Title(),
		Description:     insight.Description(),
		Confidence:      insight.Confidence(),
		ConversationIDs: insight.Evidence().ConversationIDs,
		Status:          string(insight.Status()),
		CreatedAt:       insight.CreatedAt().Format(time.RFC3339),
		UpdatedAt:       insight.UpdatedAt().Format(time.RFC3339),
	}
}

func itemToInsight(item insightItem) (*entities.Insight, error) {
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructInsight(
		item.InsightID, item.OrgID, item.UserID,
		item.InsightType, item.Title, item.Description,
		item.Confidence,
		entities.Evidence{ConversationIDs: item.ConversationIDs},
		entities.RecordStatus(item.Status),
		createdAt, updatedAt,
	)
}

// Save persists a new insight
func (r *InsightRepository) Save(ctx context.Context, insight *entities.Insight) error {
	av, err := attributevalue.MarshalMap(insightToItem(insight))
	if err != nil {
		return fmt.Errorf("failed to marshal insight: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("insight save", err)
	}
	return nil
}

// GetByID retrieves an insight by its ID
func (r *InsightRepository) GetByID(ctx context.Context, organizationID, insightID string) (*entities.Insight, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: insightSK(insightID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("insight get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("insight")
	}

	var item insightItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insight: %w", err)
	}
	return itemToInsight(item)
}

// GetTopByConfidence retrieves the highest-confidence active insights
// visible to a user: their own plus org-wide ones. Per-organization volumes
// stay small, so ranking happens in memory after the partition walk.
func (r *InsightRepository) GetTopByConfidence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Insight, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("INSIGHT#"))
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

	var insights []*entities.Insight
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("insight query", err)
		}
		for _, raw := range page.Items {
			var item insightItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal insight: %w", err)
			}
			insight, err := itemToInsight(item)
			if err != nil {
				r.logger.Warn("Skipping corrupt insight item", zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			insights = append(insights, insight)
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Confidence() > insights[j].Confidence()
	})
	if limit > 0 && len(insights) > limit {
		insights = insights[:limit]
	}
	return insights, nil
}

// AdjustConfidence atomically moves confidence by delta. The write is
// conditioned on the confidence the read observed and retried on a lost
// race, so concurrent adjustments compose instead of overwriting each other.
func (r *InsightRepository) AdjustConfidence(ctx context.Context, organizationID, insightID string, delta float64) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		insight, err := r.GetByID(ctx, organizationID, insightID)
		if err != nil {
			return err
		}

		prior := insight.Confidence()
		insight.Boost(delta)

		update := expression.Set(expression.Name("Confidence"), expression.Value(insight.Confidence())).
			Set(expression.Name("UpdatedAt"), expression.Value(insight.UpdatedAt().Format(time.RFC3339)))
		condition := expression.Name("Confidence").Equal(expression.Value(prior))

		expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build update: %w", err)
		}

		_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]dynamodbtypes.AttributeValue{
				"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
				"SK": &dynamodbtypes.AttributeValueMemberS{Value: insightSK(insightID)},
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
			return pkgerrors.NewDatabaseError("insight adjust", err)
		}
		return nil
	}

	return pkgerrors.NewConflictError("insight adjustment kept losing races")
}
