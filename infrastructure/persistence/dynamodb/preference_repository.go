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

// PreferenceRepository implements ports.PreferenceRepository using DynamoDB
type PreferenceRepository struct {
	client     *dynamodb.Client
	tableName  string
	maxRetries int
	logger     *zap.Logger
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(client *dynamodb.Client, tableName string, maxRetries int, logger *zap.Logger) ports.PreferenceRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PreferenceRepository{
		client:     client,
		tableName:  tableName,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// preferenceItem represents the DynamoDB item structure for a preference
type preferenceItem struct {
	PK             string  `dynamodbav:"PK"`
	SK             string  `dynamodbav:"SK"`
	EntityType     string  `dynamodbav:"EntityType"`
	UserID         string  `dynamodbav:"UserID"`
	OrgID          string  `dynamodbav:"OrgID"`
	PreferenceType string  `dynamodbav:"PreferenceType"`
	PreferenceKey  string  `dynamodbav:"PreferenceKey"`
	Value          string  `dynamodbav:"Value"`
	Confidence     float64 `dynamodbav:"Confidence"`
	EvidenceCount  int     `dynamodbav:"EvidenceCount"`
	IsExplicit     bool    `dynamodbav:"IsExplicit"`
	IsActive       bool    `dynamodbav:"IsActive"`
	CreatedAt      string  `dynamodbav:"CreatedAt"`
	UpdatedAt      string  `dynamodbav:"UpdatedAt"`
}

func preferenceSK(preferenceType, preferenceKey string) string {
	return fmt.Sprintf("PREF#%s#%s", preferenceType, preferenceKey)
}

func preferenceToItem(preference *entities.Preference) preferenceItem {
	return preferenceItem{
		PK:             userPK(preference.UserID()),
		SK:             preferenceSK(preference.Type(), preference.Key()),
		EntityType:     "PREFERENCE",
		UserID:         preference.UserID(),
		OrgID:          preference.OrganizationID(),
		PreferenceType: preference.Type(),
		PreferenceKey:  preference.Key(),
		Value:          preference.Value(),
		Confidence:     preference.Confidence(),
		EvidenceCount:  preference.EvidenceCount(),
		IsExplicit:     preference.IsExplicit(),
		IsActive:       preference.IsActive(),
		CreatedAt:      preference.CreatedAt().Format(time.RFC3339),
		UpdatedAt:      preference.UpdatedAt().Format(time.RFC3339),
	}
}

func itemToPreference(item preferenceItem) (*entities.Preference, error) {
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructPreference(
		item.UserID, item.OrgID,
		item.PreferenceType, item.PreferenceKey, item.Value,
		item.Confidence, item.EvidenceCount,
		item.IsExplicit, item.IsActive,
		createdAt, updatedAt,
	)
}

// ApplyDelta upserts a preference on its natural key with the same
// optimistic read-mutate-write cycle edges use
func (r *PreferenceRepository) ApplyDelta(ctx context.Context, delta ports.PreferenceDelta) (*entities.Preference, error) {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		existing, err := r.Get(ctx, delta.UserID, delta.Type, delta.Key)
		if err != nil && !pkgerrors.IsNotFound(err) {
			return nil, err
		}

		var preference *entities.Preference
		var condition expression.ConditionBuilder

		if existing == nil {
			preference, err = entities.NewPreference(delta.UserID, delta.OrganizationID, delta.Type, delta.Key, delta.Value, delta.Boost, delta.IsExplicit)
			if err != nil {
				return nil, err
			}
			condition = expression.AttributeNotExists(expression.Name("PK"))
		} else {
			preference = existing
			priorEvidence := preference.EvidenceCount()
			preference.ApplyBoost(delta.Value, delta.Boost)
			if delta.IsExplicit {
				preference.MarkExplicit()
			}
			condition = expression.Name("EvidenceCount").Equal(expression.Value(priorEvidence))
		}

		expr, err := expression.NewBuilder().WithCondition(condition).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build condition: %w", err)
		}

		av, err := attributevalue.MarshalMap(preferenceToItem(preference))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal preference: %w", err)
		}

		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(r.tableName),
			Item:                      av,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				r.logger.Debug("Preference upsert lost a race, retrying",
					zap.String("key", entities.NaturalPreferenceKey(delta.UserID, delta.Type, delta.Key)),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, pkgerrors.NewDatabaseError("preference upsert", err)
		}
		return preference, nil
	}

	return nil, pkgerrors.NewConflictError("preference kept losing upsert races")
}

// Get retrieves one preference by natural key
func (r *PreferenceRepository) Get(ctx context.Context, userID, preferenceType, preferenceKey string) (*entities.Preference, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: preferenceSK(preferenceType, preferenceKey)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("preference get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("preference")
	}

	var item preferenceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preference: %w", err)
	}
	return itemToPreference(item)
}

// GetActive retrieves all active preferences for a user
func (r *PreferenceRepository) GetActive(ctx context.Context, userID string) ([]*entities.Preference, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("PREF#"))
	filter := expression.Name("IsActive").Equal(expression.Value(true))

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

	var preferences []*entities.Preference
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("preference query", err)
		}
		for _, raw := range page.Items {
			var item preferenceItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal preference: %w", err)
			}
			preference, err := itemToPreference(item)
			if err != nil {
				r.logger.Warn("Skipping corrupt preference item", zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			preferences = append(preferences, preference)
		}
	}

	return preferences, nil
}
