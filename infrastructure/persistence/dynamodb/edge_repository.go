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
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// EdgeRepository implements ports.EdgeRepository using DynamoDB
type EdgeRepository struct {
	client     *dynamodb.Client
	tableName  string
	maxRetries int
	logger     *zap.Logger
}

// NewEdgeRepository creates a new EdgeRepository
func NewEdgeRepository(client *dynamodb.Client, tableName string, maxRetries int, logger *zap.Logger) ports.EdgeRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &EdgeRepository{
		client:     client,
		tableName:  tableName,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// edgeItem represents the DynamoDB item structure for an edge
type edgeItem struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	EntityType    string  `dynamodbav:"EntityType"`
	EdgeID        string  `dynamodbav:"EdgeID"`
	OrgID         string  `dynamodbav:"OrgID"`
	SourceConcept string  `dynamodbav:"SourceConcept"`
	TargetConcept string  `dynamodbav:"TargetConcept"`
	RelationType  string  `dynamodbav:"RelationType"`
	Strength      float64 `dynamodbav:"Strength"`
	Confidence    float64 `dynamodbav:"Confidence"`
	EvidenceCount int     `dynamodbav:"EvidenceCount"`
	IsActive      bool    `dynamodbav:"IsActive"`
	CreatedAt     string  `dynamodbav:"CreatedAt"`
	UpdatedAt     string  `dynamodbav:"UpdatedAt"`
}

func edgeSK(source, target valueobjects.Concept, relationType entities.RelationshipType) string {
	return fmt.Sprintf("EDGE#%s#%s#%s", source.String(), target.String(), relationType)
}

func edgeToItem(edge *entities.Relationship) edgeItem {
	return edgeItem{
		PK:            orgPK(edge.OrganizationID()),
		SK:            edgeSK(edge.Source(), edge.Target(), edge.Type()),
		EntityType:    "EDGE",
		EdgeID:        edge.ID(),
		OrgID:         edge.OrganizationID(),
		SourceConcept: edge.Source().String(),
		TargetConcept: edge.Target().String(),
		RelationType:  string(edge.Type()),
		Strength:      edge.Strength(),
		Confidence:    edge.Confidence(),
		EvidenceCount: edge.EvidenceCount(),
		IsActive:      edge.IsActive(),
		CreatedAt:     edge.CreatedAt().Format(time.RFC3339),
		UpdatedAt:     edge.UpdatedAt().Format(time.RFC3339),
	}
}

func itemToEdge(item edgeItem) (*entities.Relationship, error) {
	source, err := valueobjects.NewConcept(item.SourceConcept)
	if err != nil {
		return nil, fmt.Errorf("corrupt edge item %s: %w", item.SK, err)
	}
	target, err := valueobjects.NewConcept(item.TargetConcept)
	if err != nil {
		return nil, fmt.Errorf("corrupt edge item %s: %w", item.SK, err)
	}
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructRelationship(
		item.EdgeID, item.OrgID,
		source, target,
		entities.RelationshipType(item.RelationType),
		item.Strength, item.Confidence,
		item.EvidenceCount, item.IsActive,
		createdAt, updatedAt,
	)
}

// Upsert merges an observation into the edge identified by its natural key.
// The read-modify-write is guarded by a conditional put: creation requires
// the item to still be absent, a merge requires the evidence count to still
// be what the read saw. Either condition failing means a concurrent writer
// got there first, so the whole cycle retries against fresh state.
func (r *EdgeRepository) Upsert(ctx context.Context, observation ports.EdgeObservation) (*entities.Relationship, error) {
	sk := edgeSK(observation.Source, observation.Target, observation.Type)

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		existing, err := r.getByNaturalKey(ctx, observation.OrganizationID, sk)
		if err != nil && !pkgerrors.IsNotFound(err) {
			return nil, err
		}

		var edge *entities.Relationship
		var condition expression.ConditionBuilder

		if existing == nil {
			edge, err = entities.NewRelationship(
				observation.OrganizationID,
				observation.Source, observation.Target,
				observation.Type,
				observation.Strength, observation.Confidence,
			)
			if err != nil {
				return nil, err
			}
			condition = expression.AttributeNotExists(expression.Name("PK"))
		} else {
			edge = existing
			priorEvidence := edge.EvidenceCount()
			edge.Observe(observation.Strength, observation.Confidence)
			condition = expression.Name("EvidenceCount").Equal(expression.Value(priorEvidence))
		}

		expr, err := expression.NewBuilder().WithCondition(condition).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build condition: %w", err)
		}

		av, err := attributevalue.MarshalMap(edgeToItem(edge))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal edge: %w", err)
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
				r.logger.Debug("Edge upsert lost a race, retrying",
					zap.String("sk", sk),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, pkgerrors.NewDatabaseError("edge upsert", err)
		}
		return edge, nil
	}

	return nil, pkgerrors.NewConflictError(fmt.Sprintf("edge %s kept losing upsert races", sk))
}

// getByNaturalKey reads one edge with a consistent read
func (r *EdgeRepository) getByNaturalKey(ctx context.Context, organizationID, sk string) (*entities.Relationship, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"PK": &dynamodbtypes.AttributeValueMemberS{Value: orgPK(organizationID)},
			"SK": &dynamodbtypes.AttributeValueMemberS{Value: sk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("edge get", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("edge")
	}

	var item edgeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edge: %w", err)
	}
	return itemToEdge(item)
}

// GetByID retrieves an edge by its ID. The table is keyed by natural key, so
// this walks the organization's edge partition with a filter.
func (r *EdgeRepository) GetByID(ctx context.Context, organizationID, edgeID string) (*entities.Relationship, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("EDGE#"))
	filter := expression.Name("EdgeID").Equal(expression.Value(edgeID))

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

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("edge query", err)
		}
		for _, raw := range page.Items {
			var item edgeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal edge: %w", err)
			}
			return itemToEdge(item)
		}
	}

	return nil, pkgerrors.NewNotFoundError("edge")
}

// GetEdges retrieves an organization's edges, active only unless the filter
// asks otherwise
func (r *EdgeRepository) GetEdges(ctx context.Context, organizationID string, filter ports.EdgeFilter) ([]*entities.Relationship, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(orgPK(organizationID))).
		And(expression.Key("SK").BeginsWith("EDGE#"))

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)

	var conditions []expression.ConditionBuilder
	if !filter.IncludeInactive {
		conditions = append(conditions, expression.Name("IsActive").Equal(expression.Value(true)))
	}
	if filter.RelationType != "" {
		conditions = append(conditions, expression.Name("RelationType").Equal(expression.Value(filter.RelationType)))
	}
	if filter.Concept != "" {
		concept, err := valueobjects.NewConcept(filter.Concept)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, expression.Or(
			expression.Name("SourceConcept").Equal(expression.Value(concept.String())),
			expression.Name("TargetConcept").Equal(expression.Value(concept.String())),
		))
	}
	if len(conditions) > 0 {
		combined := conditions[0]
		for _, c := range conditions[1:] {
			combined = combined.And(c)
		}
		builder = builder.WithFilter(combined)
	}

	expr, err := builder.Build()
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

	var edges []*entities.Relationship
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("edge query", err)
		}
		for _, raw := range page.Items {
			var item edgeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal edge: %w", err)
			}
			edge, err := itemToEdge(item)
			if err != nil {
				r.logger.Warn("Skipping corrupt edge item", zap.String("sk", item.SK), zap.Error(err))
				continue
			}
			edges = append(edges, edge)
			if filter.Limit > 0 && len(edges) >= filter.Limit {
				return edges, nil
			}
		}
	}

	return edges, nil
}

// Deactivate soft-deletes an edge, keeping its accumulated evidence
func (r *EdgeRepository) Deactivate(ctx context.Context, organizationID, edgeID string) error {
	edge, err := r.GetByID(ctx, organizationID, edgeID)
	if err != nil {
		return err
	}

	edge.Deactivate()

	av, err := attributevalue.MarshalMap(edgeToItem(edge))
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("edge deactivate", err)
	}

	r.logger.Info("Edge deactivated",
		zap.String("organization_id", organizationID),
		zap.String("edge_id", edgeID))
	return nil
}
