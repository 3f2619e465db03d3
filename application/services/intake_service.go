package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
	"github.com/TPCMinistries/insight-engine/domain/events"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
	"github.com/TPCMinistries/insight-engine/pkg/utils"
)

// IngestResult summarizes what one conversation contributed to the engine.
// A conversation whose extraction failed outright produces the zero result;
// intake never fails the caller because of the completion service.
type IngestResult struct {
	ConversationID string `json:"conversation_id"`
	EdgesUpserted  int    `json:"edges_upserted"`
	InsightsSaved  int    `json:"insights_saved"`
	PatternsSaved  int    `json:"patterns_saved"`
	Dropped        int    `json:"dropped"`
}

// IntakeService turns raw conversation transcripts into graph edges,
// insights, and patterns. Extraction runs both completion calls
// concurrently; everything that comes back is treated as untrusted and
// validated element by element, with invalid elements dropped rather than
// failing the batch.
type IntakeService struct {
	completion ports.CompletionService
	edges      ports.EdgeRepository
	insights   ports.InsightRepository
	patterns   ports.PatternRepository
	publisher  ports.EventPublisher
	cache      ports.Cache
	metrics    *observability.Metrics
	config     *config.DomainConfig
	clock      utils.Clock
	logger     *zap.Logger
}

// NewIntakeService creates an intake service
func NewIntakeService(
	completion ports.CompletionService,
	edges ports.EdgeRepository,
	insights ports.InsightRepository,
	patterns ports.PatternRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	metrics *observability.Metrics,
	cfg *config.DomainConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		completion: completion,
		edges:      edges,
		insights:   insights,
		patterns:   patterns,
		publisher:  publisher,
		cache:      cache,
		metrics:    metrics,
		config:     cfg,
		clock:      clock,
		logger:     logger,
	}
}

// ProcessConversation ingests one transcript. The two extraction calls run
// concurrently and are independently fallible: a failed call contributes
// nothing, it does not abort the other. A conversation where both calls fail
// returns an empty result and a nil error.
func (s *IntakeService) ProcessConversation(ctx context.Context, organizationID, userID, conversationID, transcript string) (*IngestResult, error) {
	extractCtx, cancel := context.WithTimeout(ctx, s.config.CompletionTimeout)
	defer cancel()

	var (
		wg             sync.WaitGroup
		relationships  []ports.RelationshipCandidate
		relationsErr   error
		insightRecords []ports.InsightCandidate
		insightsErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		relationships, relationsErr = s.completion.ExtractRelationships(extractCtx, transcript)
	}()
	go func() {
		defer wg.Done()
		insightRecords, insightsErr = s.completion.ExtractInsights(extractCtx, transcript)
	}()
	wg.Wait()

	if relationsErr != nil {
		s.logger.Warn("Relationship extraction failed, continuing without edges",
			zap.String("conversation_id", conversationID),
			zap.Error(relationsErr))
		s.metrics.IncrementCounter(ctx, "ExtractionFailures", 1, map[string]string{"Call": "relationships"})
		relationships = nil
	}
	if insightsErr != nil {
		s.logger.Warn("Insight extraction failed, continuing without insights",
			zap.String("conversation_id", conversationID),
			zap.Error(insightsErr))
		s.metrics.IncrementCounter(ctx, "ExtractionFailures", 1, map[string]string{"Call": "insights"})
		insightRecords = nil
	}

	result := &IngestResult{ConversationID: conversationID}
	result.EdgesUpserted, result.Dropped = s.upsertEdges(ctx, organizationID, relationships)

	saved, dropped := s.saveRecords(ctx, organizationID, userID, conversationID, insightRecords)
	result.InsightsSaved = saved.insights
	result.PatternsSaved = saved.patterns
	result.Dropped += dropped

	if result.EdgesUpserted > 0 {
		// Stored edges changed; cached traversal snapshots are stale
		_ = s.cache.Delete(ctx, graphSnapshotKey(organizationID))
	}

	s.metrics.IncrementCounter(ctx, "ConversationsIngested", 1, nil)

	event := events.NewEvidenceIngested(
		organizationID, userID, conversationID,
		result.EdgesUpserted, result.InsightsSaved, result.PatternsSaved,
		s.clock.Now(),
	)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish ingestion event",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}

	s.logger.Info("Conversation ingested",
		zap.String("organization_id", organizationID),
		zap.String("conversation_id", conversationID),
		zap.Int("edges", result.EdgesUpserted),
		zap.Int("insights", result.InsightsSaved),
		zap.Int("patterns", result.PatternsSaved),
		zap.Int("dropped", result.Dropped))

	return result, nil
}

// upsertEdges validates and merges extracted relationships one at a time.
// Returns the number upserted and the number dropped as invalid.
func (s *IntakeService) upsertEdges(ctx context.Context, organizationID string, candidates []ports.RelationshipCandidate) (upserted, dropped int) {
	for _, candidate := range candidates {
		observation, err := s.toObservation(organizationID, candidate)
		if err != nil {
			s.logger.Debug("Dropping invalid relationship candidate",
				zap.String("source", candidate.SourceConcept),
				zap.String("target", candidate.TargetConcept),
				zap.Error(err))
			dropped++
			continue
		}

		if _, err := s.edges.Upsert(ctx, observation); err != nil {
			s.logger.Error("Edge upsert failed",
				zap.String("source", observation.Source.String()),
				zap.String("target", observation.Target.String()),
				zap.Error(err))
			dropped++
			continue
		}
		upserted++
	}
	return upserted, dropped
}

// toObservation validates one untrusted relationship candidate
func (s *IntakeService) toObservation(organizationID string, candidate ports.RelationshipCandidate) (ports.EdgeObservation, error) {
	relationType, err := entities.ParseRelationshipType(candidate.RelationshipType)
	if err != nil {
		return ports.EdgeObservation{}, err
	}

	source, err := valueobjects.NewConcept(candidate.SourceConcept)
	if err != nil {
		return ports.EdgeObservation{}, err
	}
	target, err := valueobjects.NewConcept(candidate.TargetConcept)
	if err != nil {
		return ports.EdgeObservation{}, err
	}

	// Concept labels key DynamoDB items; runaway extractions get dropped
	// instead of stored
	for _, concept := range []valueobjects.Concept{source, target} {
		if len(concept.String()) > s.config.MaxConceptLength {
			return ports.EdgeObservation{}, pkgerrors.NewValidationError(
				fmt.Sprintf("concept exceeds %d characters", s.config.MaxConceptLength))
		}
	}

	// Run the constructor so self-edges and other structural problems are
	// rejected here, before the repository round trip
	if _, err := entities.NewRelationship(organizationID, source, target, relationType, candidate.Strength, candidate.Confidence); err != nil {
		return ports.EdgeObservation{}, err
	}

	return ports.EdgeObservation{
		OrganizationID: organizationID,
		Source:         source,
		Target:         target,
		Type:           relationType,
		Strength:       valueobjects.ClampUnit(candidate.Strength),
		Confidence:     valueobjects.ClampUnit(candidate.Confidence),
	}, nil
}

type recordCounts struct {
	insights int
	patterns int
}

// saveRecords validates and persists extracted insights and patterns
func (s *IntakeService) saveRecords(ctx context.Context, organizationID, userID, conversationID string, candidates []ports.InsightCandidate) (recordCounts, int) {
	var counts recordCounts
	dropped := 0
	evidence := entities.Evidence{ConversationIDs: []string{conversationID}}

	for _, candidate := range candidates {
		switch candidate.Kind {
		case "insight":
			insight, err := entities.NewInsight(organizationID, userID, candidate.Type, candidate.Title, candidate.Description, candidate.Confidence, evidence)
			if err != nil {
				dropped++
				continue
			}
			if err := s.insights.Save(ctx, insight); err != nil {
				s.logger.Error("Insight save failed", zap.String("title", candidate.Title), zap.Error(err))
				dropped++
				continue
			}
			counts.insights++

		case "pattern":
			pattern, err := entities.NewPattern(organizationID, userID, candidate.Type, candidate.Title, candidate.Description, candidate.Confidence, evidence)
			if err != nil {
				dropped++
				continue
			}
			if err := s.patterns.Save(ctx, pattern); err != nil {
				s.logger.Error("Pattern save failed", zap.String("title", candidate.Title), zap.Error(err))
				dropped++
				continue
			}
			counts.patterns++

		default:
			s.logger.Debug("Dropping candidate with unknown kind", zap.String("kind", candidate.Kind))
			dropped++
		}
	}

	return counts, dropped
}
