package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/pkg/observability"
)

type intakeFixture struct {
	service    *IntakeService
	completion *fakeCompletion
	edges      *fakeEdgeRepo
	insights   *fakeInsightRepo
	patterns   *fakePatternRepo
	publisher  *fakePublisher
	cache      *fakeCache
}

func newIntakeFixture(completion *fakeCompletion) *intakeFixture {
	f := &intakeFixture{
		completion: completion,
		edges:      newFakeEdgeRepo(),
		insights:   newFakeInsightRepo(),
		patterns:   newFakePatternRepo(),
		publisher:  &fakePublisher{},
		cache:      newFakeCache(),
	}
	f.service = NewIntakeService(
		completion, f.edges, f.insights, f.patterns, f.publisher, f.cache,
		observability.NewMetrics("test", nil),
		config.DefaultDomainConfig(),
		fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
	return f
}

func TestProcessConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("extracted edges, insights, and patterns are persisted", func(t *testing.T) {
		f := newIntakeFixture(&fakeCompletion{
			relationships: []ports.RelationshipCandidate{
				{SourceConcept: "Go", TargetConcept: "Concurrency", RelationshipType: "related_to", Strength: 0.7, Confidence: 0.8},
			},
			insights: []ports.InsightCandidate{
				{Kind: "insight", Type: "team_dynamics", Title: "Team prefers async updates", Confidence: 0.7},
				{Kind: "pattern", Type: "scheduling", Title: "Meetings slip on Fridays", Confidence: 0.6},
			},
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Equal(t, "conv-1", result.ConversationID)
		assert.Equal(t, 1, result.EdgesUpserted)
		assert.Equal(t, 1, result.InsightsSaved)
		assert.Equal(t, 1, result.PatternsSaved)
		assert.Zero(t, result.Dropped)

		assert.Len(t, f.edges.byNaturalKey, 1)
		assert.Len(t, f.insights.byID, 1)
		assert.Len(t, f.patterns.byID, 1)
		assert.Contains(t, f.publisher.eventTypes(), "evidence.ingested")
		assert.Contains(t, f.cache.deleted, graphSnapshotKey("org-1"), "new edges invalidate the snapshot")
	})

	t.Run("repeat observations merge into one edge", func(t *testing.T) {
		candidate := ports.RelationshipCandidate{
			SourceConcept: "go", TargetConcept: "concurrency",
			RelationshipType: "related_to", Strength: 0.4, Confidence: 0.4,
		}
		f := newIntakeFixture(&fakeCompletion{
			relationships: []ports.RelationshipCandidate{candidate, candidate},
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Equal(t, 2, result.EdgesUpserted)
		require.Len(t, f.edges.byNaturalKey, 1)
		for _, edge := range f.edges.byNaturalKey {
			assert.Equal(t, 2, edge.EvidenceCount())
		}
	})

	t.Run("invalid candidates are dropped one by one", func(t *testing.T) {
		f := newIntakeFixture(&fakeCompletion{
			relationships: []ports.RelationshipCandidate{
				{SourceConcept: "go", TargetConcept: "concurrency", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
				{SourceConcept: "go", TargetConcept: "GO", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
				{SourceConcept: "a", TargetConcept: "b", RelationshipType: "causes", Strength: 0.5, Confidence: 0.5},
				{SourceConcept: "", TargetConcept: "b", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
			},
			insights: []ports.InsightCandidate{
				{Kind: "insight", Type: "t", Title: "valid", Confidence: 0.5},
				{Kind: "insight", Type: "t", Title: "", Confidence: 0.5},
				{Kind: "hunch", Type: "t", Title: "unknown kind", Confidence: 0.5},
			},
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Equal(t, 1, result.EdgesUpserted)
		assert.Equal(t, 1, result.InsightsSaved)
		assert.Equal(t, 5, result.Dropped)
	})

	t.Run("over-long concepts are dropped, not stored", func(t *testing.T) {
		oversized := strings.Repeat("x", config.DefaultDomainConfig().MaxConceptLength+1)
		f := newIntakeFixture(&fakeCompletion{
			relationships: []ports.RelationshipCandidate{
				{SourceConcept: oversized, TargetConcept: "concurrency", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
				{SourceConcept: "go", TargetConcept: "concurrency", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
			},
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Equal(t, 1, result.EdgesUpserted)
		assert.Equal(t, 1, result.Dropped)
		assert.Len(t, f.edges.byNaturalKey, 1)
	})

	t.Run("relationship extraction failure degrades to zero edges", func(t *testing.T) {
		f := newIntakeFixture(&fakeCompletion{
			relationshipsErr: errors.New("completion unavailable"),
			insights: []ports.InsightCandidate{
				{Kind: "insight", Type: "t", Title: "still saved", Confidence: 0.5},
			},
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err, "completion failure is never fatal")

		assert.Zero(t, result.EdgesUpserted)
		assert.Equal(t, 1, result.InsightsSaved)
		assert.NotContains(t, f.cache.deleted, graphSnapshotKey("org-1"))
	})

	t.Run("both extractions failing yields the empty result", func(t *testing.T) {
		f := newIntakeFixture(&fakeCompletion{
			relationshipsErr: errors.New("down"),
			insightsErr:      errors.New("down"),
		})

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Zero(t, result.EdgesUpserted)
		assert.Zero(t, result.InsightsSaved)
		assert.Zero(t, result.PatternsSaved)
		assert.Contains(t, f.publisher.eventTypes(), "evidence.ingested", "the ingestion event still fires")
	})

	t.Run("edge upsert failure counts as dropped", func(t *testing.T) {
		f := newIntakeFixture(&fakeCompletion{
			relationships: []ports.RelationshipCandidate{
				{SourceConcept: "go", TargetConcept: "concurrency", RelationshipType: "related_to", Strength: 0.5, Confidence: 0.5},
			},
		})
		f.edges.upsertErr = errors.New("table throttled")

		result, err := f.service.ProcessConversation(ctx, "org-1", "user-1", "conv-1", "transcript")
		require.NoError(t, err)

		assert.Zero(t, result.EdgesUpserted)
		assert.Equal(t, 1, result.Dropped)
	})
}
