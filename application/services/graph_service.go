package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/config"
	"github.com/TPCMinistries/insight-engine/domain/core/aggregates"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
)

// snapshotTTLSeconds bounds how stale a cached graph snapshot can get.
// Intake invalidates eagerly, so the TTL only covers writers outside this
// process.
const snapshotTTLSeconds = 60

func graphSnapshotKey(organizationID string) string {
	return "graph:snapshot:" + organizationID
}

// GraphService serves read queries over an organization's concept graph.
// Each query materializes (or reuses) an immutable snapshot of the active
// edges and runs pure traversals on it.
type GraphService struct {
	edges  ports.EdgeRepository
	cache  ports.Cache
	config *config.DomainConfig
	logger *zap.Logger
}

// NewGraphService creates a graph query service
func NewGraphService(edges ports.EdgeRepository, cache ports.Cache, cfg *config.DomainConfig, logger *zap.Logger) *GraphService {
	return &GraphService{
		edges:  edges,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// Snapshot returns the organization's current graph snapshot, from cache when
// a fresh one exists
func (s *GraphService) Snapshot(ctx context.Context, organizationID string) (*aggregates.GraphSnapshot, error) {
	key := graphSnapshotKey(organizationID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if snapshot, ok := cached.(*aggregates.GraphSnapshot); ok {
			return snapshot, nil
		}
	}

	edges, err := s.edges.GetEdges(ctx, organizationID, ports.EdgeFilter{Limit: s.config.MaxEdgesPerQuery})
	if err != nil {
		return nil, err
	}

	snapshot := aggregates.NewGraphSnapshot(organizationID, edges)
	if err := s.cache.Set(ctx, key, snapshot, snapshotTTLSeconds); err != nil {
		s.logger.Debug("Failed to cache graph snapshot", zap.String("organization_id", organizationID), zap.Error(err))
	}
	return snapshot, nil
}

// InvalidateSnapshot drops the cached snapshot after a graph mutation
func (s *GraphService) InvalidateSnapshot(ctx context.Context, organizationID string) {
	_ = s.cache.Delete(ctx, graphSnapshotKey(organizationID))
}

// FindPath returns the shortest relationship path between two concepts,
// bounded by maxDepth hops. Zero maxDepth selects the configured default.
func (s *GraphService) FindPath(ctx context.Context, organizationID, sourceConcept, targetConcept string, maxDepth int) ([]*entities.Relationship, error) {
	source, err := valueobjects.NewConcept(sourceConcept)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.NewConcept(targetConcept)
	if err != nil {
		return nil, err
	}

	if maxDepth <= 0 {
		maxDepth = s.config.DefaultPathDepth
	}
	if maxDepth > s.config.MaxPathDepth {
		maxDepth = s.config.MaxPathDepth
	}

	snapshot, err := s.Snapshot(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return snapshot.FindPath(source, target, maxDepth), nil
}

// FindClusters returns connected components with at least minSize concepts.
// Zero minSize selects the configured default.
func (s *GraphService) FindClusters(ctx context.Context, organizationID string, minSize int) ([]aggregates.Cluster, error) {
	if minSize <= 0 {
		minSize = s.config.MinClusterSize
	}

	snapshot, err := s.Snapshot(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return snapshot.FindClusters(minSize), nil
}

// Stats summarizes the organization's active graph
func (s *GraphService) Stats(ctx context.Context, organizationID string) (aggregates.GraphStats, error) {
	snapshot, err := s.Snapshot(ctx, organizationID)
	if err != nil {
		return aggregates.GraphStats{}, err
	}
	return snapshot.Stats(s.config.TopConceptCount), nil
}

// GetEdges lists stored edges, optionally filtered by concept or type
func (s *GraphService) GetEdges(ctx context.Context, organizationID string, filter ports.EdgeFilter) ([]*entities.Relationship, error) {
	if filter.Limit <= 0 || filter.Limit > s.config.MaxEdgesPerQuery {
		filter.Limit = s.config.MaxEdgesPerQuery
	}
	return s.edges.GetEdges(ctx, organizationID, filter)
}

// DeactivateEdge prunes an edge from traversals, keeping its evidence
func (s *GraphService) DeactivateEdge(ctx context.Context, organizationID, edgeID string) error {
	if err := s.edges.Deactivate(ctx, organizationID, edgeID); err != nil {
		return err
	}
	s.InvalidateSnapshot(ctx, organizationID)
	return nil
}
