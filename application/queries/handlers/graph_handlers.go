package handlers

import (
	"context"
	"fmt"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/application/queries"
	"github.com/TPCMinistries/insight-engine/application/queries/bus"
	"github.com/TPCMinistries/insight-engine/application/services"
)

// FindPathHandler handles FindPathQuery
type FindPathHandler struct {
	graph *services.GraphService
}

// NewFindPathHandler creates the handler
func NewFindPathHandler(graph *services.GraphService) *FindPathHandler {
	return &FindPathHandler{graph: graph}
}

// Handle executes the query
func (h *FindPathHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindPathQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	path, err := h.graph.FindPath(ctx, q.OrganizationID, q.SourceConcept, q.TargetConcept, q.MaxDepth)
	if err != nil {
		return nil, err
	}

	return queries.PathResult{
		SourceConcept: q.SourceConcept,
		TargetConcept: q.TargetConcept,
		Found:         len(path) > 0,
		Hops:          len(path),
		Path:          queries.EdgesToDTO(path),
	}, nil
}

// GetClustersHandler handles GetClustersQuery
type GetClustersHandler struct {
	graph *services.GraphService
}

// NewGetClustersHandler creates the handler
func NewGetClustersHandler(graph *services.GraphService) *GetClustersHandler {
	return &GetClustersHandler{graph: graph}
}

// Handle executes the query
func (h *GetClustersHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetClustersQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	clusters, err := h.graph.FindClusters(ctx, q.OrganizationID, q.MinSize)
	if err != nil {
		return nil, err
	}

	return queries.ClustersResult{
		OrganizationID: q.OrganizationID,
		Clusters:       clusters,
	}, nil
}

// GetGraphStatsHandler handles GetGraphStatsQuery
type GetGraphStatsHandler struct {
	graph *services.GraphService
}

// NewGetGraphStatsHandler creates the handler
func NewGetGraphStatsHandler(graph *services.GraphService) *GetGraphStatsHandler {
	return &GetGraphStatsHandler{graph: graph}
}

// Handle executes the query
func (h *GetGraphStatsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetGraphStatsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	stats, err := h.graph.Stats(ctx, q.OrganizationID)
	if err != nil {
		return nil, err
	}

	return queries.StatsResult{
		OrganizationID: q.OrganizationID,
		Stats:          stats,
	}, nil
}

// GetEdgesHandler handles GetEdgesQuery
type GetEdgesHandler struct {
	graph *services.GraphService
}

// NewGetEdgesHandler creates the handler
func NewGetEdgesHandler(graph *services.GraphService) *GetEdgesHandler {
	return &GetEdgesHandler{graph: graph}
}

// Handle executes the query
func (h *GetEdgesHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetEdgesQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	edges, err := h.graph.GetEdges(ctx, q.OrganizationID, ports.EdgeFilter{
		Concept:      q.Concept,
		RelationType: q.RelationType,
		Limit:        q.Limit,
	})
	if err != nil {
		return nil, err
	}

	return queries.EdgesToDTO(edges), nil
}
