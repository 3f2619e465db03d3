package aggregates

import (
	"sort"

	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/core/valueobjects"
)

// GraphSnapshot is a read-only view of one organization's active edges.
// All query operations are pure functions of the snapshot; the adjacency map
// is built once at construction because a per-organization graph stays small
// enough (hundreds to low thousands of edges) that rebuild-per-query beats
// maintaining an incremental index.
type GraphSnapshot struct {
	organizationID string
	edges          []*entities.Relationship
	adjacency      map[string][]*entities.Relationship
}

// Cluster is a connected component of the concept graph
type Cluster struct {
	Concepts []string `json:"concepts"`
	Size     int      `json:"size"`
}

// ConceptDegree pairs a concept with the number of edges touching it
type ConceptDegree struct {
	Concept string `json:"concept"`
	Degree  int    `json:"degree"`
}

// GraphStats aggregates the shape of the graph
type GraphStats struct {
	ConceptCount      int            `json:"concept_count"`
	EdgeCount         int            `json:"edge_count"`
	RelationshipTypes map[string]int `json:"relationship_types"`
	AverageStrength   float64        `json:"average_strength"`
	TopConcepts       []ConceptDegree `json:"top_concepts"`
}

// NewGraphSnapshot builds a snapshot from stored edges. Inactive edges are
// excluded; every edge contributes both traversal directions even though it
// is stored with a source/target orientation.
func NewGraphSnapshot(organizationID string, edges []*entities.Relationship) *GraphSnapshot {
	snapshot := &GraphSnapshot{
		organizationID: organizationID,
		adjacency:      make(map[string][]*entities.Relationship),
	}

	for _, edge := range edges {
		if edge == nil || !edge.IsActive() {
			continue
		}
		snapshot.edges = append(snapshot.edges, edge)
		snapshot.adjacency[edge.Source().String()] = append(snapshot.adjacency[edge.Source().String()], edge)
		snapshot.adjacency[edge.Target().String()] = append(snapshot.adjacency[edge.Target().String()], edge)
	}

	return snapshot
}

// OrganizationID returns the organization this snapshot belongs to
func (g *GraphSnapshot) OrganizationID() string {
	return g.organizationID
}

// EdgeCount returns the number of active edges in the snapshot
func (g *GraphSnapshot) EdgeCount() int {
	return len(g.edges)
}

// ConceptCount returns the number of distinct edge endpoints
func (g *GraphSnapshot) ConceptCount() int {
	return len(g.adjacency)
}

// Concepts materializes the implicit node set by projection over the edges
func (g *GraphSnapshot) Concepts() []string {
	concepts := make([]string, 0, len(g.adjacency))
	for concept := range g.adjacency {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)
	return concepts
}

// Neighbors returns the edges touching a concept
func (g *GraphSnapshot) Neighbors(concept valueobjects.Concept) []*entities.Relationship {
	return g.adjacency[concept.String()]
}

// otherEndpoint walks an edge away from the given concept
func otherEndpoint(edge *entities.Relationship, from string) string {
	if edge.Source().String() == from {
		return edge.Target().String()
	}
	return edge.Source().String()
}

// FindPath runs a breadth-first search from source to target and returns the
// connecting edges in order. BFS guarantees the path is shortest in hop
// count. The returned path never exceeds maxDepth edges; an unreachable
// target, or source equal to target, yields an empty path.
func (g *GraphSnapshot) FindPath(source, target valueobjects.Concept, maxDepth int) []*entities.Relationship {
	start := source.String()
	goal := target.String()

	if start == goal || maxDepth <= 0 {
		return []*entities.Relationship{}
	}
	if _, ok := g.adjacency[start]; !ok {
		return []*entities.Relationship{}
	}

	type frontier struct {
		concept string
		path    []*entities.Relationship
	}

	visited := map[string]bool{start: true}
	queue := []frontier{{concept: start}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		// A node already at the depth limit cannot contribute a legal path
		if len(current.path) >= maxDepth {
			continue
		}

		for _, edge := range g.adjacency[current.concept] {
			next := otherEndpoint(edge, current.concept)
			if visited[next] {
				continue
			}
			visited[next] = true

			path := make([]*entities.Relationship, len(current.path), len(current.path)+1)
			copy(path, current.path)
			path = append(path, edge)

			if next == goal {
				return path
			}
			queue = append(queue, frontier{concept: next, path: path})
		}
	}

	return []*entities.Relationship{}
}

// FindClusters collects connected components of the concept graph and keeps
// those with at least minSize concepts. Traversal uses an explicit stack so
// a long chain of concepts cannot blow the call stack. Concepts within a
// cluster come back sorted; clusters come back largest first.
func (g *GraphSnapshot) FindClusters(minSize int) []Cluster {
	if minSize < 1 {
		minSize = 1
	}

	// Deterministic component discovery order
	concepts := g.Concepts()
	visited := make(map[string]bool, len(concepts))

	var clusters []Cluster
	for _, seed := range concepts {
		if visited[seed] {
			continue
		}

		var component []string
		stack := []string{seed}
		visited[seed] = true

		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, current)

			for _, edge := range g.adjacency[current] {
				next := otherEndpoint(edge, current)
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}

		if len(component) >= minSize {
			sort.Strings(component)
			clusters = append(clusters, Cluster{Concepts: component, Size: len(component)})
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Size != clusters[j].Size {
			return clusters[i].Size > clusters[j].Size
		}
		return clusters[i].Concepts[0] < clusters[j].Concepts[0]
	})

	return clusters
}

// Stats computes aggregate statistics over the snapshot, including the topN
// concepts by degree. Degree counts an edge at both of its endpoints.
func (g *GraphSnapshot) Stats(topN int) GraphStats {
	stats := GraphStats{
		ConceptCount:      g.ConceptCount(),
		EdgeCount:         g.EdgeCount(),
		RelationshipTypes: make(map[string]int),
	}

	totalStrength := 0.0
	for _, edge := range g.edges {
		stats.RelationshipTypes[string(edge.Type())]++
		totalStrength += edge.Strength()
	}
	if len(g.edges) > 0 {
		stats.AverageStrength = totalStrength / float64(len(g.edges))
	}

	degrees := make([]ConceptDegree, 0, len(g.adjacency))
	for concept, edges := range g.adjacency {
		degrees = append(degrees, ConceptDegree{Concept: concept, Degree: len(edges)})
	}
	sort.SliceStable(degrees, func(i, j int) bool {
		if degrees[i].Degree != degrees[j].Degree {
			return degrees[i].Degree > degrees[j].Degree
		}
		return degrees[i].Concept < degrees[j].Concept
	})
	if topN > 0 && len(degrees) > topN {
		degrees = degrees[:topN]
	}
	stats.TopConcepts = degrees

	return stats
}
