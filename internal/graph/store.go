// Package graph holds the in-memory repository graph: a directed multigraph
// of modules, symbols, and the edges between them, plus the builder that
// populates it from a parsed head revision.
package graph

import (
	"sync"

	"impactreview/internal/models"
)

// Store is an in-memory directed multigraph of repository symbols.
// It is written during building; every read takes a shared read lock, so
// concurrent retrieval readers do not block one another.
type Store struct {
	mu        sync.RWMutex
	nodes     map[string]models.GraphNode
	nodeOrder []string // insertion order, for reproducible "first match wins" traversal
	edges     []models.GraphEdge
	outByType map[string]map[models.EdgeType][]string // src -> type -> dst ids
	inByType  map[string]map[models.EdgeType][]string // dst -> type -> src ids
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes:     make(map[string]models.GraphNode),
		outByType: make(map[string]map[models.EdgeType][]string),
		inByType:  make(map[string]map[models.EdgeType][]string),
	}
}

// AddNode inserts or overwrites a node.
func (s *Store) AddNode(n models.GraphNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[n.ID]; !exists {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	s.nodes[n.ID] = n
}

// AddEdge inserts an edge. If either endpoint is missing, the edge is
// silently dropped — edges never reference nodes the store doesn't have.
func (s *Store) AddEdge(e models.GraphEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[e.SrcID]; !ok {
		return
	}
	if _, ok := s.nodes[e.DstID]; !ok {
		return
	}
	s.edges = append(s.edges, e)
	if s.outByType[e.SrcID] == nil {
		s.outByType[e.SrcID] = make(map[models.EdgeType][]string)
	}
	s.outByType[e.SrcID][e.Type] = append(s.outByType[e.SrcID][e.Type], e.DstID)
	if s.inByType[e.DstID] == nil {
		s.inByType[e.DstID] = make(map[models.EdgeType][]string)
	}
	s.inByType[e.DstID][e.Type] = append(s.inByType[e.DstID][e.Type], e.SrcID)
}

// GetNode returns the node by ID, or ok=false if absent.
func (s *Store) GetNode(id string) (models.GraphNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// NeighborsOut returns successors of nodeID along edgeType.
func (s *Store) NeighborsOut(nodeID string, edgeType models.EdgeType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.outByType[nodeID][edgeType]...)
}

// NeighborsIn returns predecessors of nodeID along edgeType.
func (s *Store) NeighborsIn(nodeID string, edgeType models.EdgeType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.inByType[nodeID][edgeType]...)
}

// InDegree returns the total number of incoming edges of any type.
func (s *Store) InDegree(nodeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, ids := range s.inByType[nodeID] {
		total += len(ids)
	}
	return total
}

// AllNodeIDs returns node IDs in insertion order — the iteration order the
// builder's substring/suffix module-matching relies on for "first match wins".
func (s *Store) AllNodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.nodeOrder...)
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}
