package retrieval

import (
	"sort"

	"impactreview/internal/graph"
	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// Config controls the scored bounded BFS graph traversal.
type Config struct {
	DepthCalls      int
	DepthImports    int
	DepthTests      int
	MaxNodesPerUnit int
	EdgeWeights     map[models.EdgeType]float64
}

// DefaultConfig returns the traversal defaults from SPEC_FULL.md §4.4.
func DefaultConfig() *Config {
	return &Config{
		DepthCalls:      2,
		DepthImports:    1,
		DepthTests:      1,
		MaxNodesPerUnit: 30,
		EdgeWeights: map[models.EdgeType]float64{
			models.EdgeTests:      1.5,
			models.EdgeCalls:      1.0,
			models.EdgeImports:    0.8,
			models.EdgeInherits:   0.7,
			models.EdgeUsesConfig: 0.5,
		},
	}
}

const seedBonus = 2.0
const testBonus = 0.5
const hotspotBonus = 0.3
const hotspotThreshold = 2

// Finder runs scored bounded BFS from a set of seed node IDs.
type Finder struct {
	store  *graph.Store
	config *Config
}

// NewFinder constructs a Finder over store with the given config (nil for defaults).
func NewFinder(store *graph.Store, config *Config) *Finder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Finder{store: store, config: config}
}

type frontierEntry struct {
	nodeID string
	depth  int
}

// Find returns node IDs relevant to changedNodeIDs: the seeds themselves plus
// graph neighbours (callers, callees, import neighbours, base classes,
// tests), ranked by score and capped at MaxNodesPerUnit.
func (f *Finder) Find(changedNodeIDs []string) []string {
	if len(changedNodeIDs) == 0 {
		return nil
	}
	depthLimits := map[models.EdgeType]int{
		models.EdgeCalls:      f.config.DepthCalls,
		models.EdgeImports:    f.config.DepthImports,
		models.EdgeTests:      f.config.DepthTests,
		models.EdgeInherits:   f.config.DepthCalls,
		models.EdgeUsesConfig: f.config.DepthImports,
	}

	scores := make(map[string]float64)
	seen := make(map[string]bool)
	var insertionOrder []string
	var queue []frontierEntry
	for _, nid := range changedNodeIDs {
		if seen[nid] {
			continue
		}
		seen[nid] = true
		scores[nid] = seedBonus
		insertionOrder = append(insertionOrder, nid)
		queue = append(queue, frontierEntry{nodeID: nid, depth: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := f.store.GetNode(cur.nodeID); !ok {
			continue
		}
		for _, edgeType := range models.AllEdgeTypes {
			maxDepth := depthLimits[edgeType]
			if cur.depth >= maxDepth {
				continue
			}
			weight := f.config.EdgeWeights[edgeType]
			contribution := weight / float64(cur.depth+1)

			for _, out := range f.store.NeighborsOut(cur.nodeID, edgeType) {
				if seen[out] {
					continue
				}
				seen[out] = true
				scores[out] += contribution
				insertionOrder = append(insertionOrder, out)
				queue = append(queue, frontierEntry{nodeID: out, depth: cur.depth + 1})
			}
			for _, in := range f.store.NeighborsIn(cur.nodeID, edgeType) {
				if seen[in] {
					continue
				}
				seen[in] = true
				scores[in] += contribution
				insertionOrder = append(insertionOrder, in)
				queue = append(queue, frontierEntry{nodeID: in, depth: cur.depth + 1})
			}
		}
	}

	// Post-hoc bonuses: prefer tests and hotspots.
	order := insertionOrder
	for _, nid := range order {
		node, ok := f.store.GetNode(nid)
		if ok && (node.Kind == models.KindTest || node.IsTestFile) {
			scores[nid] += testBonus
		}
		if f.store.InDegree(nid) > hotspotThreshold {
			scores[nid] += hotspotBonus
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if len(order) > f.config.MaxNodesPerUnit {
		order = order[:f.config.MaxNodesPerUnit]
	}
	logging.RetrievalDebug("retrieval found %d nodes from %d seeds", len(order), len(changedNodeIDs))
	return order
}
