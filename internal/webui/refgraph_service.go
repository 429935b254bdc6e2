package webui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/class-inspect/internal/refgraph"
	"github.com/class-inspect/pkg/compression"
	apperrors "github.com/class-inspect/pkg/errors"
)

// RefGraphService manages reference graph loading, caching, and
// queries. Parsed graphs are cached because the UI issues many node
// lookups against the same scan.
type RefGraphService struct {
	dataDir      string
	mu           sync.RWMutex
	cache        map[string]*refGraphCacheEntry
	maxCacheSize int
}

// refGraphCacheEntry indexes one parsed graph for lookups. The JSON
// document only carries node and edge lists, so the maps are rebuilt
// on load.
type refGraphCacheEntry struct {
	graph    *refgraph.RefGraph
	nodes    map[string]*refgraph.Node
	incoming map[string][]*refgraph.Edge
	outgoing map[string][]*refgraph.Edge
}

// NewRefGraphService creates a new RefGraphService.
func NewRefGraphService(dataDir string) *RefGraphService {
	return &RefGraphService{
		dataDir:      dataDir,
		cache:        make(map[string]*refGraphCacheEntry),
		maxCacheSize: 3, // Keep at most 3 graphs in memory
	}
}

// ClassReferences describes one graph node and every edge touching it.
type ClassReferences struct {
	Node     *refgraph.Node   `json:"node"`
	Outgoing []*refgraph.Edge `json:"outgoing,omitempty"`
	Incoming []*refgraph.Edge `json:"incoming,omitempty"`
}

// ClassReferences returns a class's node with its outgoing references
// and the references other classes hold to it.
func (s *RefGraphService) ClassReferences(scanID string, className string) (*ClassReferences, error) {
	entry, err := s.getOrLoadGraph(scanID)
	if err != nil {
		return nil, err
	}

	node, ok := entry.nodes[className]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("class %s not in reference graph", className))
	}

	return &ClassReferences{
		Node:     node,
		Outgoing: entry.outgoing[className],
		Incoming: entry.incoming[className],
	}, nil
}

// GraphStats returns node and edge counts for a scan's graph.
func (s *RefGraphService) GraphStats(scanID string) (*refgraph.Stats, error) {
	entry, err := s.getOrLoadGraph(scanID)
	if err != nil {
		return nil, err
	}
	return entry.graph.GetStats(), nil
}

// HasRefGraph checks if a reference graph file exists for the given scan.
func (s *RefGraphService) HasRefGraph(scanID string) bool {
	_, err := os.Stat(filepath.Join(s.scanDir(scanID), refGraphName))
	return err == nil
}

// ClearCache clears the reference graph cache.
func (s *RefGraphService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*refGraphCacheEntry)
}

// getOrLoadGraph loads a reference graph from cache or disk.
func (s *RefGraphService) getOrLoadGraph(scanID string) (*refGraphCacheEntry, error) {
	// Check cache first
	s.mu.RLock()
	entry, ok := s.cache[scanID]
	s.mu.RUnlock()

	if ok {
		return entry, nil
	}

	// Load from disk
	return s.loadGraph(scanID)
}

// loadGraph loads a reference graph from disk and caches it.
func (s *RefGraphService) loadGraph(scanID string) (*refGraphCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache after acquiring write lock
	if entry, ok := s.cache[scanID]; ok {
		return entry, nil
	}

	raw, err := os.ReadFile(filepath.Join(s.scanDir(scanID), refGraphName))
	if os.IsNotExist(err) {
		msg := "reference graph not found"
		if scanID != "" {
			msg += " for scan " + scanID
		}
		return nil, apperrors.New(apperrors.CodeNotFound, msg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reference graph: %w", err)
	}

	data, err := compression.AutoDecompress(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress reference graph: %w", err)
	}

	var graph refgraph.RefGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to parse reference graph: %w", err)
	}

	entry := newRefGraphCacheEntry(&graph)

	// Evict an entry if the cache is full
	if len(s.cache) >= s.maxCacheSize {
		for k := range s.cache {
			delete(s.cache, k)
			break // Just delete one
		}
	}

	s.cache[scanID] = entry
	return entry, nil
}

func newRefGraphCacheEntry(graph *refgraph.RefGraph) *refGraphCacheEntry {
	entry := &refGraphCacheEntry{
		graph:    graph,
		nodes:    make(map[string]*refgraph.Node, len(graph.Nodes)),
		incoming: make(map[string][]*refgraph.Edge),
		outgoing: make(map[string][]*refgraph.Edge),
	}
	for _, node := range graph.Nodes {
		entry.nodes[node.ID] = node
	}
	for _, edge := range graph.Edges {
		entry.outgoing[edge.Source] = append(entry.outgoing[edge.Source], edge)
		entry.incoming[edge.Target] = append(entry.incoming[edge.Target], edge)
	}
	return entry
}

// scanDir returns the scan directory path.
func (s *RefGraphService) scanDir(scanID string) string {
	if scanID == "" {
		return s.dataDir
	}
	return filepath.Join(s.dataDir, scanID)
}
