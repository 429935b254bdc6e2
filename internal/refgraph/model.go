// Package refgraph builds class-level reference graphs from constant
// pool entries.
package refgraph

import "strings"

// Edge kinds, ordered roughly by binding strength.
const (
	KindExtends    = "extends"
	KindImplements = "implements"
	KindField      = "field"
	KindMethod     = "method"
	KindUses       = "uses"
)

// Node represents one class: either scanned, or only referenced by a
// scanned class.
type Node struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Package string `json:"package,omitempty"`
	Scanned bool   `json:"scanned"`
}

// Edge represents a reference from one class to another.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
}

// RefGraph represents the complete reference graph structure.
type RefGraph struct {
	Name    string  `json:"name,omitempty"`
	Classes int     `json:"classes"`
	Nodes   []*Node `json:"nodes"`
	Edges   []*Edge `json:"edges"`

	// Internal maps for building
	nodeMap map[string]*Node `json:"-"`
	edgeMap map[string]*Edge `json:"-"`
}

// NewRefGraph creates a new reference graph.
func NewRefGraph() *RefGraph {
	return &RefGraph{
		Nodes:   make([]*Node, 0),
		Edges:   make([]*Edge, 0),
		nodeMap: make(map[string]*Node),
		edgeMap: make(map[string]*Edge),
	}
}

// AddNode adds or updates a node. A node referenced first and scanned
// later keeps Scanned true.
func (g *RefGraph) AddNode(name string, scanned bool) *Node {
	if node, exists := g.nodeMap[name]; exists {
		if scanned {
			node.Scanned = true
		}
		return node
	}

	node := &Node{
		ID:      name,
		Label:   simpleName(name),
		Package: packageName(name),
		Scanned: scanned,
	}

	g.nodeMap[name] = node
	g.Nodes = append(g.Nodes, node)

	return node
}

// AddEdge adds or updates an edge, ensuring both endpoint nodes exist.
func (g *RefGraph) AddEdge(source, target, kind string) *Edge {
	edgeID := source + "->" + target + "#" + kind

	if edge, exists := g.edgeMap[edgeID]; exists {
		edge.Count++
		return edge
	}

	g.AddNode(source, false)
	g.AddNode(target, false)

	edge := &Edge{
		ID:     edgeID,
		Source: source,
		Target: target,
		Kind:   kind,
		Count:  1,
	}

	g.edgeMap[edgeID] = edge
	g.Edges = append(g.Edges, edge)

	return edge
}

// GetNode returns a node by class name.
func (g *RefGraph) GetNode(name string) *Node {
	return g.nodeMap[name]
}

// GetEdge returns an edge by endpoints and kind.
func (g *RefGraph) GetEdge(source, target, kind string) *Edge {
	return g.edgeMap[source+"->"+target+"#"+kind]
}

// Cleanup removes internal maps, filters edges below the count
// threshold, and drops unscanned nodes left without an edge.
func (g *RefGraph) Cleanup(minEdgeCount int) {
	g.nodeMap = nil
	g.edgeMap = nil

	if minEdgeCount > 1 {
		filteredEdges := make([]*Edge, 0, len(g.Edges))
		for _, edge := range g.Edges {
			if edge.Count >= minEdgeCount {
				filteredEdges = append(filteredEdges, edge)
			}
		}
		g.Edges = filteredEdges
	}

	referenced := make(map[string]bool, len(g.Edges)*2)
	for _, edge := range g.Edges {
		referenced[edge.Source] = true
		referenced[edge.Target] = true
	}

	filteredNodes := make([]*Node, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.Scanned || referenced[node.ID] {
			filteredNodes = append(filteredNodes, node)
		}
	}
	g.Nodes = filteredNodes
}

// Stats returns statistics about the reference graph.
type Stats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
	Scanned   int `json:"scanned"`
	External  int `json:"external"`
}

// GetStats returns statistics about the reference graph.
func (g *RefGraph) GetStats() *Stats {
	stats := &Stats{
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}

	for _, node := range g.Nodes {
		if node.Scanned {
			stats.Scanned++
		} else {
			stats.External++
		}
	}

	return stats
}

// simpleName returns the part of a binary class name after the last
// package separator.
func simpleName(binary string) string {
	if i := strings.LastIndexByte(binary, '/'); i >= 0 {
		return binary[i+1:]
	}
	return binary
}

// packageName returns the package part of a binary class name, empty
// for the default package.
func packageName(binary string) string {
	if i := strings.LastIndexByte(binary, '/'); i >= 0 {
		return binary[:i]
	}
	return ""
}
