package model

import (
	"strings"
)

// Node represents a concept in the graph.
// Name is the authoritative display label; Label is a legacy alias kept in
// sync on every write. X/Y/FX/FY are transient presentation coordinates
// annotated by the layout engine and excluded from model identity. FX/FY
// are nullable: nil means unpinned, so a node can be pinned at the origin.
type Node struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Label string   `json:"label,omitempty"`
	Group int      `json:"group,omitempty"`
	X     float64  `json:"x,omitempty"`
	Y     float64  `json:"y,omitempty"`
	FX    *float64 `json:"fx,omitempty"`
	FY    *float64 `json:"fy,omitempty"`
}

// Link represents a directed relationship between two nodes.
// Identity is the ordered (Source, Target) pair. Type is the authoritative
// relationship label; Label is a legacy alias kept in sync.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Graph is an immutable concept-graph value. Mutation operations return a
// new Graph and leave the receiver's slices untouched; callers may share a
// Graph value freely across renderers.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Connections holds the neighbor ids of a node, split by link direction,
// in link insertion order.
type Connections struct {
	Incoming []string `json:"incoming"`
	Outgoing []string `json:"outgoing"`
}

// NodeID derives the stable node id from a display name: lower-cased, with
// whitespace runs collapsed to single underscores. Two names differing only
// in case or spacing map to the same id.
func NodeID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// LinkLabel returns the display label for a link, falling back to the
// legacy alias when Type is unset.
func (l Link) LinkLabel() string {
	if l.Type != "" {
		return l.Type
	}
	return l.Label
}

// DisplayName returns the display label for a node, falling back to the
// legacy alias when Name is unset.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Label
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// FindNode returns the node with the given id.
func (g Graph) FindNode(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasLink reports whether a link with the exact ordered (source, target)
// pair exists.
func (g Graph) HasLink(source, target string) bool {
	for _, l := range g.Links {
		if l.Source == source && l.Target == target {
			return true
		}
	}
	return false
}

// AddNode returns a graph with a node derived from name appended.
// The id is NodeID(name). If that id already exists the graph is returned
// unchanged: downstream lookups assume id uniqueness, so a colliding add is
// rejected rather than creating a second node (duplicate policy).
func AddNode(g Graph, name string) Graph {
	id := NodeID(name)
	if g.HasNode(id) {
		return g
	}
	nodes := make([]Node, len(g.Nodes), len(g.Nodes)+1)
	copy(nodes, g.Nodes)
	nodes = append(nodes, Node{ID: id, Name: name, Label: name})
	return Graph{Nodes: nodes, Links: copyLinks(g.Links)}
}

// RemoveNode returns a graph without the node id and without every link
// incident to it (cascade delete). No-op if the id is absent.
func RemoveNode(g Graph, id string) Graph {
	if !g.HasNode(id) {
		return g
	}
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	links := make([]Link, 0, len(g.Links))
	for _, l := range g.Links {
		if l.Source != id && l.Target != id {
			links = append(links, l)
		}
	}
	return Graph{Nodes: nodes, Links: links}
}

// AddEdge returns a graph with a link appended. If a link with the same
// ordered (source, target) pair already exists the graph is returned
// unchanged and the existing link's type is preserved. Endpoint existence is
// not verified here; the editor controller validates endpoints before commit.
func AddEdge(g Graph, source, target, linkType string) Graph {
	if g.HasLink(source, target) {
		return g
	}
	links := make([]Link, len(g.Links), len(g.Links)+1)
	copy(links, g.Links)
	links = append(links, Link{Source: source, Target: target, Type: linkType, Label: linkType})
	return Graph{Nodes: copyNodes(g.Nodes), Links: links}
}

// RemoveEdge returns a graph without the link matching the exact ordered
// (source, target) pair. No-op if absent.
func RemoveEdge(g Graph, source, target string) Graph {
	if !g.HasLink(source, target) {
		return g
	}
	links := make([]Link, 0, len(g.Links))
	for _, l := range g.Links {
		if l.Source == source && l.Target == target {
			continue
		}
		links = append(links, l)
	}
	return Graph{Nodes: copyNodes(g.Nodes), Links: links}
}

// UpdateNodeLabel returns a graph with the node's name (and legacy alias)
// replaced. The id is deliberately not recomputed: links reference ids, not
// names, so renames keep every existing link valid. No-op if the id is
// absent.
func UpdateNodeLabel(g Graph, id, newName string) Graph {
	if !g.HasNode(id) {
		return g
	}
	nodes := make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == id {
			n.Name = newName
			n.Label = newName
		}
		nodes[i] = n
	}
	return Graph{Nodes: nodes, Links: copyLinks(g.Links)}
}

// UpdateEdgeLabel returns a graph with the matching link's type (and legacy
// alias) replaced. No-op if no link matches the ordered pair.
func UpdateEdgeLabel(g Graph, source, target, newType string) Graph {
	if !g.HasLink(source, target) {
		return g
	}
	links := make([]Link, len(g.Links))
	for i, l := range g.Links {
		if l.Source == source && l.Target == target {
			l.Type = newType
			l.Label = newType
		}
		links[i] = l
	}
	return Graph{Nodes: copyNodes(g.Nodes), Links: links}
}

// NodeConnections returns the ids of the node's neighbors split by link
// direction, in link insertion order.
func NodeConnections(g Graph, id string) Connections {
	conns := Connections{Incoming: []string{}, Outgoing: []string{}}
	for _, l := range g.Links {
		if l.Target == id {
			conns.Incoming = append(conns.Incoming, l.Source)
		}
		if l.Source == id {
			conns.Outgoing = append(conns.Outgoing, l.Target)
		}
	}
	return conns
}

func copyNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}

func copyLinks(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	return out
}
