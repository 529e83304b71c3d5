package model

import (
	"reflect"
	"testing"
)

func testGraph() Graph {
	g := Graph{}
	g = AddNode(g, "Linear Algebra")
	g = AddNode(g, "Matrices")
	g = AddNode(g, "Vectors")
	g = AddEdge(g, "linear_algebra", "matrices", "contains")
	g = AddEdge(g, "linear_algebra", "vectors", "contains")
	return g
}

func TestNodeID(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Linear Algebra", "linear_algebra"},
		{"linear   algebra", "linear_algebra"},
		{"  Calculus  ", "calculus"},
		{"Graph\tTheory", "graph_theory"},
	}

	for _, c := range cases {
		if got := NodeID(c.name); got != c.want {
			t.Errorf("NodeID(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestAddNode(t *testing.T) {
	g := AddNode(Graph{}, "Linear Algebra")

	if len(g.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(g.Nodes))
	}
	if g.Nodes[0].ID != "linear_algebra" {
		t.Errorf("expected id linear_algebra, got %s", g.Nodes[0].ID)
	}
	if g.Nodes[0].Name != "Linear Algebra" || g.Nodes[0].Label != "Linear Algebra" {
		t.Errorf("name and label alias should both be set, got %+v", g.Nodes[0])
	}
}

func TestAddNodeDuplicateID(t *testing.T) {
	g := AddNode(Graph{}, "Linear Algebra")
	// Extra whitespace yields the same id, so the add must be rejected.
	g2 := AddNode(g, "linear   algebra")

	if len(g2.Nodes) != 1 {
		t.Fatalf("duplicate id should be a no-op, got %d nodes", len(g2.Nodes))
	}
	if g2.Nodes[0].Name != "Linear Algebra" {
		t.Errorf("existing node must be preserved, got %q", g2.Nodes[0].Name)
	}
}

func TestAddNodeDoesNotMutateInput(t *testing.T) {
	g := testGraph()
	before := len(g.Nodes)

	AddNode(g, "Determinants")

	if len(g.Nodes) != before {
		t.Errorf("input graph was mutated: %d nodes, want %d", len(g.Nodes), before)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g := testGraph()
	g2 := RemoveNode(g, "linear_algebra")

	if len(g2.Nodes) != 2 {
		t.Errorf("expected 2 nodes after removal, got %d", len(g2.Nodes))
	}
	if len(g2.Links) != 0 {
		t.Errorf("incident links must be cascade-deleted, got %d", len(g2.Links))
	}
	if len(DanglingLinks(g2)) != 0 {
		t.Error("cascade delete left dangling links")
	}
	// Original untouched.
	if len(g.Nodes) != 3 || len(g.Links) != 2 {
		t.Error("input graph was mutated")
	}
}

func TestRemoveNodeMissingIsNoop(t *testing.T) {
	g := testGraph()
	g2 := RemoveNode(g, "does_not_exist")

	if !reflect.DeepEqual(g, g2) {
		t.Error("removing a missing node must return the graph unchanged")
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := testGraph()
	once := AddEdge(g, "matrices", "vectors", "relates to")
	twice := AddEdge(once, "matrices", "vectors", "relates to")

	if !reflect.DeepEqual(once, twice) {
		t.Error("repeated identical AddEdge must yield the same graph")
	}
}

func TestAddEdgeExistingTypePreserved(t *testing.T) {
	g := testGraph()
	g2 := AddEdge(g, "linear_algebra", "matrices", "overwrites")

	l := g2.Links[0]
	if l.Type != "contains" {
		t.Errorf("existing link type must be preserved, got %q", l.Type)
	}
	if len(g2.Links) != 2 {
		t.Errorf("expected 2 links, got %d", len(g2.Links))
	}
}

func TestAddEdgeOrderedPair(t *testing.T) {
	g := testGraph()
	// The reverse direction is a distinct link.
	g2 := AddEdge(g, "matrices", "linear_algebra", "part of")

	if len(g2.Links) != 3 {
		t.Errorf("reverse pair should be a new link, got %d links", len(g2.Links))
	}
}

func TestRemoveEdge(t *testing.T) {
	g := testGraph()
	g2 := RemoveEdge(g, "linear_algebra", "matrices")

	if len(g2.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(g2.Links))
	}
	if g2.Links[0].Target != "vectors" {
		t.Errorf("wrong link removed: %+v", g2.Links[0])
	}

	// Missing pair is a no-op.
	g3 := RemoveEdge(g, "vectors", "matrices")
	if !reflect.DeepEqual(g, g3) {
		t.Error("removing a missing edge must return the graph unchanged")
	}
}

func TestUpdateNodeLabelKeepsID(t *testing.T) {
	g := testGraph()
	g2 := UpdateNodeLabel(g, "linear_algebra", "Abstract Algebra")

	n, ok := g2.FindNode("linear_algebra")
	if !ok {
		t.Fatal("node id must be stable across rename")
	}
	if n.Name != "Abstract Algebra" || n.Label != "Abstract Algebra" {
		t.Errorf("name and alias must both update, got %+v", n)
	}
	if len(DanglingLinks(g2)) != 0 {
		t.Error("links referencing the renamed node must stay valid")
	}
}

func TestUpdateEdgeLabel(t *testing.T) {
	g := testGraph()
	g2 := UpdateEdgeLabel(g, "linear_algebra", "matrices", "includes")

	if g2.Links[0].Type != "includes" || g2.Links[0].Label != "includes" {
		t.Errorf("type and alias must both update, got %+v", g2.Links[0])
	}
	if g.Links[0].Type != "contains" {
		t.Error("input graph was mutated")
	}

	// Missing pair is a no-op.
	g3 := UpdateEdgeLabel(g, "nope", "matrices", "x")
	if !reflect.DeepEqual(g, g3) {
		t.Error("updating a missing edge must return the graph unchanged")
	}
}

func TestNodeConnections(t *testing.T) {
	g := testGraph()
	g = AddEdge(g, "matrices", "vectors", "transforms")

	conns := NodeConnections(g, "vectors")
	if !reflect.DeepEqual(conns.Incoming, []string{"linear_algebra", "matrices"}) {
		t.Errorf("unexpected incoming: %v", conns.Incoming)
	}
	if len(conns.Outgoing) != 0 {
		t.Errorf("unexpected outgoing: %v", conns.Outgoing)
	}

	conns = NodeConnections(g, "linear_algebra")
	if !reflect.DeepEqual(conns.Outgoing, []string{"matrices", "vectors"}) {
		t.Errorf("outgoing must preserve link insertion order: %v", conns.Outgoing)
	}
}
