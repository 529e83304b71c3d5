package layout

import (
	"testing"

	"github.com/edviz/edviz/pkg/model"
)

func testGraph() model.Graph {
	g := model.Graph{}
	g = model.AddNode(g, "Linear Algebra")
	g = model.AddNode(g, "Matrices")
	g = model.AddNode(g, "Vectors")
	g = model.AddEdge(g, "linear_algebra", "matrices", "contains")
	g = model.AddEdge(g, "linear_algebra", "vectors", "contains")
	return g
}

func TestLayoutAssignsAllNodes(t *testing.T) {
	engine := NewForceEngine()
	opts := DefaultOptions()

	positions := engine.Layout(testGraph(), opts)

	if len(positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(positions))
	}
	for id, p := range positions {
		if p.X < 0 || p.X > opts.Width || p.Y < 0 || p.Y > opts.Height {
			t.Errorf("node %s positioned outside viewport: %+v", id, p)
		}
	}
}

func TestLayoutEmptyGraph(t *testing.T) {
	positions := NewForceEngine().Layout(model.Graph{}, DefaultOptions())
	if len(positions) != 0 {
		t.Errorf("expected no positions, got %d", len(positions))
	}
}

func TestLayoutSingleNodeCentered(t *testing.T) {
	g := model.AddNode(model.Graph{}, "Solo")
	opts := DefaultOptions()

	positions := NewForceEngine().Layout(g, opts)

	p, ok := positions["solo"]
	if !ok {
		t.Fatal("missing position for solo node")
	}
	if p.X != opts.Width/2 || p.Y != opts.Height/2 {
		t.Errorf("single node should be centered, got %+v", p)
	}
}

func TestLayoutToleratesDanglingLinks(t *testing.T) {
	g := testGraph()
	g.Links = append(g.Links, model.Link{Source: "linear_algebra", Target: "ghost"})

	positions := NewForceEngine().Layout(g, DefaultOptions())

	if len(positions) != 3 {
		t.Errorf("dangling link must be ignored, got %d positions", len(positions))
	}
	if _, ok := positions["ghost"]; ok {
		t.Error("unresolved endpoint must not receive a position")
	}
}

func pin(v float64) *float64 { return &v }

func TestLayoutHonorsPinnedCoordinates(t *testing.T) {
	g := testGraph()
	for i := range g.Nodes {
		if g.Nodes[i].ID == "matrices" {
			g.Nodes[i].FX = pin(123)
			g.Nodes[i].FY = pin(45)
		}
	}

	positions := NewForceEngine().Layout(g, DefaultOptions())

	if p := positions["matrices"]; p.X != 123 || p.Y != 45 {
		t.Errorf("pinned node must keep its coordinates, got %+v", p)
	}
}

func TestLayoutPinsNodeAtOrigin(t *testing.T) {
	g := testGraph()
	for i := range g.Nodes {
		if g.Nodes[i].ID == "vectors" {
			g.Nodes[i].FX = pin(0)
			g.Nodes[i].FY = pin(0)
		}
	}

	positions := NewForceEngine().Layout(g, DefaultOptions())

	if p := positions["vectors"]; p.X != 0 || p.Y != 0 {
		t.Errorf("node pinned at the origin must stay there, got %+v", p)
	}
}

func TestLayoutPinsSingleAxis(t *testing.T) {
	g := testGraph()
	opts := DefaultOptions()
	for i := range g.Nodes {
		if g.Nodes[i].ID == "matrices" {
			g.Nodes[i].FX = pin(200)
		}
	}

	positions := NewForceEngine().Layout(g, opts)

	p := positions["matrices"]
	if p.X != 200 {
		t.Errorf("pinned axis must hold, got %+v", p)
	}
	if p.Y < 0 || p.Y > opts.Height {
		t.Errorf("free axis must stay inside the viewport, got %+v", p)
	}
}
