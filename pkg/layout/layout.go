// Package layout computes node positions for force mode. It adapts the
// concept graph to gonum's force-directed layout optimizer, which plays the
// role of the external layout engine: it is fed nodes and links, iterates a
// bounded number of simulation steps (the cooldown), and emits settled
// planar coordinates.
package layout

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
)

// Point is a node position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options controls a layout run.
type Options struct {
	Width    float64 // viewport width
	Height   float64 // viewport height
	Margin   float64 // kept free around the drawing
	Cooldown int     // maximum simulation steps before the engine stops
}

// DefaultOptions returns the viewport and cooldown used by the UI.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Margin: 40, Cooldown: 100}
}

// Engine produces node positions for a graph. Implementations must tolerate
// transiently inconsistent graphs (dangling links are ignored, never fatal).
type Engine interface {
	Layout(g model.Graph, opts Options) map[string]Point
}

// ForceEngine runs the Eades spring-embedder from gonum.
type ForceEngine struct {
	Repulsion float64
	Rate      float64
	Theta     float64
	Seed      uint64
}

// NewForceEngine returns an engine with settled defaults.
func NewForceEngine() *ForceEngine {
	return &ForceEngine{Repulsion: 1, Rate: 0.05, Theta: 0.2, Seed: 1}
}

// Layout computes positions for every node, fitted to the viewport.
// Links referencing missing nodes are filtered out before the simulation
// runs. Nodes carrying pinned coordinates (FX/FY) keep them.
func (e *ForceEngine) Layout(g model.Graph, opts Options) map[string]Point {
	positions := make(map[string]Point, len(g.Nodes))
	if len(g.Nodes) == 0 {
		return positions
	}
	if len(g.Nodes) == 1 {
		positions[g.Nodes[0].ID] = Point{X: opts.Width / 2, Y: opts.Height / 2}
		return positions
	}

	dg := simple.NewDirectedGraph()
	idToNum := make(map[string]int64, len(g.Nodes))
	numToID := make(map[int64]string, len(g.Nodes))
	for i, n := range g.Nodes {
		num := int64(i)
		idToNum[n.ID] = num
		numToID[num] = n.ID
		dg.AddNode(simple.Node(num))
	}

	skipped := 0
	for _, l := range g.Links {
		from, okF := idToNum[l.Source]
		to, okT := idToNum[l.Target]
		if !okF || !okT || from == to {
			skipped++
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	if skipped > 0 {
		logging.Debug("skipped unresolved links before layout", "count", skipped)
	}

	eades := layout.EadesR2{
		Repulsion: e.Repulsion,
		Rate:      e.Rate,
		Updates:   opts.Cooldown,
		Theta:     e.Theta,
		Src:       rand.NewSource(e.Seed),
	}
	optimizer := layout.NewOptimizerR2(dg, eades.Update)
	for i := 0; i < opts.Cooldown && optimizer.Update(); i++ {
	}

	raw := make(map[string]Point, len(g.Nodes))
	for num, id := range numToID {
		coord := optimizer.Coord2(num)
		raw[id] = Point{X: coord.X, Y: coord.Y}
	}

	fitted := fitToViewport(raw, opts)

	// Pinned coordinates win over the simulation. Each axis pins
	// independently, matching d3's nullable fx/fy.
	for _, n := range g.Nodes {
		if n.FX == nil && n.FY == nil {
			continue
		}
		p := fitted[n.ID]
		if n.FX != nil {
			p.X = *n.FX
		}
		if n.FY != nil {
			p.Y = *n.FY
		}
		fitted[n.ID] = p
	}
	return fitted
}

// fitToViewport scales and translates raw layout coordinates so the drawing
// fills the viewport minus the margin.
func fitToViewport(raw map[string]Point, opts Options) map[string]Point {
	minX, minY := raw[firstKey(raw)].X, raw[firstKey(raw)].Y
	maxX, maxY := minX, minY
	for _, p := range raw {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	spanX := maxX - minX
	spanY := maxY - minY
	innerW := opts.Width - 2*opts.Margin
	innerH := opts.Height - 2*opts.Margin

	fitted := make(map[string]Point, len(raw))
	for id, p := range raw {
		x := opts.Width / 2
		y := opts.Height / 2
		if spanX > 0 {
			x = opts.Margin + (p.X-minX)/spanX*innerW
		}
		if spanY > 0 {
			y = opts.Margin + (p.Y-minY)/spanY*innerH
		}
		fitted[id] = Point{X: x, Y: y}
	}
	return fitted
}

func firstKey(m map[string]Point) string {
	for k := range m {
		return k
	}
	return ""
}
