package render

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/edviz/edviz/pkg/layout"
	"github.com/edviz/edviz/pkg/model"
)

func testGraph() model.Graph {
	g := model.Graph{}
	g = model.AddNode(g, "Alpha")
	g = model.AddNode(g, "Beta")
	g = model.AddEdge(g, "alpha", "beta", "relates to")
	return g
}

func testPositions() map[string]layout.Point {
	return map[string]layout.Point{
		"alpha": {X: 200, Y: 300},
		"beta":  {X: 600, Y: 300},
	}
}

func TestRenderImageSize(t *testing.T) {
	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	img := r.Render(testGraph(), testPositions())

	bounds := img.Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 600 {
		t.Errorf("expected 800x600 canvas, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderDrawsNodeDisc(t *testing.T) {
	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	img := r.Render(testGraph(), testPositions())

	// Disc centers are fully covered by the fill color (#1a237e).
	cr, cg, cb, _ := img.At(200, 300).RGBA()
	got := color.RGBA{uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8), 0xff}
	want := color.RGBA{0x1a, 0x23, 0x7e, 0xff}
	if got.R != want.R || got.G != want.G || got.B != want.B {
		t.Errorf("disc center color = %v, want %v", got, want)
	}
}

func TestRenderHighlightGroup(t *testing.T) {
	g := testGraph()
	for i := range g.Nodes {
		if g.Nodes[i].ID == "alpha" {
			g.Nodes[i].Group = 1
		}
	}
	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	img := r.Render(g, testPositions())

	cr, cg, cb, _ := img.At(200, 300).RGBA()
	if uint8(cr>>8) != 0xff || uint8(cg>>8) != 0x00 || uint8(cb>>8) != 0x00 {
		t.Errorf("group 1 disc should use the highlight color, got (%d,%d,%d)",
			uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
	}
}

func TestRenderSkipsUnresolvedLinks(t *testing.T) {
	g := testGraph()
	g.Links = append(g.Links, model.Link{Source: "alpha", Target: "ghost", Type: "broken"})
	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// Must not panic; the unresolved link is simply not drawn.
	r.Render(g, testPositions())
}

func TestRenderPNG(t *testing.T) {
	r, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := r.RenderPNG(testGraph(), testPositions(), &buf); err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	// PNG signature
	if buf.Len() < 8 || !bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("output is not a PNG stream")
	}
}
