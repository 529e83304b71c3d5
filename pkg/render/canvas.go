// Package render draws a concept graph onto a raster canvas for force mode.
// It is a pure read+draw projection: positions come from the layout engine
// and the graph value is never modified.
package render

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/edviz/edviz/pkg/layout"
	"github.com/edviz/edviz/pkg/model"
)

// Options controls the canvas geometry and styling.
type Options struct {
	Width      int
	Height     int
	Scale      float64 // current zoom factor; label and disc sizes divide by it
	NodeRadius float64 // screen-space disc radius
	FontSize   float64 // screen-space label size
}

// DefaultOptions returns the styling used by the UI.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Scale: 1, NodeRadius: 5, FontSize: 12}
}

const (
	colorHighlight  = "#ff0000" // group 1 nodes
	colorDefault    = "#1a237e"
	colorLink       = "#999999"
	colorLabelText  = "#000000"
	labelBackground = 0.8 // white backing alpha
	labelOffsetY    = 8   // gap between disc and node label
)

// Renderer draws graphs with a shared parsed font.
type Renderer struct {
	opts Options
	font *truetype.Font
}

// New creates a renderer. The bundled Go regular font is used for labels.
func New(opts Options) (*Renderer, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing label font: %w", err)
	}
	return &Renderer{opts: opts, font: f}, nil
}

// Render draws the graph at the given positions and returns the image.
// Links whose endpoints are unresolved or unsettled are skipped entirely;
// the renderer never fails on a transiently inconsistent graph.
func (r *Renderer) Render(g model.Graph, positions map[string]layout.Point) image.Image {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	fontSize := r.opts.FontSize / r.opts.Scale
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: fontSize}))

	for _, l := range g.Links {
		r.drawLink(dc, l, positions, fontSize)
	}
	for _, n := range g.Nodes {
		r.drawNode(dc, n, positions, fontSize)
	}
	return dc.Image()
}

// RenderPNG renders the graph and PNG-encodes it to w.
func (r *Renderer) RenderPNG(g model.Graph, positions map[string]layout.Point, w io.Writer) error {
	dc := gg.NewContextForImage(r.Render(g, positions))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding canvas: %w", err)
	}
	return nil
}

func (r *Renderer) drawLink(dc *gg.Context, l model.Link, positions map[string]layout.Point, fontSize float64) {
	start, okS := positions[l.Source]
	end, okT := positions[l.Target]
	if !okS || !okT {
		// Not yet settled or referencing a missing node.
		return
	}

	dc.SetHexColor(colorLink)
	dc.SetLineWidth(1)
	dc.DrawLine(start.X, start.Y, end.X, end.Y)
	dc.Stroke()

	label := l.LinkLabel()
	if label == "" {
		return
	}
	midX := (start.X + end.X) / 2
	midY := (start.Y + end.Y) / 2
	bw, bh := labelBox(dc, label, fontSize)
	dc.SetRGBA(1, 1, 1, labelBackground)
	dc.DrawRectangle(midX-bw/2, midY-bh/2, bw, bh)
	dc.Fill()
	dc.SetHexColor(colorLabelText)
	dc.DrawStringAnchored(label, midX, midY, 0.5, 0.35)
}

func (r *Renderer) drawNode(dc *gg.Context, n model.Node, positions map[string]layout.Point, fontSize float64) {
	p, ok := positions[n.ID]
	if !ok {
		return
	}

	dc.DrawCircle(p.X, p.Y, r.opts.NodeRadius/r.opts.Scale)
	if n.Group == 1 {
		dc.SetHexColor(colorHighlight)
	} else {
		dc.SetHexColor(colorDefault)
	}
	dc.Fill()

	label := n.DisplayName()
	if label == "" {
		return
	}
	bw, bh := labelBox(dc, label, fontSize)
	top := p.Y + labelOffsetY
	dc.SetRGBA(1, 1, 1, labelBackground)
	dc.DrawRectangle(p.X-bw/2, top, bw, bh)
	dc.Fill()
	dc.SetHexColor(colorLabelText)
	dc.DrawStringAnchored(label, p.X, top+bh/2, 0.5, 0.35)
}

// labelBox measures a label and pads it by a fixed fraction of the font
// size, matching the opaque backing rectangle behind every label.
func labelBox(dc *gg.Context, label string, fontSize float64) (w, h float64) {
	textWidth, _ := dc.MeasureString(label)
	pad := fontSize * 0.2
	return textWidth + pad, fontSize + pad
}
