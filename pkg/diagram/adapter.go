package diagram

import (
	"context"
	"sync"

	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
)

// RenderFunc asks the remote service to render a full graph to SVG text.
type RenderFunc func(ctx context.Context, g model.Graph) (string, error)

// Adapter keeps the displayed diagram consistent with the graph model while
// in diagram mode. On every committed mutation it requests a fresh render of
// the full current graph and swaps the result in only after a successful
// response; the previous diagram stays visible in the meantime and on
// failure. Overlapping renders carry a generation token so a slow stale
// response never overwrites a newer one.
type Adapter struct {
	render RenderFunc

	mu      sync.Mutex
	current string
	gen     uint64
}

// NewAdapter creates an adapter using render for server round trips.
func NewAdapter(render RenderFunc) *Adapter {
	return &Adapter{render: render}
}

// Current returns the displayed diagram text, already normalized and
// sanitized.
func (a *Adapter) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// SetInitial installs the diagram delivered with an upload response.
func (a *Adapter) SetInitial(svg string) {
	prepared := FitToContainer(Sanitize(svg))
	a.mu.Lock()
	a.gen++
	a.current = prepared
	a.mu.Unlock()
}

// GraphChanged re-renders the full graph on the server and swaps in the
// result. The graph model is never cleared here: a failed render keeps the
// last-good diagram and returns the error for the caller to surface.
func (a *Adapter) GraphChanged(ctx context.Context, g model.Graph) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	svg, err := a.render(ctx, g)
	if err != nil {
		logging.WarnContext(ctx, "diagram render failed, keeping previous diagram", "error", err)
		return err
	}
	prepared := FitToContainer(Sanitize(svg))

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// A newer render was issued while this one was in flight.
		logging.DebugContext(ctx, "discarding stale diagram render", "generation", gen)
		return nil
	}
	a.current = prepared
	return nil
}

// Export returns the diagram prepared for download or open-as-file. The
// sanitization here is independent of the display path: every export passes
// through it regardless of how the current text was produced.
func (a *Adapter) Export() string {
	return Sanitize(a.Current())
}
