package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
)

// ValidationError is a locally rejected edit: missing input, a duplicate
// node id, or an endpoint outside the current node set. It never reaches
// the model or the network.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ErrBusy is returned when an edit is submitted while a previous one is
// still applying. Mutations are strictly sequential.
var ErrBusy = &ValidationError{Msg: "another edit is still being applied"}

// Params carries the collected form input for a submission. Fields are used
// per mode: Name for add-node and the label edits, NodeID for node-scoped
// modes, Source/Target for edge-scoped modes.
type Params struct {
	Name   string `json:"name,omitempty"`
	NodeID string `json:"node_id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// GraphChangedFunc commits a mutated graph to whichever renderer is active.
// It may involve a remote diagram render and can fail.
type GraphChangedFunc func(ctx context.Context, g model.Graph) error

// Controller owns the single current graph value and serializes edits
// against it. Renderers only ever receive value snapshots.
type Controller struct {
	mu       sync.Mutex
	state    State
	graph    model.Graph
	onChange GraphChangedFunc
}

// NewController creates a controller around an initial graph. onChange may
// be nil when no renderer needs notification.
func NewController(initial model.Graph, onChange GraphChangedFunc) *Controller {
	return &Controller{
		state:    State{Phase: PhaseIdle},
		graph:    initial,
		onChange: onChange,
	}
}

// Graph returns a snapshot of the current graph value.
func (c *Controller) Graph() model.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph
}

// SetGraph replaces the current graph, e.g. after a new upload. Any open
// edit form is abandoned.
func (c *Controller) SetGraph(g model.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graph = g
	c.state = State{Phase: PhaseIdle}
}

// State returns the observable editor state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select opens the input form for the given mode. Only an idle controller
// can open a form; an already-open form must be cancelled or submitted
// first, so a rejected Select can never silently keep a previous mode.
func (c *Controller) Select(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhaseIdle {
		return &ValidationError{Msg: fmt.Sprintf("cannot open editor while %s", c.state.Phase)}
	}
	c.state = Reduce(c.state, Select{Mode: mode})
	return nil
}

// Cancel abandons the open input form.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, Cancel{})
}

// Submit validates the collected parameters, applies the matching model
// operation, and commits via the graph-changed callback. On validation or
// callback failure the previous graph value is kept and the controller
// returns to idle with the error surfaced; the form is not re-entered.
func (c *Controller) Submit(ctx context.Context, params Params) error {
	c.mu.Lock()
	if c.state.Phase == PhaseApplying {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state.Phase != PhaseAwaitingInput {
		c.mu.Unlock()
		return &ValidationError{Msg: "no edit in progress"}
	}
	mode := c.state.Mode
	current := c.graph

	next, err := applyMutation(current, mode, params)
	if err != nil {
		// A rejected submission closes the form: retrying means reopening
		// the editor, same as a failed commit.
		c.state = Reduce(Reduce(c.state, Submit{}), Failed{Err: err.Error()})
		c.mu.Unlock()
		return err
	}

	c.state = Reduce(c.state, Submit{})
	c.mu.Unlock()

	// The callback runs outside the lock: it may block on the network.
	if c.onChange != nil {
		if err := c.onChange(ctx, next); err != nil {
			logging.WarnContext(ctx, "edit commit failed", "mode", mode, "error", err)
			c.mu.Lock()
			c.state = Reduce(c.state, Failed{Err: err.Error()})
			c.mu.Unlock()
			return err
		}
	}

	c.mu.Lock()
	c.graph = next
	c.state = Reduce(c.state, Applied{Notice: fmt.Sprintf("successfully applied %s", mode)})
	c.mu.Unlock()
	logging.InfoContext(ctx, "edit applied", "mode", mode,
		"nodes", len(next.Nodes), "links", len(next.Links))
	return nil
}

// applyMutation validates params for the mode and returns the mutated
// graph. Validation lives here, not in the model: model operations are
// total and degrade to no-ops, so meaningless requests must be caught at
// this boundary.
func applyMutation(g model.Graph, mode Mode, params Params) (model.Graph, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.NodeID = strings.TrimSpace(params.NodeID)
	params.Source = strings.TrimSpace(params.Source)
	params.Target = strings.TrimSpace(params.Target)

	switch mode {
	case ModeAddNode:
		if params.Name == "" {
			return g, &ValidationError{Msg: "node name is required"}
		}
		if g.HasNode(model.NodeID(params.Name)) {
			return g, &ValidationError{Msg: fmt.Sprintf("duplicate node: %q already exists", model.NodeID(params.Name))}
		}
		return model.AddNode(g, params.Name), nil

	case ModeRemoveNode:
		if !g.HasNode(params.NodeID) {
			return g, &ValidationError{Msg: fmt.Sprintf("unknown node: %q", params.NodeID)}
		}
		return model.RemoveNode(g, params.NodeID), nil

	case ModeAddEdge:
		if params.Name == "" {
			return g, &ValidationError{Msg: "edge type is required"}
		}
		if !g.HasNode(params.Source) || !g.HasNode(params.Target) {
			return g, &ValidationError{Msg: "edge endpoints must be existing nodes"}
		}
		return model.AddEdge(g, params.Source, params.Target, params.Name), nil

	case ModeRemoveEdge:
		if !g.HasLink(params.Source, params.Target) {
			return g, &ValidationError{Msg: "no such edge"}
		}
		return model.RemoveEdge(g, params.Source, params.Target), nil

	case ModeEditNodeLabel:
		if params.Name == "" {
			return g, &ValidationError{Msg: "new node name is required"}
		}
		if !g.HasNode(params.NodeID) {
			return g, &ValidationError{Msg: fmt.Sprintf("unknown node: %q", params.NodeID)}
		}
		return model.UpdateNodeLabel(g, params.NodeID, params.Name), nil

	case ModeEditEdgeLabel:
		if params.Name == "" {
			return g, &ValidationError{Msg: "new edge type is required"}
		}
		if !g.HasLink(params.Source, params.Target) {
			return g, &ValidationError{Msg: "no such edge"}
		}
		return model.UpdateEdgeLabel(g, params.Source, params.Target, params.Name), nil
	}
	return g, &ValidationError{Msg: fmt.Sprintf("unknown edit mode: %q", mode)}
}
