// Package editor sequences user edit intents over the concept graph: select
// an edit mode, collect parameters, apply the matching model operation, and
// commit the result through the graph-changed callback.
package editor

// Mode identifies one structural edit operation.
type Mode string

const (
	ModeAddNode       Mode = "add-node"
	ModeRemoveNode    Mode = "remove-node"
	ModeAddEdge       Mode = "add-edge"
	ModeRemoveEdge    Mode = "remove-edge"
	ModeEditNodeLabel Mode = "edit-node-label"
	ModeEditEdgeLabel Mode = "edit-edge-label"
)

// Phase is the controller's position in the edit flow.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingInput Phase = "awaiting-input"
	PhaseApplying      Phase = "applying"
)

// State is the observable editor state. Notice and Err carry the outcome of
// the most recent edit.
type State struct {
	Phase  Phase  `json:"phase"`
	Mode   Mode   `json:"mode,omitempty"`
	Notice string `json:"notice,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Event is a member of the editor's transition alphabet.
type Event interface {
	isEvent()
}

// Select opens the input form for an edit mode.
type Select struct{ Mode Mode }

// Cancel abandons the open input form.
type Cancel struct{}

// Submit moves a collected form into application.
type Submit struct{}

// Applied reports a committed edit.
type Applied struct{ Notice string }

// Failed reports a rejected or errored edit.
type Failed struct{ Err string }

func (Select) isEvent()  {}
func (Cancel) isEvent()  {}
func (Submit) isEvent()  {}
func (Applied) isEvent() {}
func (Failed) isEvent()  {}

// Reduce folds one event over the state. It is a pure function; impossible
// transitions leave the state unchanged. A Failed edit returns to idle, not
// back to the input form: the user reopens the editor to retry.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case Select:
		if s.Phase == PhaseIdle {
			return State{Phase: PhaseAwaitingInput, Mode: ev.Mode}
		}
	case Cancel:
		if s.Phase == PhaseAwaitingInput {
			return State{Phase: PhaseIdle}
		}
	case Submit:
		if s.Phase == PhaseAwaitingInput {
			return State{Phase: PhaseApplying, Mode: s.Mode}
		}
	case Applied:
		if s.Phase == PhaseApplying {
			return State{Phase: PhaseIdle, Notice: ev.Notice}
		}
	case Failed:
		if s.Phase == PhaseApplying {
			return State{Phase: PhaseIdle, Err: ev.Err}
		}
	}
	return s
}
