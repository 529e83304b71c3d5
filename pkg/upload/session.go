// Package upload models the upload flow as a tagged-union of events folded
// over a session value by a pure transition function.
package upload

import (
	"github.com/edviz/edviz/pkg/api"
	"github.com/edviz/edviz/pkg/model"
)

// MessageKind distinguishes success notices from errors.
type MessageKind string

const (
	MessageError   MessageKind = "error"
	MessageSuccess MessageKind = "success"
)

// Message is a user-facing upload outcome.
type Message struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}

// Session is the state of the current upload: the active file, its derived
// graph and diagram, the selected render mode, and progress flags.
type Session struct {
	SVGData     string        `json:"svg_data,omitempty"`
	Graph       model.Graph   `json:"graph"`
	FileName    string        `json:"file_name,omitempty"`
	GraphType   api.GraphType `json:"graph_type"`
	IsUploading bool          `json:"is_uploading"`
	Message     *Message      `json:"message,omitempty"`
	IsSuccess   bool          `json:"is_success"`
}

// NewSession returns the initial session state (diagram mode selected).
func NewSession() Session {
	return Session{GraphType: api.GraphTypeDiagram}
}

// Event is a member of the session's transition alphabet.
type Event interface {
	isSessionEvent()
}

// Started marks the beginning of an upload.
type Started struct{ FileName string }

// Succeeded installs the conversion result.
type Succeeded struct {
	SVGData  string
	Graph    model.Graph
	FileName string
	Message  string
}

// Failed records an upload error.
type Failed struct{ Message string }

// TypeChanged selects the render mode for the next upload.
type TypeChanged struct{ GraphType api.GraphType }

// SVGUpdated replaces the displayed diagram after an edit re-render.
type SVGUpdated struct{ SVGData string }

// Reset discards the session.
type Reset struct{}

func (Started) isSessionEvent()     {}
func (Succeeded) isSessionEvent()   {}
func (Failed) isSessionEvent()      {}
func (TypeChanged) isSessionEvent() {}
func (SVGUpdated) isSessionEvent()  {}
func (Reset) isSessionEvent()       {}

// Reduce folds one event over the session. Pure: the input is unchanged.
func Reduce(s Session, ev Event) Session {
	switch ev := ev.(type) {
	case Started:
		s.IsUploading = true
		s.Message = nil
		s.IsSuccess = false
		s.FileName = ev.FileName
	case Succeeded:
		s.IsUploading = false
		s.SVGData = ev.SVGData
		s.Graph = ev.Graph
		s.FileName = ev.FileName
		s.Message = &Message{Text: ev.Message, Kind: MessageSuccess}
		s.IsSuccess = true
	case Failed:
		s.IsUploading = false
		s.Message = &Message{Text: ev.Message, Kind: MessageError}
		s.IsSuccess = false
	case TypeChanged:
		s.GraphType = ev.GraphType
	case SVGUpdated:
		s.SVGData = ev.SVGData
	case Reset:
		return NewSession()
	}
	return s
}
