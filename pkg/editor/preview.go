package editor

import (
	"fmt"

	"github.com/edviz/edviz/pkg/model"
)

// PreviewEdge describes one link that a node removal would cascade-delete,
// with endpoint names resolved for display.
type PreviewEdge struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// RemovalPreview is the cascade impact of removing a node, computed without
// mutating anything. It is presented before a remove-node submission.
type RemovalPreview struct {
	NodeName string        `json:"node_name"`
	Incoming []PreviewEdge `json:"incoming"`
	Outgoing []PreviewEdge `json:"outgoing"`
}

// PreviewRemoval lists every link that removing the node would delete.
func (c *Controller) PreviewRemoval(id string) (RemovalPreview, error) {
	g := c.Graph()

	node, ok := g.FindNode(id)
	if !ok {
		return RemovalPreview{}, &ValidationError{Msg: fmt.Sprintf("unknown node: %q", id)}
	}

	preview := RemovalPreview{
		NodeName: node.DisplayName(),
		Incoming: []PreviewEdge{},
		Outgoing: []PreviewEdge{},
	}
	for _, l := range g.Links {
		if l.Target == id {
			preview.Incoming = append(preview.Incoming, PreviewEdge{
				Type:   l.LinkLabel(),
				Source: nodeName(g, l.Source),
				Target: node.DisplayName(),
			})
		}
		if l.Source == id {
			preview.Outgoing = append(preview.Outgoing, PreviewEdge{
				Type:   l.LinkLabel(),
				Source: node.DisplayName(),
				Target: nodeName(g, l.Target),
			})
		}
	}
	return preview, nil
}

func nodeName(g model.Graph, id string) string {
	if n, ok := g.FindNode(id); ok {
		return n.DisplayName()
	}
	return id
}
