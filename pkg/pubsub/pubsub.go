package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names published by the edviz server.
const (
	TopicUploadStatus = "upload_status" // upload progress and outcome
	TopicDiagram      = "diagram"       // re-rendered diagram SVG after edits
	TopicGraphs       = "graphs"        // listing snapshots (refresh/search)
	TopicHistory      = "history"       // exported files on disk changed
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "diagram", "graphs")
	Type    string          `json:"type"`    // Event type (e.g., "started", "succeeded", "updated")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// DiagramUpdate carries a freshly rendered diagram to subscribers.
type DiagramUpdate struct {
	SVG string `json:"svg"`
}

// HistoryChange reports which exported files changed on disk.
type HistoryChange struct {
	Paths []string `json:"paths"`
}
