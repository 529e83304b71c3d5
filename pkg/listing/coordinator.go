// Package listing manages the collection of previously generated graphs:
// refresh, debounced search, and the staleness discipline that keeps
// overlapping network responses from corrupting the displayed state.
package listing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/edviz/edviz/pkg/api"
	"github.com/edviz/edviz/pkg/logging"
)

// Fetcher is the remote listing boundary, satisfied by *api.Client.
type Fetcher interface {
	ListGraphs(ctx context.Context, limit int) ([]api.ListEntry, error)
	SearchGraphs(ctx context.Context, query string, limit int) ([]api.ListEntry, error)
}

// Snapshot is the observable coordinator state. IsLoading stays true only
// until the first fetch ever settles, so later refreshes don't flicker a
// full loading indicator.
type Snapshot struct {
	Items         []api.ListEntry `json:"items"`
	IsLoading     bool            `json:"is_loading"`
	Error         string          `json:"error,omitempty"`
	IsSearching   bool            `json:"is_searching"`
	HasLoadedOnce bool            `json:"has_loaded_once"`
}

// Coordinator owns the listing state. Refresh and Search may overlap in
// flight; every request carries a monotonic generation token and responses
// that are stale by arrival are discarded, never shown and never surfaced
// as errors.
type Coordinator struct {
	fetcher  Fetcher
	limit    int
	debounce time.Duration

	mu            sync.Mutex
	gen           uint64
	items         []api.ListEntry
	err           string
	isSearching   bool
	hasLoadedOnce bool
	timer         *time.Timer
	onUpdate      func(Snapshot)
	closed        bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLimit caps the number of entries fetched per request.
func WithLimit(n int) Option {
	return func(c *Coordinator) { c.limit = n }
}

// WithDebounce sets the quiet period for QueryChanged.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// NewCoordinator creates a coordinator fetching up to 20 entries with a
// 300ms search debounce by default.
func NewCoordinator(f Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{fetcher: f, limit: 20, debounce: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOnUpdate registers a callback invoked with a fresh snapshot whenever a
// non-stale response is applied.
func (c *Coordinator) SetOnUpdate(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Snapshot returns the current observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Items:         c.items,
		IsLoading:     !c.hasLoadedOnce,
		Error:         c.err,
		IsSearching:   c.isSearching,
		HasLoadedOnce: c.hasLoadedOnce,
	}
}

// Refresh fetches the most recent entries without a query.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.fetch(ctx, "", false)
}

// Search fetches entries matching the query. A blank query behaves exactly
// like Refresh.
func (c *Coordinator) Search(ctx context.Context, query string) {
	if strings.TrimSpace(query) == "" {
		c.Refresh(ctx)
		return
	}
	c.fetch(ctx, query, true)
}

// QueryChanged schedules a debounced Search. Each call replaces the pending
// scheduled task; the search fires only after the quiet period elapses
// without further input.
func (c *Coordinator) QueryChanged(ctx context.Context, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.Search(ctx, query)
	})
}

// Close cancels any pending debounced search and stops accepting work.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fetch issues one listing request under a fresh generation token and
// applies the response only if the token is still current on arrival.
func (c *Coordinator) fetch(ctx context.Context, query string, searching bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.isSearching = searching
	c.err = ""
	c.mu.Unlock()

	var (
		items []api.ListEntry
		err   error
	)
	if searching {
		items, err = c.fetcher.SearchGraphs(ctx, query, c.limit)
	} else {
		items, err = c.fetcher.ListGraphs(ctx, c.limit)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		// Superseded, not failed: discarded silently.
		logging.Debug("discarding stale listing response", "generation", gen, "searching", searching)
		return
	}
	c.hasLoadedOnce = true
	if err != nil {
		c.err = err.Error()
		c.items = nil
	} else {
		c.items = items
	}
	snap := c.snapshotLocked()
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
}
