package watcher

import (
	"context"
	"time"

	"github.com/edviz/edviz/pkg/logging"
)

// Debouncer batches rapid export-directory events so a burst of file writes
// triggers one history reload instead of many
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run accumulates events until the input goes quiet for quietPeriod, or
// maxWait elapses since the first accumulated event, whichever comes first.
// Everything happens on this goroutine; the timers only signal it.
func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       *time.Timer
		maxWait     *time.Timer
		quietC      <-chan time.Time
		maxWaitC    <-chan time.Time
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)

	flush := func() {
		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated export events", "count", eventCount)

		// Removals first so a rename (remove + create) ends with the file
		// present in the reloaded history.
		if paths := dedupe(accumulated[ChangeTypeRemoved]); len(paths) > 0 {
			d.output <- ChangeEvent{
				Type:      ChangeTypeRemoved,
				Paths:     paths,
				Timestamp: time.Now(),
			}
		}
		if paths := dedupe(accumulated[ChangeTypeExported]); len(paths) > 0 {
			d.output <- ChangeEvent{
				Type:      ChangeTypeExported,
				Paths:     paths,
				Timestamp: time.Now(),
			}
		}

		accumulated = make(map[ChangeType][]string)
		eventCount = 0

		if quiet != nil {
			quiet.Stop()
		}
		if maxWait != nil {
			maxWait.Stop()
		}
		quietC, maxWaitC = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			eventCount++

			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}
			quietC = quiet.C

			if maxWaitC == nil {
				if maxWait == nil {
					maxWait = time.NewTimer(d.maxWait)
				} else {
					if !maxWait.Stop() {
						select {
						case <-maxWait.C:
						default:
						}
					}
					maxWait.Reset(d.maxWait)
				}
				maxWaitC = maxWait.C
			}

		case <-quietC:
			flush()

		case <-maxWaitC:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

// dedupe removes repeated paths while preserving first-seen order.
func dedupe(paths []string) []string {
	if len(paths) < 2 {
		return paths
	}
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
