// Package pipeline dispatches splitter.Tuple values to a bounded pool of
// VT-rendering workers and appends the resulting snapshots to a store in
// strict arrival order, matching spec.md §5's total-ordering guarantee.
// The fan-out/ordered-fan-in shape follows the teacher's habit of pairing
// goroutines with plain channels for internal plumbing (see
// internal/overlay.Run's resize/output goroutines) rather than reaching
// for a worker-pool library: nothing in the retrieval pack wraps this
// pattern in a dependency, and the standard library's channels are
// already the idiom the teacher uses for it.
package pipeline

import (
	"time"

	"betterhist/internal/snapshot"
	"betterhist/internal/splitter"
	"betterhist/internal/vtrender"
)

// Pipeline renders captured tuples and appends them to a Store.
type Pipeline struct {
	Store *snapshot.Store
	// Workers bounds the number of concurrent VT renders in flight.
	Workers int
	// Now returns the current time as Unix seconds; overridable in tests.
	Now func() float64
	// Geometry returns the current terminal size to render against; it is
	// consulted once per tuple, so a session can let it track live
	// SIGWINCH-driven resizes without the pipeline knowing about signals.
	Geometry func() (columns, lines int)
	// RenderFunc renders one tuple into a Snapshot. Defaults to the
	// pipeline's own VT-rendering step; overridable in tests to simulate
	// workers completing out of submission order.
	RenderFunc func(splitter.Tuple) snapshot.Snapshot
}

// New constructs a Pipeline with a fixed geometry and sane defaults.
func New(store *snapshot.Store, columns, lines, workers int) *Pipeline {
	return NewWithGeometry(store, func() (int, int) { return columns, lines }, workers)
}

// NewWithGeometry constructs a Pipeline whose render geometry is read
// from geometry on every tuple, for sessions where the terminal can be
// resized mid-session.
func NewWithGeometry(store *snapshot.Store, geometry func() (int, int), workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	p := &Pipeline{
		Store:    store,
		Workers:  workers,
		Now:      func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		Geometry: geometry,
	}
	p.RenderFunc = p.render
	return p
}

// Run consumes tuples from in until it is closed, rendering each through
// the configured worker pool and appending the resulting snapshots to the
// store in the same order the tuples arrived — even though the renders
// themselves run concurrently. It returns the first store-append error
// encountered, if any, after draining in-flight work.
func (p *Pipeline) Run(in <-chan splitter.Tuple) error {
	sem := make(chan struct{}, p.Workers)
	order := make(chan chan snapshot.Snapshot, p.Workers*2+1)

	go func() {
		defer close(order)
		for tuple := range in {
			resultCh := make(chan snapshot.Snapshot, 1)
			order <- resultCh

			sem <- struct{}{}
			go func(t splitter.Tuple, rc chan snapshot.Snapshot) {
				defer func() { <-sem }()
				rc <- p.RenderFunc(t)
			}(tuple, resultCh)
		}
	}()

	var firstErr error
	for resultCh := range order {
		snap := <-resultCh
		if firstErr != nil {
			continue
		}
		if _, err := p.Store.Append(snap); err != nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Pipeline) render(t splitter.Tuple) snapshot.Snapshot {
	columns, lines := p.Geometry()
	return snapshot.Snapshot{
		Timestamp:   p.Now(),
		Columns:     columns,
		Lines:       lines,
		UserView:    vtrender.Render(t.UserBytes, columns, lines),
		CommandView: vtrender.Render(t.CommandBytes, columns, lines),
	}
}
