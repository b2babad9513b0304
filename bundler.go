package bundle

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gogpu/bundle/compute"
)

// EdgeBundler is the edge-bundling engine for one track set.
//
// New resamples and clusters the tracks once. Every run then flattens the
// current bundled tracks, executes the bundle/smooth rounds on a compute
// backend and, only if the whole run succeeded, writes the result back.
// Runs are serialized; an EdgeBundler is safe for concurrent use.
type EdgeBundler struct {
	mu         sync.Mutex
	opts       options
	params     Params
	store      *TrackStore
	assignment *Assignment
}

// New creates an engine for tracks. It validates the parameters, resamples
// every track to Params.ResampleTo points and runs QuickBundles.
func New(tracks []Track, opts ...Option) (*EdgeBundler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	params := o.params
	if o.estimate {
		params = params.Estimated(tracks)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	store, err := NewTrackStore(tracks, params.ResampleTo)
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if o.seeded {
		rng = newSeededRNG(o.seed)
	}
	clusterer := NewClusterer(params.NumberOfClusters, params.ClusteringTrackSize, params.ClusteringIterations, rng)
	assignment, err := clusterer.Cluster(store.Original())
	if err != nil {
		return nil, err
	}
	Logger().Info("bundle: tracks clustered",
		"tracks", store.Len(), "points", store.PointCount(), "clusters", assignment.Clusters())

	return &EdgeBundler{
		opts:       o,
		params:     params,
		store:      store,
		assignment: assignment,
	}, nil
}

// Params returns the effective parameters.
func (e *EdgeBundler) Params() Params { return e.params }

// Assignment returns the cluster assignment computed by New.
func (e *EdgeBundler) Assignment() *Assignment { return e.assignment }

// Bundle runs the simulation once.
//
// It returns an error wrapping ErrBackendUnavailable when no compute backend
// could be opened and ErrSimulation when the backend failed during the run.
// In both cases the bundled tracks are left unchanged.
func (e *EdgeBundler) Bundle() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := Logger()
	backend, owned, err := e.openBackend()
	if err != nil {
		log.Warn("bundle: compute backend unavailable", "err", err)
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if owned {
		defer backend.Close()
	}
	propagateLogger(backend, log)
	log.Info("bundle: run started", "backend", backend.Name(), "iterations", e.params.BundlingIterations)

	start := time.Now()
	flat, result, err := e.simulate(backend)
	if err != nil {
		log.Error("bundle: simulation failed", "backend", backend.Name(), "err", err)
		return fmt.Errorf("%w: %w", ErrSimulation, err)
	}
	if err := e.store.apply(flat, result); err != nil {
		log.Error("bundle: applying result failed", "err", err)
		return fmt.Errorf("%w: %w", ErrSimulation, err)
	}
	log.Info("bundle: run complete", "backend", backend.Name(), "elapsed", time.Since(start))
	return nil
}

// Run runs the simulation once and reports whether it succeeded. Failures
// are logged; use Bundle to inspect them.
func (e *EdgeBundler) Run() bool {
	return e.Bundle() == nil
}

// RunAsync runs Bundle on a new goroutine. The returned channel receives
// its result and is then closed.
func (e *EdgeBundler) RunAsync() <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- e.Bundle()
	}()
	return ch
}

// Reset restores the bundled tracks to the originals.
func (e *EdgeBundler) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Reset()
}

// Result returns a snapshot of the bundled and original tracks and the
// cluster assignment.
func (e *EdgeBundler) Result() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &Result{
		bundled:    cloneTracks(e.store.Bundled()),
		original:   cloneTracks(e.store.Original()),
		assignment: e.assignment,
	}
}

// openBackend returns an initialized backend and whether the engine owns it.
func (e *EdgeBundler) openBackend() (compute.Backend, bool, error) {
	if b := e.opts.backend; b != nil {
		if err := b.Init(); err != nil {
			return nil, false, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return b, false, nil
	}
	b, err := compute.Open(e.opts.backendName)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// simulate flattens the bundled tracks and runs every round on b.
func (e *EdgeBundler) simulate(b compute.Backend) (*FlatData, []float32, error) {
	flat, err := Flatten(e.store.Bundled(), e.assignment)
	if err != nil {
		return nil, nil, err
	}
	rc, err := newRunContext(b, e.params, flat, Logger())
	if err != nil {
		return nil, nil, err
	}
	defer rc.release()

	result, err := rc.simulate()
	if err != nil {
		return nil, nil, err
	}
	return flat, result, nil
}
