package bundle

import (
	"testing"

	"github.com/gogpu/bundle/compute"
)

func applyOptions(opts ...Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TestNewDefaultOptions tests that New uses default parameters and an
// unseeded clusterer.
func TestNewDefaultOptions(t *testing.T) {
	eb, err := New(parallelLines(2, 8, 1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if eb.Params() != DefaultParams() {
		t.Errorf("Params() = %+v, want defaults", eb.Params())
	}
	if eb.opts.seeded {
		t.Error("default options are seeded, want time-seeded")
	}
	if eb.opts.backend != nil || eb.opts.backendName != "" {
		t.Error("default options select a backend, want registry priority order")
	}
}

// TestWithBackend tests dependency injection of a compute backend.
func TestWithBackend(t *testing.T) {
	backend := newSoftware()
	defer backend.Close()

	o := applyOptions(WithBackend(backend))
	if o.backend != backend {
		t.Error("backend is not the injected backend")
	}

	eb, err := New(parallelLines(2, 8, 1), WithBackend(backend), WithSeed(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := eb.Bundle(); err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}
	// The engine leaves an injected backend open.
	if _, err := backend.Kernel(compute.KernelBundle); err != nil {
		t.Errorf("injected backend closed after run: %v", err)
	}
}

// TestWithSeed tests that WithRandomSeed overrides an earlier WithSeed.
func TestWithSeed(t *testing.T) {
	o := applyOptions(WithSeed(99))
	if !o.seeded || o.seed != 99 {
		t.Errorf("WithSeed(99) = seeded %v seed %d", o.seeded, o.seed)
	}
	o = applyOptions(WithSeed(99), WithRandomSeed())
	if o.seeded {
		t.Error("WithRandomSeed() did not clear the seed")
	}
}

// TestMultipleOptions tests that options compose and later ones win.
func TestMultipleOptions(t *testing.T) {
	p := DefaultParams()
	p.BundlingIterations = 3
	o := applyOptions(
		WithParams(DefaultParams()),
		WithParams(p),
		WithEstimatedParams(),
		WithBackendName(compute.BackendSoftware),
	)
	if o.params.BundlingIterations != 3 {
		t.Errorf("BundlingIterations = %d, want 3", o.params.BundlingIterations)
	}
	if !o.estimate {
		t.Error("WithEstimatedParams() not applied")
	}
	if o.backendName != compute.BackendSoftware {
		t.Errorf("backendName = %q, want %q", o.backendName, compute.BackendSoftware)
	}
}
