package bundle

import "github.com/gogpu/bundle/compute"

// Option configures an EdgeBundler during creation.
//
// Example:
//
//	// Reproducible clustering on the host backend
//	eb, err := bundle.New(tracks,
//	    bundle.WithParams(params),
//	    bundle.WithSeed(42),
//	    bundle.WithBackendName(compute.BackendSoftware))
type Option func(*options)

// options holds optional configuration for EdgeBundler creation.
type options struct {
	params      Params
	seed        uint64
	seeded      bool
	estimate    bool
	backend     compute.Backend
	backendName string
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		params: DefaultParams(),
		seeded: false, // time-seeded clustering
	}
}

// WithParams replaces the default parameters.
func WithParams(p Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithSeed makes cluster initialization deterministic.
// Engines created with the same seed, parameters and tracks produce the
// same assignment.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRandomSeed seeds cluster initialization from the clock, so repeated
// runs may cluster differently. This is the default; the option exists to
// make the choice explicit and to override an earlier WithSeed.
func WithRandomSeed() Option {
	return func(o *options) {
		o.seeded = false
	}
}

// WithEstimatedParams derives BundlingRadius and NumberOfClusters from the
// input tracks (see Params.Estimated), overriding the values in the
// parameters.
func WithEstimatedParams() Option {
	return func(o *options) {
		o.estimate = true
	}
}

// WithBackend makes runs use b instead of opening one from the registry.
// The engine calls b.Init before each run and leaves closing b to the
// caller.
func WithBackend(b compute.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBackendName makes runs open the named registered backend instead of
// the first available one in priority order.
func WithBackendName(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}
