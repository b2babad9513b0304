package compute

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the host backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
)

// Factory creates a new, uninitialized backend instance.
type Factory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// GPU first, host as the fallback.
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a new backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Open creates and initializes a backend.
//
// With a non-empty name only that backend is tried. With an empty name the
// registered backends are tried in priority order and the first one whose
// Init succeeds is returned; failures along the way are joined into the
// returned error when nothing could be opened.
func Open(name string) (Backend, error) {
	if name != "" {
		b := Get(name)
		if b == nil {
			return nil, fmt.Errorf("%w: %q is not registered", ErrBackendNotAvailable, name)
		}
		if err := b.Init(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
		}
		return b, nil
	}

	var errs []error
	for _, candidate := range candidates() {
		b := Get(candidate)
		if b == nil {
			continue
		}
		if err := b.Init(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		return b, nil
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// candidates returns registered names: priority order first, then the rest
// alphabetically.
func candidates() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool, len(backends))
	out := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
