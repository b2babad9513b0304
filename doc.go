// Package bundle provides a GPU edge-bundling engine for 3D trajectories.
//
// # Overview
//
// A set of tracks (ordered 3D point sequences) is resampled to a common
// length, grouped with QuickBundles, and iteratively pulled toward shared
// corridors by a magnetic-attraction simulation that runs on a compute
// backend. The engine returns the bundled tracks next to the originals,
// together with the track to cluster mapping.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/bundle"
//	    _ "github.com/gogpu/bundle/compute/software"
//	)
//
//	eb, err := bundle.New(tracks, bundle.WithSeed(1))
//	if err != nil {
//	    return err
//	}
//	if !eb.Run() {
//	    // backend missing or simulation failed; tracks are unchanged
//	}
//	for _, p := range eb.Result().Pairs() {
//	    draw(p.Bundled, p.Original)
//	}
//
// # Pipeline
//
// raw tracks → [Track.Resample] → [Clusterer] → [Flatten] → chunked
// bundle/smooth passes on a [compute.Backend] → [FlatData.Unflatten] →
// [Result].
//
// Every pass is split into chunks of at most Params.BundlingChunkSize points
// so no single kernel invocation runs long enough to trip a device watchdog.
// Each chunk reads one slot of a [DoubleBuffer] and writes the other; at
// every phase boundary the slots swap and the result is copied back so both
// slots hold the authoritative positions.
//
// # Backends
//
// The orchestrator only talks to [compute.Backend]. Import
// github.com/gogpu/bundle/compute/wgpu for Vulkan and
// github.com/gogpu/bundle/compute/software for the host fallback; with no
// explicit choice the registry's priority order is used.
//
// # Logging
//
// The package is silent by default. See [SetLogger].
package bundle
