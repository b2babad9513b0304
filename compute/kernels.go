package compute

import "fmt"

// Kernel names shared by all backends.
const (
	// KernelBundle moves every point of a chunk toward the nearest points of
	// the other tracks in its cluster.
	KernelBundle = "bundle"

	// KernelSmooth blends every point of a chunk with the window mean of its
	// own track.
	KernelSmooth = "smooth"
)

// BufferSlot describes one buffer binding of a kernel.
type BufferSlot struct {
	Name     string
	Kind     ElementKind
	Writable bool
}

// ScalarSlot describes one scalar argument of a kernel.
type ScalarSlot struct {
	Name string
	Kind ArgKind
}

// Layout is the ordered argument list of a kernel: buffers first, then
// scalars. GPU backends bind buffers at @binding(i) in this order and pack
// the scalars, in order, after a leading work-item count into one uniform
// block at @binding(len(Buffers)).
type Layout struct {
	Name    string
	Buffers []BufferSlot
	Scalars []ScalarSlot
}

// Arity returns the total number of arguments.
func (l Layout) Arity() int { return len(l.Buffers) + len(l.Scalars) }

// Check validates args against the layout.
func (l Layout) Check(args []Arg) error {
	if len(args) != l.Arity() {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgument, l.Name, l.Arity(), len(args))
	}
	for i, slot := range l.Buffers {
		a := args[i]
		if a.Kind != ArgBuffer || a.Buffer == nil {
			return fmt.Errorf("%w: %s argument %d (%s) must be a buffer, got %s", ErrArgument, l.Name, i, slot.Name, a.Kind)
		}
		if a.Buffer.Kind() != slot.Kind {
			return fmt.Errorf("%w: %s argument %d (%s) must hold %s, got %s",
				ErrArgument, l.Name, i, slot.Name, slot.Kind, a.Buffer.Kind())
		}
	}
	for j, slot := range l.Scalars {
		i := len(l.Buffers) + j
		if args[i].Kind != slot.Kind {
			return fmt.Errorf("%w: %s argument %d (%s) must be %s, got %s",
				ErrArgument, l.Name, i, slot.Name, slot.Kind, args[i].Kind)
		}
	}
	return nil
}

// Bundle kernel argument indices.
const (
	BundleIn = iota
	BundleOut
	BundleTrackOffsets
	BundleTrackLengths
	BundleClusterOffsets
	BundleClusterLengths
	BundleClusterTracks
	BundleTrackCluster
	BundleChunkOffset
	BundleIncludeEndpoints
	BundleRadius
	BundleStepsize
	BundleAngleMin
	BundleAngleStick
)

// BundleLayout is the argument layout of KernelBundle.
//
// The kernel resolves a point's track by binary search over the track
// offsets, which keeps it at eight storage bindings, the WebGPU default
// per-stage limit.
var BundleLayout = Layout{
	Name: KernelBundle,
	Buffers: []BufferSlot{
		{Name: "points_in", Kind: Float32},
		{Name: "points_out", Kind: Float32, Writable: true},
		{Name: "track_offsets", Kind: Int32},
		{Name: "track_lengths", Kind: Int32},
		{Name: "cluster_offsets", Kind: Int32},
		{Name: "cluster_lengths", Kind: Int32},
		{Name: "cluster_tracks", Kind: Int32},
		{Name: "track_cluster", Kind: Int32},
	},
	Scalars: []ScalarSlot{
		{Name: "chunk_offset", Kind: ArgInt},
		{Name: "include_endpoints", Kind: ArgInt},
		{Name: "radius", Kind: ArgFloat},
		{Name: "stepsize", Kind: ArgFloat},
		{Name: "angle_min", Kind: ArgFloat},
		{Name: "angle_stick", Kind: ArgFloat},
	},
}

// Smooth kernel argument indices.
const (
	SmoothIn = iota
	SmoothOut
	SmoothPointTrack
	SmoothTrackOffsets
	SmoothTrackLengths
	SmoothChunkOffset
	SmoothIncludeEndpoints
	SmoothRadius
	SmoothIntensity
)

// SmoothLayout is the argument layout of KernelSmooth.
var SmoothLayout = Layout{
	Name: KernelSmooth,
	Buffers: []BufferSlot{
		{Name: "points_in", Kind: Float32},
		{Name: "points_out", Kind: Float32, Writable: true},
		{Name: "point_track", Kind: Int32},
		{Name: "track_offsets", Kind: Int32},
		{Name: "track_lengths", Kind: Int32},
	},
	Scalars: []ScalarSlot{
		{Name: "chunk_offset", Kind: ArgInt},
		{Name: "include_endpoints", Kind: ArgInt},
		{Name: "radius", Kind: ArgInt},
		{Name: "intensity", Kind: ArgFloat},
	},
}

// LayoutFor returns the layout of a built-in kernel.
func LayoutFor(name string) (Layout, bool) {
	switch name {
	case KernelBundle:
		return BundleLayout, true
	case KernelSmooth:
		return SmoothLayout, true
	default:
		return Layout{}, false
	}
}
