package bundle

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/bundle/compute"
)

// runContext owns every device buffer of one bundling run. Nothing outside
// the run touches them, and all of them are released when the run ends.
type runContext struct {
	backend compute.Backend
	params  Params
	flat    *FlatData
	log     *slog.Logger

	points *DoubleBuffer

	pointTrack     compute.Buffer
	trackOffsets   compute.Buffer
	trackLengths   compute.Buffer
	clusterOffsets compute.Buffer
	clusterLengths compute.Buffer
	clusterTracks  compute.Buffer
	trackCluster   compute.Buffer
	static         []compute.Buffer

	bundleKernel compute.Kernel
	smoothKernel compute.Kernel

	chunks []Chunk
}

// newRunContext uploads flat to the backend and loads both kernels.
func newRunContext(b compute.Backend, p Params, flat *FlatData, log *slog.Logger) (*runContext, error) {
	rc := &runContext{
		backend: b,
		params:  p,
		flat:    flat,
		log:     log,
		chunks:  Chunks(flat.PointCount(), p.BundlingChunkSize),
	}
	if err := rc.upload(); err != nil {
		rc.release()
		return nil, err
	}
	return rc, nil
}

func (rc *runContext) upload() error {
	b, flat := rc.backend, rc.flat
	points, err := NewDoubleBuffer(b, "points", flat.Points, flat.Result)
	if err != nil {
		return fmt.Errorf("upload points: %w", err)
	}
	rc.points = points

	ints := []struct {
		dst   *compute.Buffer
		label string
		data  []int32
	}{
		{&rc.pointTrack, "point_track", flat.PointTrack},
		{&rc.trackOffsets, "track_offsets", flat.TrackOffsets},
		{&rc.trackLengths, "track_lengths", flat.TrackLengths},
		{&rc.clusterOffsets, "cluster_offsets", flat.ClusterOffsets},
		{&rc.clusterLengths, "cluster_lengths", flat.ClusterLengths},
		{&rc.clusterTracks, "cluster_tracks", flat.ClusterTracks},
		{&rc.trackCluster, "track_cluster", flat.TrackCluster},
	}
	for _, in := range ints {
		buf, err := b.NewIntBuffer(in.label, in.data)
		if err != nil {
			return fmt.Errorf("upload %s: %w", in.label, err)
		}
		*in.dst = buf
		rc.static = append(rc.static, buf)
	}

	if rc.bundleKernel, err = b.Kernel(compute.KernelBundle); err != nil {
		return err
	}
	if rc.smoothKernel, err = b.Kernel(compute.KernelSmooth); err != nil {
		return err
	}
	return nil
}

func (rc *runContext) release() {
	if rc.points != nil {
		rc.points.Release()
	}
	for _, buf := range rc.static {
		rc.backend.ReleaseBuffer(buf)
	}
	rc.static = nil
}

// simulate runs BundlingIterations rounds of a bundling pass followed by a
// smoothing pass and returns the final positions.
func (rc *runContext) simulate() ([]float32, error) {
	for round := range rc.params.BundlingIterations {
		if err := rc.pass(rc.bundleKernel, rc.bundleArgs); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		if err := rc.boundary(); err != nil {
			return nil, fmt.Errorf("round %d: bundle boundary: %w", round, err)
		}
		if err := rc.pass(rc.smoothKernel, rc.smoothArgs); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		if err := rc.boundary(); err != nil {
			return nil, fmt.Errorf("round %d: smooth boundary: %w", round, err)
		}
		rc.log.Debug("bundle: round complete", "round", round, "chunks", len(rc.chunks))
	}

	out := make([]float32, len(rc.flat.Points))
	if err := rc.points.Read(out); err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	return out, nil
}

// pass dispatches k over every chunk in order. Each dispatch blocks until
// the device has finished it.
func (rc *runContext) pass(k compute.Kernel, args func(Chunk) []compute.Arg) error {
	for i, ch := range rc.chunks {
		if err := rc.backend.Dispatch(k, ch.Size, args(ch)...); err != nil {
			return fmt.Errorf("%s chunk %d [%d, %d): %w", k.Name(), i, ch.Offset, ch.Offset+ch.Size, err)
		}
		rc.log.Debug("bundle: chunk dispatched", "kernel", k.Name(), "chunk", i, "offset", ch.Offset, "size", ch.Size)
	}
	return nil
}

// boundary makes the freshly written slot authoritative and pre-seeds the
// other slot with it for the next pass.
func (rc *runContext) boundary() error {
	rc.points.Swap()
	return rc.points.Sync()
}

func (rc *runContext) bundleArgs(ch Chunk) []compute.Arg {
	p := rc.params
	return []compute.Arg{
		compute.Buf(rc.points.Current()),
		compute.Buf(rc.points.Next()),
		compute.Buf(rc.trackOffsets),
		compute.Buf(rc.trackLengths),
		compute.Buf(rc.clusterOffsets),
		compute.Buf(rc.clusterLengths),
		compute.Buf(rc.clusterTracks),
		compute.Buf(rc.trackCluster),
		compute.Int(ch.Offset),
		compute.Int(p.BundlingIncludeEndpoints),
		compute.Float(p.BundlingRadius),
		compute.Float(p.BundlingStepsize),
		compute.Float(p.BundlingAngleMin),
		compute.Float(p.BundlingAngleStick),
	}
}

func (rc *runContext) smoothArgs(ch Chunk) []compute.Arg {
	p := rc.params
	return []compute.Arg{
		compute.Buf(rc.points.Current()),
		compute.Buf(rc.points.Next()),
		compute.Buf(rc.pointTrack),
		compute.Buf(rc.trackOffsets),
		compute.Buf(rc.trackLengths),
		compute.Int(ch.Offset),
		compute.Int(p.BundlingIncludeEndpoints),
		compute.Int(p.BundlingSmoothingRadius),
		compute.Float(p.BundlingSmoothingIntensity),
	}
}
