package software

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/bundle/compute"
)

// pointAt reads point i of a flat 4-scalar point buffer.
func pointAt(buf []float32, i int) r3.Vec {
	return r3.Vec{X: float64(buf[4*i]), Y: float64(buf[4*i+1]), Z: float64(buf[4*i+2])}
}

// storePoint writes v into point i, carrying the reserved 4th scalar over
// from src.
func storePoint(dst, src []float32, i int, v r3.Vec) {
	dst[4*i] = float32(v.X)
	dst[4*i+1] = float32(v.Y)
	dst[4*i+2] = float32(v.Z)
	dst[4*i+3] = src[4*i+3]
}

func copyPoint(dst, src []float32, i int) {
	copy(dst[4*i:4*i+4], src[4*i:4*i+4])
}

// tangent is the normalized central difference at p within its track.
func tangent(points []float32, p, start, length int) r3.Vec {
	prev := max(p-1, start)
	next := min(p+1, start+length-1)
	d := r3.Sub(pointAt(points, next), pointAt(points, prev))
	l := r3.Norm(d)
	if l <= 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, d)
}

// findTrack returns the last track whose offset is <= p.
func findTrack(offsets []int32, p int) int {
	return sort.Search(len(offsets), func(t int) bool { return int(offsets[t]) > p }) - 1
}

// chunkRange validates that [offset, offset+n) addresses existing points of
// both point buffers.
func chunkRange(in, out *buffer, offset, n int) error {
	if len(in.f)%4 != 0 || len(in.f) != len(out.f) {
		return fmt.Errorf("%w: point buffers %q (%d) and %q (%d) differ or are not 4-scalar",
			compute.ErrArgument, in.label, len(in.f), out.label, len(out.f))
	}
	if offset < 0 || offset+n > len(in.f)/4 {
		return fmt.Errorf("%w: chunk [%d, %d) outside %d points", compute.ErrArgument, offset, offset+n, len(in.f)/4)
	}
	return nil
}

type bundleArgs struct {
	in, out        []float32
	trackOffsets   []int32
	trackLengths   []int32
	clusterOffsets []int32
	clusterLengths []int32
	clusterTracks  []int32
	trackCluster   []int32

	chunkOffset      int
	includeEndpoints bool
	radius           float64
	stepsize         float64
	angleMin         float64
	angleStick       float64
}

func runBundle(bufs []*buffer, scalars []compute.Arg, n int) (func(lo, hi int), error) {
	s := func(i int) compute.Arg { return scalars[i-compute.BundleChunkOffset] }
	a := &bundleArgs{
		in:               bufs[compute.BundleIn].f,
		out:              bufs[compute.BundleOut].f,
		trackOffsets:     bufs[compute.BundleTrackOffsets].i,
		trackLengths:     bufs[compute.BundleTrackLengths].i,
		clusterOffsets:   bufs[compute.BundleClusterOffsets].i,
		clusterLengths:   bufs[compute.BundleClusterLengths].i,
		clusterTracks:    bufs[compute.BundleClusterTracks].i,
		trackCluster:     bufs[compute.BundleTrackCluster].i,
		chunkOffset:      int(s(compute.BundleChunkOffset).Int),
		includeEndpoints: s(compute.BundleIncludeEndpoints).Int != 0,
		radius:           float64(s(compute.BundleRadius).Float),
		stepsize:         float64(s(compute.BundleStepsize).Float),
		angleMin:         float64(s(compute.BundleAngleMin).Float),
		angleStick:       float64(s(compute.BundleAngleStick).Float),
	}
	if err := chunkRange(bufs[compute.BundleIn], bufs[compute.BundleOut], a.chunkOffset, n); err != nil {
		return nil, err
	}
	if len(a.trackOffsets) != len(a.trackLengths) || len(a.trackOffsets) != len(a.trackCluster) {
		return nil, fmt.Errorf("%w: per-track buffers disagree on track count", compute.ErrArgument)
	}
	if len(a.clusterOffsets) != len(a.clusterLengths) {
		return nil, fmt.Errorf("%w: per-cluster buffers disagree on cluster count", compute.ErrArgument)
	}
	return func(lo, hi int) {
		for gid := lo; gid < hi; gid++ {
			a.invoke(a.chunkOffset + gid)
		}
	}, nil
}

// invoke is the host port of the bundle kernel's main for global point p.
func (a *bundleArgs) invoke(p int) {
	t := findTrack(a.trackOffsets, p)
	start := int(a.trackOffsets[t])
	length := int(a.trackLengths[t])
	if !a.includeEndpoints && (p == start || p == start+length-1) {
		copyPoint(a.out, a.in, p)
		return
	}

	pos := pointAt(a.in, p)
	dir := tangent(a.in, p, start, length)
	c := int(a.trackCluster[t])
	cStart := int(a.clusterOffsets[c])
	cLen := int(a.clusterLengths[c])

	var force r3.Vec
	weightSum := 0.0
	for m := 0; m < cLen; m++ {
		u := int(a.clusterTracks[cStart+m])
		if u == t {
			continue
		}
		uStart := int(a.trackOffsets[u])
		uLen := int(a.trackLengths[u])

		best, bestDist := -1, a.radius
		for k := 0; k < uLen; k++ {
			q := uStart + k
			if d := r3.Norm(r3.Sub(pointAt(a.in, q), pos)); d < bestDist {
				best, bestDist = q, d
			}
		}
		if best < 0 {
			continue
		}

		alignment := r3.Dot(dir, tangent(a.in, best, uStart, uLen))
		if alignment < 0 {
			alignment = -alignment
		}
		if alignment < a.angleMin {
			continue
		}
		stick := 1.0
		if a.angleMin < 1 {
			f := min(max((alignment-a.angleMin)/(1-a.angleMin), 0), 1)
			stick = a.angleStick + (1-a.angleStick)*f
		}
		w := (1 - bestDist/a.radius) * stick
		force = r3.Add(force, r3.Scale(w, r3.Sub(pointAt(a.in, best), pos)))
		weightSum += w
	}

	if weightSum <= 0 {
		copyPoint(a.out, a.in, p)
		return
	}
	storePoint(a.out, a.in, p, r3.Add(pos, r3.Scale(a.stepsize/weightSum, force)))
}

type smoothArgs struct {
	in, out      []float32
	pointTrack   []int32
	trackOffsets []int32
	trackLengths []int32

	chunkOffset      int
	includeEndpoints bool
	radius           int
	intensity        float64
}

func runSmooth(bufs []*buffer, scalars []compute.Arg, n int) (func(lo, hi int), error) {
	s := func(i int) compute.Arg { return scalars[i-compute.SmoothChunkOffset] }
	a := &smoothArgs{
		in:               bufs[compute.SmoothIn].f,
		out:              bufs[compute.SmoothOut].f,
		pointTrack:       bufs[compute.SmoothPointTrack].i,
		trackOffsets:     bufs[compute.SmoothTrackOffsets].i,
		trackLengths:     bufs[compute.SmoothTrackLengths].i,
		chunkOffset:      int(s(compute.SmoothChunkOffset).Int),
		includeEndpoints: s(compute.SmoothIncludeEndpoints).Int != 0,
		radius:           int(s(compute.SmoothRadius).Int),
		intensity:        float64(s(compute.SmoothIntensity).Float),
	}
	if err := chunkRange(bufs[compute.SmoothIn], bufs[compute.SmoothOut], a.chunkOffset, n); err != nil {
		return nil, err
	}
	if len(a.pointTrack) != len(a.in)/4 {
		return nil, fmt.Errorf("%w: point_track has %d entries for %d points", compute.ErrArgument, len(a.pointTrack), len(a.in)/4)
	}
	return func(lo, hi int) {
		for gid := lo; gid < hi; gid++ {
			a.invoke(a.chunkOffset + gid)
		}
	}, nil
}

// invoke is the host port of the smooth kernel's main for global point p.
func (a *smoothArgs) invoke(p int) {
	t := int(a.pointTrack[p])
	start := int(a.trackOffsets[t])
	length := int(a.trackLengths[t])
	k := p - start
	if !a.includeEndpoints && (k == 0 || k == length-1) {
		copyPoint(a.out, a.in, p)
		return
	}

	lo := max(k-a.radius, 0)
	hi := min(k+a.radius, length-1)
	var sum r3.Vec
	for j := lo; j <= hi; j++ {
		sum = r3.Add(sum, pointAt(a.in, start+j))
	}
	mean := r3.Scale(1/float64(hi-lo+1), sum)

	pos := pointAt(a.in, p)
	blended := r3.Add(r3.Scale(1-a.intensity, pos), r3.Scale(a.intensity, mean))
	storePoint(a.out, a.in, p, blended)
}
