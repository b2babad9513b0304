package bundle

import "fmt"

// FlatData is the flat, index-based form of a track set and its cluster
// assignment that the compute kernels operate on.
//
// Points and Result hold 4 scalars per point (x, y, z, reserved zero).
// Result starts as a copy of Points so a point no kernel invocation touches
// still holds a valid position.
type FlatData struct {
	Points []float32
	Result []float32

	// PointTrack is the owning track of every point.
	PointTrack []int32

	// TrackOffsets and TrackLengths locate each track's points.
	TrackOffsets []int32
	TrackLengths []int32

	// ClusterOffsets and ClusterLengths locate each cluster's members in
	// ClusterTracks.
	ClusterOffsets []int32
	ClusterLengths []int32
	ClusterTracks  []int32

	// TrackCluster is the inverse of ClusterTracks.
	TrackCluster []int32
}

// forEachPoint is the canonical traversal shared by Flatten and Unflatten:
// tracks in ascending order, points in ascending order within a track. idx
// is the point's global index.
func forEachPoint(tracks []Track, fn func(t, k, idx int)) {
	idx := 0
	for t, track := range tracks {
		for k := range track {
			fn(t, k, idx)
			idx++
		}
	}
}

// Flatten converts tracks and their assignment into flat buffers.
func Flatten(tracks []Track, a *Assignment) (*FlatData, error) {
	if a == nil || a.Tracks() != len(tracks) {
		got := 0
		if a != nil {
			got = a.Tracks()
		}
		return nil, fmt.Errorf("%w: assignment covers %d tracks, have %d", ErrFlatMismatch, got, len(tracks))
	}

	total := 0
	for _, t := range tracks {
		total += len(t)
	}
	f := &FlatData{
		Points:       make([]float32, 4*total),
		PointTrack:   make([]int32, total),
		TrackOffsets: make([]int32, len(tracks)),
		TrackLengths: make([]int32, len(tracks)),
	}

	offset := 0
	for t, track := range tracks {
		f.TrackOffsets[t] = int32(offset)     //nolint:gosec // point counts fit int32 on device
		f.TrackLengths[t] = int32(len(track)) //nolint:gosec // point counts fit int32 on device
		offset += len(track)
	}
	forEachPoint(tracks, func(t, k, idx int) {
		p := tracks[t][k]
		f.Points[4*idx] = p.X
		f.Points[4*idx+1] = p.Y
		f.Points[4*idx+2] = p.Z
		f.PointTrack[idx] = int32(t) //nolint:gosec // track counts fit int32 on device
	})
	f.Result = append([]float32(nil), f.Points...)

	clusters := a.Clusters()
	f.ClusterOffsets = make([]int32, clusters)
	f.ClusterLengths = make([]int32, clusters)
	f.ClusterTracks = make([]int32, 0, len(tracks))
	f.TrackCluster = make([]int32, len(tracks))
	for c := range clusters {
		f.ClusterOffsets[c] = int32(len(f.ClusterTracks)) //nolint:gosec // track counts fit int32 on device
		for _, t := range a.clusterTracks[c] {
			f.ClusterTracks = append(f.ClusterTracks, int32(t)) //nolint:gosec // track counts fit int32 on device
		}
		f.ClusterLengths[c] = int32(len(f.ClusterTracks)) - f.ClusterOffsets[c]
	}
	for t := range tracks {
		f.TrackCluster[t] = int32(a.ClusterOf(t)) //nolint:gosec // cluster counts fit int32 on device
	}
	return f, nil
}

// PointCount returns the number of points.
func (f *FlatData) PointCount() int { return len(f.PointTrack) }

// TrackCount returns the number of tracks.
func (f *FlatData) TrackCount() int { return len(f.TrackOffsets) }

// ClusterCount returns the number of clusters.
func (f *FlatData) ClusterCount() int { return len(f.ClusterOffsets) }

// Validate checks the structural invariants: track lengths sum to the point
// count, cluster lengths sum to the track count, offsets are prefix sums of
// the lengths, and the cluster grouping agrees with TrackCluster.
func (f *FlatData) Validate() error {
	points := f.PointCount()
	if len(f.Points) != 4*points || len(f.Result) != 4*points {
		return fmt.Errorf("%w: %d point scalars and %d result scalars for %d points",
			ErrFlatMismatch, len(f.Points), len(f.Result), points)
	}
	if len(f.TrackLengths) != len(f.TrackOffsets) || len(f.TrackCluster) != len(f.TrackOffsets) {
		return fmt.Errorf("%w: per-track arrays differ in length", ErrFlatMismatch)
	}
	if len(f.ClusterLengths) != len(f.ClusterOffsets) {
		return fmt.Errorf("%w: per-cluster arrays differ in length", ErrFlatMismatch)
	}
	if err := checkPrefixSums(f.TrackOffsets, f.TrackLengths, points); err != nil {
		return fmt.Errorf("%w: tracks: %w", ErrFlatMismatch, err)
	}
	if err := checkPrefixSums(f.ClusterOffsets, f.ClusterLengths, f.TrackCount()); err != nil {
		return fmt.Errorf("%w: clusters: %w", ErrFlatMismatch, err)
	}
	if len(f.ClusterTracks) != f.TrackCount() {
		return fmt.Errorf("%w: %d cluster members for %d tracks", ErrFlatMismatch, len(f.ClusterTracks), f.TrackCount())
	}
	for c := range f.ClusterOffsets {
		start := f.ClusterOffsets[c]
		for _, t := range f.ClusterTracks[start : start+f.ClusterLengths[c]] {
			if t < 0 || int(t) >= f.TrackCount() || int(f.TrackCluster[t]) != c {
				return fmt.Errorf("%w: cluster %d lists track %d", ErrFlatMismatch, c, t)
			}
		}
	}
	for t, off := range f.TrackOffsets {
		for k := off; k < off+f.TrackLengths[t]; k++ {
			if int(f.PointTrack[k]) != t {
				return fmt.Errorf("%w: point %d owned by track %d, want %d", ErrFlatMismatch, k, f.PointTrack[k], t)
			}
		}
	}
	return nil
}

func checkPrefixSums(offsets, lengths []int32, total int) error {
	sum := 0
	for i := range offsets {
		if int(offsets[i]) != sum {
			return fmt.Errorf("offset %d is %d, want %d", i, offsets[i], sum)
		}
		if lengths[i] < 0 {
			return fmt.Errorf("length %d is negative", i)
		}
		sum += int(lengths[i])
	}
	if sum != total {
		return fmt.Errorf("lengths sum to %d, want %d", sum, total)
	}
	return nil
}

// Unflatten writes the positions in result (4 scalars per point, the 4th
// ignored) back into tracks, in the same order Flatten read them. Attributes
// are left untouched. tracks must have the shape the data was flattened
// from.
func (f *FlatData) Unflatten(result []float32, tracks []Track) error {
	if len(tracks) != f.TrackCount() {
		return fmt.Errorf("%w: %d tracks, flattened %d", ErrFlatMismatch, len(tracks), f.TrackCount())
	}
	for t, track := range tracks {
		if len(track) != int(f.TrackLengths[t]) {
			return fmt.Errorf("%w: track %d has %d points, flattened %d", ErrFlatMismatch, t, len(track), f.TrackLengths[t])
		}
	}
	if len(result) != 4*f.PointCount() {
		return fmt.Errorf("%w: result has %d scalars, want %d", ErrFlatMismatch, len(result), 4*f.PointCount())
	}
	forEachPoint(tracks, func(t, k, idx int) {
		p := &tracks[t][k]
		p.X = result[4*idx]
		p.Y = result[4*idx+1]
		p.Z = result[4*idx+2]
	})
	return nil
}
