package bundle

import "fmt"

// TrackStore holds the two parallel track sets of an engine: the original
// snapshot taken right after resampling and the bundled set that the
// simulation overwrites. Both always have the same track count and per-track
// point count.
type TrackStore struct {
	original []Track
	bundled  []Track
}

// NewTrackStore validates tracks, resamples each to resampleTo points (a
// no-op below 2) and snapshots the result as both original and bundled.
func NewTrackStore(tracks []Track, resampleTo int) (*TrackStore, error) {
	for i, t := range tracks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("bundle: track %d: %w", i, err)
		}
	}
	resampled, err := ResampleAll(tracks, resampleTo)
	if err != nil {
		return nil, err
	}
	if resampleTo < 2 {
		// Resample returned the caller's slices.
		resampled = cloneTracks(resampled)
	}
	return &TrackStore{
		original: resampled,
		bundled:  cloneTracks(resampled),
	}, nil
}

// Len returns the number of tracks.
func (s *TrackStore) Len() int { return len(s.original) }

// PointCount returns the total number of points of one track set.
func (s *TrackStore) PointCount() int {
	n := 0
	for _, t := range s.original {
		n += len(t)
	}
	return n
}

// Original returns the original track set. Callers must not modify it.
func (s *TrackStore) Original() []Track { return s.original }

// Bundled returns the bundled track set. Callers must not modify it.
func (s *TrackStore) Bundled() []Track { return s.bundled }

// Reset discards bundling progress by restoring the bundled set from the
// original snapshot.
func (s *TrackStore) Reset() {
	s.bundled = cloneTracks(s.original)
}

// apply unflattens a simulation result into the bundled set. It is the only
// path through which the bundled tracks change.
func (s *TrackStore) apply(flat *FlatData, result []float32) error {
	return flat.Unflatten(result, s.bundled)
}
