package bundle

import (
	"fmt"
	"math"
)

// Track is an ordered sequence of points representing one trajectory.
type Track []Point

// Len returns the number of points.
func (t Track) Len() int { return len(t) }

// Attributes returns the attribute count of the track's points.
func (t Track) Attributes() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0].Attributes)
}

// Validate checks that the track is non-empty and that every point carries
// the same number of attributes.
func (t Track) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTrack
	}
	want := len(t[0].Attributes)
	for i, p := range t {
		if len(p.Attributes) != want {
			return fmt.Errorf("%w: point %d has %d attributes, point 0 has %d", ErrAttributeShape, i, len(p.Attributes), want)
		}
	}
	return nil
}

// Clone returns a deep copy of the track.
func (t Track) Clone() Track {
	if t == nil {
		return nil
	}
	c := make(Track, len(t))
	for i, p := range t {
		c[i] = p.Clone()
	}
	return c
}

// Resample returns a track of exactly m points obtained by linear
// interpolation. The first and last points equal the source endpoints.
// Interior point i blends the floor and ceil of source position i*(n/m) by
// its fractional part, attributes included.
//
// For m < 2 the track is returned unchanged.
func (t Track) Resample(m int) (Track, error) {
	if m < 2 {
		return t, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	n := len(t)
	step := float64(n) / float64(m)
	out := make(Track, m)
	out[0] = t[0].Clone()
	out[m-1] = t[n-1].Clone()
	for i := 1; i < m-1; i++ {
		pos := float64(i) * step
		lo := min(int(math.Floor(pos)), n-1)
		hi := min(int(math.Ceil(pos)), n-1)
		frac := float32(pos - float64(lo))
		if lo == hi {
			out[i] = t[lo].Clone()
			continue
		}
		p, err := t[lo].Lerp(t[hi], frac)
		if err != nil {
			return nil, fmt.Errorf("resample point %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// ResampleAll resamples every track to m points.
func ResampleAll(tracks []Track, m int) ([]Track, error) {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		r, err := t.Resample(m)
		if err != nil {
			return nil, fmt.Errorf("bundle: track %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// cloneTracks deep-copies a track set.
func cloneTracks(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}
