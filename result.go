package bundle

// Pair is the bundled and original geometry of one track.
type Pair struct {
	Bundled  Track
	Original Track
}

// Result is a read-only view of an engine's tracks and clusters. All
// accessors return copies.
type Result struct {
	bundled    []Track
	original   []Track
	assignment *Assignment
}

// Len returns the number of tracks.
func (r *Result) Len() int { return len(r.bundled) }

// Bundled returns the bundled geometry of track i.
func (r *Result) Bundled(i int) Track { return r.bundled[i].Clone() }

// Original returns the pre-bundling geometry of track i.
func (r *Result) Original(i int) Track { return r.original[i].Clone() }

// Pair returns the bundled and original geometry of track i.
func (r *Result) Pair(i int) Pair {
	return Pair{Bundled: r.Bundled(i), Original: r.Original(i)}
}

// Pairs returns every track's bundled and original geometry.
func (r *Result) Pairs() []Pair {
	out := make([]Pair, r.Len())
	for i := range out {
		out[i] = r.Pair(i)
	}
	return out
}

// BundledTracks returns all bundled tracks.
func (r *Result) BundledTracks() []Track { return cloneTracks(r.bundled) }

// OriginalTracks returns all original tracks.
func (r *Result) OriginalTracks() []Track { return cloneTracks(r.original) }

// TrackClusters returns the cluster id of every track.
func (r *Result) TrackClusters() []int { return r.assignment.TrackClusters() }

// ClusterTracks returns the tracks of every cluster.
func (r *Result) ClusterTracks() [][]int { return r.assignment.ClusterTracks() }
