package bundle

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// TracksPerCluster is the cluster size targeted by EstimateClusters.
const TracksPerCluster = 500

// EstimateClusters suggests a cluster count for trackCount tracks so that
// clusters hold about TracksPerCluster tracks each.
func EstimateClusters(trackCount int) int {
	return max(1, trackCount/TracksPerCluster)
}

// Assignment maps every track to exactly one cluster and keeps the inverse
// grouping. It is immutable: both directions are built together by
// NewAssignment and never modified afterwards.
type Assignment struct {
	trackClusters []int
	clusterTracks [][]int
}

// NewAssignment builds an assignment from a track → cluster array. Every
// entry must lie in [0, clusters). Members of each cluster are listed in
// ascending track order.
func NewAssignment(trackClusters []int, clusters int) (*Assignment, error) {
	if clusters < 1 {
		return nil, fmt.Errorf("%w: %d clusters", ErrInvalidParams, clusters)
	}
	a := &Assignment{
		trackClusters: append([]int(nil), trackClusters...),
		clusterTracks: make([][]int, clusters),
	}
	for t, c := range trackClusters {
		if c < 0 || c >= clusters {
			return nil, fmt.Errorf("%w: track %d assigned to cluster %d of %d", ErrInvalidParams, t, c, clusters)
		}
		a.clusterTracks[c] = append(a.clusterTracks[c], t)
	}
	return a, nil
}

// Tracks returns the number of tracks.
func (a *Assignment) Tracks() int { return len(a.trackClusters) }

// Clusters returns the number of clusters, empty ones included.
func (a *Assignment) Clusters() int { return len(a.clusterTracks) }

// ClusterOf returns the cluster of track t.
func (a *Assignment) ClusterOf(t int) int { return a.trackClusters[t] }

// Members returns a copy of the tracks of cluster c in ascending order.
func (a *Assignment) Members(c int) []int {
	return append([]int(nil), a.clusterTracks[c]...)
}

// TrackClusters returns a copy of the track → cluster array.
func (a *Assignment) TrackClusters() []int {
	return append([]int(nil), a.trackClusters...)
}

// ClusterTracks returns a copy of the cluster → tracks grouping.
func (a *Assignment) ClusterTracks() [][]int {
	out := make([][]int, len(a.clusterTracks))
	for c, m := range a.clusterTracks {
		out[c] = append([]int(nil), m...)
	}
	return out
}

// Clusterer partitions tracks with QuickBundles: tracks are compared through
// short fixed-length proxies against per-cluster mean tracks.
type Clusterer struct {
	// Clusters is the number of clusters K.
	Clusters int

	// ProxySize is the length tracks are resampled to for comparison.
	ProxySize int

	// Iterations is the fixed number of reassignment rounds.
	Iterations int

	rng *rand.Rand
}

// NewClusterer creates a clusterer. A nil rng draws the initial assignment
// from a time-seeded source, so results vary run to run.
func NewClusterer(clusters, proxySize, iterations int, rng *rand.Rand) *Clusterer {
	if rng == nil {
		rng = newRandomRNG()
	}
	return &Clusterer{Clusters: clusters, ProxySize: proxySize, Iterations: iterations, rng: rng}
}

// newSeededRNG returns a deterministic PCG source.
func newSeededRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newRandomRNG() *rand.Rand {
	seed := uint64(time.Now().UnixNano()) //nolint:gosec // wall clock as seed
	return newSeededRNG(seed)
}

// Cluster runs QuickBundles over tracks and returns the final assignment.
//
// The initial assignment is uniform random over [0, K). Each round assigns
// every track to the cluster whose mean track has the smallest summed
// pointwise distance to the track's proxy (first cluster wins ties) and then
// rebuilds all means from the new assignment. Clusters that end up empty
// have no mean and are never selected; K > T is allowed.
func (c *Clusterer) Cluster(tracks []Track) (*Assignment, error) {
	if c.Clusters < 1 {
		return nil, fmt.Errorf("%w: number of clusters %d < 1", ErrInvalidParams, c.Clusters)
	}
	if c.ProxySize < 2 {
		return nil, fmt.Errorf("%w: clustering track size %d < 2", ErrInvalidParams, c.ProxySize)
	}

	proxies := make([][]r3.Vec, len(tracks))
	for i, t := range tracks {
		r, err := t.Resample(c.ProxySize)
		if err != nil {
			return nil, fmt.Errorf("bundle: clustering proxy of track %d: %w", i, err)
		}
		proxies[i] = make([]r3.Vec, len(r))
		for j, p := range r {
			proxies[i][j] = p.Vec()
		}
	}

	assign := make([]int, len(tracks))
	for i := range assign {
		assign[i] = c.rng.IntN(c.Clusters)
	}
	current, err := NewAssignment(assign, c.Clusters)
	if err != nil {
		return nil, err
	}

	log := Logger()
	costs := make([]float64, c.Clusters)
	for iter := range c.Iterations {
		means := meanTracks(proxies, current, c.ProxySize)
		next := make([]int, len(tracks))
		moved := 0
		for t, proxy := range proxies {
			for k, mean := range means {
				if mean == nil {
					costs[k] = math.Inf(1)
					continue
				}
				costs[k] = proxyDistance(proxy, mean)
			}
			next[t] = floats.MinIdx(costs)
			if next[t] != current.ClusterOf(t) {
				moved++
			}
		}
		current, err = NewAssignment(next, c.Clusters)
		if err != nil {
			return nil, err
		}
		log.Debug("quickbundles: iteration", "iteration", iter, "moved", moved)
	}
	return current, nil
}

// meanTracks rebuilds every cluster's mean track from scratch with the
// running-average update mean = mean*(1-1/n) + p*(1/n). Empty clusters get
// a nil mean.
func meanTracks(proxies [][]r3.Vec, a *Assignment, size int) [][]r3.Vec {
	means := make([][]r3.Vec, a.Clusters())
	for k := range means {
		members := a.clusterTracks[k]
		if len(members) == 0 {
			continue
		}
		mean := make([]r3.Vec, size)
		for n, t := range members {
			inv := 1 / float64(n+1)
			for j, p := range proxies[t] {
				mean[j] = r3.Add(r3.Scale(1-inv, mean[j]), r3.Scale(inv, p))
			}
		}
		means[k] = mean
	}
	return means
}

// proxyDistance sums the pointwise Euclidean distances of two proxies.
func proxyDistance(a, b []r3.Vec) float64 {
	d := 0.0
	for j := range a {
		d += r3.Norm(r3.Sub(a[j], b[j]))
	}
	return d
}
