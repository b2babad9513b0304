package bundle

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// RadiusFraction is the share of the largest bounding-box dimension used by
// EstimateRadius.
const RadiusFraction = 0.03

// Params holds the tunable parameters of an engine run.
type Params struct {
	// ResampleTo is the working length of every track. Values below 2
	// keep the input lengths.
	ResampleTo int

	NumberOfClusters     int
	ClusteringTrackSize  int
	ClusteringIterations int

	BundlingIterations int
	BundlingRadius     float32
	BundlingStepsize   float32
	BundlingAngleMin   float32
	BundlingAngleStick float32

	// BundlingChunkSize bounds the points per kernel invocation. Lower it
	// when the device watchdog kills long dispatches.
	BundlingChunkSize int

	// BundlingIncludeEndpoints is 0 to pin track endpoints, 1 to move them.
	BundlingIncludeEndpoints int

	BundlingSmoothingRadius    int
	BundlingSmoothingIntensity float32
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{
		ResampleTo:                 64,
		NumberOfClusters:           1,
		ClusteringTrackSize:        6,
		ClusteringIterations:       20,
		BundlingIterations:         10,
		BundlingRadius:             10,
		BundlingStepsize:           0.5,
		BundlingAngleMin:           0.2,
		BundlingAngleStick:         0.5,
		BundlingChunkSize:          50000,
		BundlingIncludeEndpoints:   0,
		BundlingSmoothingRadius:    3,
		BundlingSmoothingIntensity: 0.5,
	}
}

// Validate checks that every parameter is in range.
func (p Params) Validate() error {
	switch {
	case p.NumberOfClusters < 1:
		return fmt.Errorf("%w: number of clusters %d < 1", ErrInvalidParams, p.NumberOfClusters)
	case p.ClusteringTrackSize < 2:
		return fmt.Errorf("%w: clustering track size %d < 2", ErrInvalidParams, p.ClusteringTrackSize)
	case p.ClusteringIterations < 0:
		return fmt.Errorf("%w: clustering iterations %d < 0", ErrInvalidParams, p.ClusteringIterations)
	case p.BundlingIterations < 0:
		return fmt.Errorf("%w: bundling iterations %d < 0", ErrInvalidParams, p.BundlingIterations)
	case !(p.BundlingRadius > 0):
		return fmt.Errorf("%w: bundling radius %v must be positive", ErrInvalidParams, p.BundlingRadius)
	case p.BundlingStepsize < 0:
		return fmt.Errorf("%w: bundling stepsize %v < 0", ErrInvalidParams, p.BundlingStepsize)
	case p.BundlingAngleMin < 0 || p.BundlingAngleMin > 1:
		return fmt.Errorf("%w: bundling angle min %v outside [0, 1]", ErrInvalidParams, p.BundlingAngleMin)
	case p.BundlingAngleStick < 0 || p.BundlingAngleStick > 1:
		return fmt.Errorf("%w: bundling angle stick %v outside [0, 1]", ErrInvalidParams, p.BundlingAngleStick)
	case p.BundlingChunkSize < 1:
		return fmt.Errorf("%w: bundling chunk size %d < 1", ErrInvalidParams, p.BundlingChunkSize)
	case p.BundlingIncludeEndpoints != 0 && p.BundlingIncludeEndpoints != 1:
		return fmt.Errorf("%w: bundling include endpoints %d must be 0 or 1", ErrInvalidParams, p.BundlingIncludeEndpoints)
	case p.BundlingSmoothingRadius < 0:
		return fmt.Errorf("%w: smoothing radius %d < 0", ErrInvalidParams, p.BundlingSmoothingRadius)
	case p.BundlingSmoothingIntensity < 0 || p.BundlingSmoothingIntensity > 1:
		return fmt.Errorf("%w: smoothing intensity %v outside [0, 1]", ErrInvalidParams, p.BundlingSmoothingIntensity)
	}
	return nil
}

// EstimateRadius returns RadiusFraction of the largest bounding-box
// dimension over all points of tracks, or 0 when there are no points.
func EstimateRadius(tracks []Track) float32 {
	var xs, ys, zs []float64
	for _, t := range tracks {
		for _, p := range t {
			xs = append(xs, float64(p.X))
			ys = append(ys, float64(p.Y))
			zs = append(zs, float64(p.Z))
		}
	}
	if len(xs) == 0 {
		return 0
	}
	extent := max(
		floats.Max(xs)-floats.Min(xs),
		floats.Max(ys)-floats.Min(ys),
		floats.Max(zs)-floats.Min(zs),
	)
	return float32(RadiusFraction * extent)
}

// Estimated returns a copy of p with BundlingRadius and NumberOfClusters
// derived from tracks. A degenerate (zero-extent) input keeps the radius.
func (p Params) Estimated(tracks []Track) Params {
	if r := EstimateRadius(tracks); r > 0 {
		p.BundlingRadius = r
	}
	p.NumberOfClusters = EstimateClusters(len(tracks))
	return p
}
