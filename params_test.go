package bundle

import (
	"errors"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultParams().Validate() error = %v", err)
	}
	if p.NumberOfClusters != 1 {
		t.Errorf("NumberOfClusters = %d, want 1", p.NumberOfClusters)
	}
	if p.BundlingChunkSize != 50000 {
		t.Errorf("BundlingChunkSize = %d, want 50000", p.BundlingChunkSize)
	}
	if p.BundlingIncludeEndpoints != 0 {
		t.Errorf("BundlingIncludeEndpoints = %d, want 0", p.BundlingIncludeEndpoints)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(p *Params)
		ok   bool
	}{
		{"defaults", func(*Params) {}, true},
		{"resample below 2 is allowed", func(p *Params) { p.ResampleTo = 0 }, true},
		{"zero iterations", func(p *Params) { p.BundlingIterations = 0; p.ClusteringIterations = 0 }, true},
		{"angle min 1", func(p *Params) { p.BundlingAngleMin = 1 }, true},
		{"zero clusters", func(p *Params) { p.NumberOfClusters = 0 }, false},
		{"proxy size 1", func(p *Params) { p.ClusteringTrackSize = 1 }, false},
		{"negative clustering iterations", func(p *Params) { p.ClusteringIterations = -1 }, false},
		{"negative bundling iterations", func(p *Params) { p.BundlingIterations = -1 }, false},
		{"zero radius", func(p *Params) { p.BundlingRadius = 0 }, false},
		{"negative stepsize", func(p *Params) { p.BundlingStepsize = -0.1 }, false},
		{"angle min above 1", func(p *Params) { p.BundlingAngleMin = 1.5 }, false},
		{"angle stick negative", func(p *Params) { p.BundlingAngleStick = -1 }, false},
		{"zero chunk", func(p *Params) { p.BundlingChunkSize = 0 }, false},
		{"endpoints 2", func(p *Params) { p.BundlingIncludeEndpoints = 2 }, false},
		{"negative smoothing radius", func(p *Params) { p.BundlingSmoothingRadius = -1 }, false},
		{"intensity above 1", func(p *Params) { p.BundlingSmoothingIntensity = 1.01 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.fn(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() error = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestEstimateRadius(t *testing.T) {
	tracks := []Track{
		{Pt(0, 0, 0), Pt(10, 0, 0)},
		{Pt(0, 50, 0), Pt(5, 20, 3)},
	}
	if got, want := EstimateRadius(tracks), float32(RadiusFraction*50); got != want {
		t.Errorf("EstimateRadius() = %v, want %v", got, want)
	}
	if got := EstimateRadius(nil); got != 0 {
		t.Errorf("EstimateRadius(nil) = %v, want 0", got)
	}
}

// Doubling the extent of the input doubles the estimated radius.
func TestEstimateRadius_Scales(t *testing.T) {
	base := parallelLines(3, 10, 2)
	scaled := make([]Track, len(base))
	for i, tr := range base {
		scaled[i] = make(Track, len(tr))
		for k, p := range tr {
			scaled[i][k] = p.Scale(2)
		}
	}
	r1, r2 := EstimateRadius(base), EstimateRadius(scaled)
	if r2 != 2*r1 {
		t.Errorf("EstimateRadius(2x) = %v, want %v", r2, 2*r1)
	}
}

func TestParams_Estimated(t *testing.T) {
	tracks := make([]Track, 1200)
	for i := range tracks {
		tracks[i] = Track{Pt(0, float32(i), 0), Pt(100, float32(i), 0)}
	}
	p := DefaultParams().Estimated(tracks)
	if p.NumberOfClusters != 2 {
		t.Errorf("NumberOfClusters = %d, want 2", p.NumberOfClusters)
	}
	if !approxEqual(float64(p.BundlingRadius), RadiusFraction*1199, 1e-4) {
		t.Errorf("BundlingRadius = %v, want %v", p.BundlingRadius, RadiusFraction*1199)
	}

	// A single point keeps the configured radius.
	p = DefaultParams().Estimated([]Track{{Pt(1, 1, 1)}})
	if p.BundlingRadius != DefaultParams().BundlingRadius {
		t.Errorf("degenerate BundlingRadius = %v, want default", p.BundlingRadius)
	}
}
