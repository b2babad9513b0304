package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig is the JSON form of Params. Every field is optional; Get*
// methods fall back to DefaultParams for fields that are not set, so
// partial configs are safe.
type TuningConfig struct {
	ResampleTo *int `json:"resample_to,omitempty"`

	// Clustering params
	NumberOfClusters     *int `json:"number_of_clusters,omitempty"`
	ClusteringTrackSize  *int `json:"clustering_track_size,omitempty"`
	ClusteringIterations *int `json:"clustering_iterations,omitempty"`

	// Bundling params
	BundlingIterations         *int     `json:"bundling_iterations,omitempty"`
	BundlingRadius             *float32 `json:"bundling_radius,omitempty"`
	BundlingStepsize           *float32 `json:"bundling_stepsize,omitempty"`
	BundlingAngleMin           *float32 `json:"bundling_angle_min,omitempty"`
	BundlingAngleStick         *float32 `json:"bundling_angle_stick,omitempty"`
	BundlingChunkSize          *int     `json:"bundling_chunk_size,omitempty"`
	BundlingIncludeEndpoints   *int     `json:"bundling_include_endpoints,omitempty"`
	BundlingSmoothingRadius    *int     `json:"bundling_smoothing_radius,omitempty"`
	BundlingSmoothingIntensity *float32 `json:"bundling_smoothing_intensity,omitempty"`

	// Run params
	Seed    *uint64 `json:"seed,omitempty"`
	Backend *string `json:"backend,omitempty"` // registered backend name, empty for auto
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set, with defaults filling the rest.
func (c *TuningConfig) Validate() error {
	return c.Params().Validate()
}

// Params returns the configured parameters over DefaultParams.
func (c *TuningConfig) Params() Params {
	return Params{
		ResampleTo:                 c.GetResampleTo(),
		NumberOfClusters:           c.GetNumberOfClusters(),
		ClusteringTrackSize:        c.GetClusteringTrackSize(),
		ClusteringIterations:       c.GetClusteringIterations(),
		BundlingIterations:         c.GetBundlingIterations(),
		BundlingRadius:             c.GetBundlingRadius(),
		BundlingStepsize:           c.GetBundlingStepsize(),
		BundlingAngleMin:           c.GetBundlingAngleMin(),
		BundlingAngleStick:         c.GetBundlingAngleStick(),
		BundlingChunkSize:          c.GetBundlingChunkSize(),
		BundlingIncludeEndpoints:   c.GetBundlingIncludeEndpoints(),
		BundlingSmoothingRadius:    c.GetBundlingSmoothingRadius(),
		BundlingSmoothingIntensity: c.GetBundlingSmoothingIntensity(),
	}
}

// Options returns the engine options described by the config.
func (c *TuningConfig) Options() []Option {
	opts := []Option{WithParams(c.Params())}
	if c.Seed != nil {
		opts = append(opts, WithSeed(*c.Seed))
	}
	if c.Backend != nil && *c.Backend != "" {
		opts = append(opts, WithBackendName(*c.Backend))
	}
	return opts
}

func getInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func getFloat32(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

// GetResampleTo returns the resample_to value or the default.
func (c *TuningConfig) GetResampleTo() int {
	return getInt(c.ResampleTo, DefaultParams().ResampleTo)
}

// GetNumberOfClusters returns the number_of_clusters value or the default.
func (c *TuningConfig) GetNumberOfClusters() int {
	return getInt(c.NumberOfClusters, DefaultParams().NumberOfClusters)
}

// GetClusteringTrackSize returns the clustering_track_size value or the default.
func (c *TuningConfig) GetClusteringTrackSize() int {
	return getInt(c.ClusteringTrackSize, DefaultParams().ClusteringTrackSize)
}

// GetClusteringIterations returns the clustering_iterations value or the default.
func (c *TuningConfig) GetClusteringIterations() int {
	return getInt(c.ClusteringIterations, DefaultParams().ClusteringIterations)
}

// GetBundlingIterations returns the bundling_iterations value or the default.
func (c *TuningConfig) GetBundlingIterations() int {
	return getInt(c.BundlingIterations, DefaultParams().BundlingIterations)
}

// GetBundlingRadius returns the bundling_radius value or the default.
func (c *TuningConfig) GetBundlingRadius() float32 {
	return getFloat32(c.BundlingRadius, DefaultParams().BundlingRadius)
}

// GetBundlingStepsize returns the bundling_stepsize value or the default.
func (c *TuningConfig) GetBundlingStepsize() float32 {
	return getFloat32(c.BundlingStepsize, DefaultParams().BundlingStepsize)
}

// GetBundlingAngleMin returns the bundling_angle_min value or the default.
func (c *TuningConfig) GetBundlingAngleMin() float32 {
	return getFloat32(c.BundlingAngleMin, DefaultParams().BundlingAngleMin)
}

// GetBundlingAngleStick returns the bundling_angle_stick value or the default.
func (c *TuningConfig) GetBundlingAngleStick() float32 {
	return getFloat32(c.BundlingAngleStick, DefaultParams().BundlingAngleStick)
}

// GetBundlingChunkSize returns the bundling_chunk_size value or the default.
func (c *TuningConfig) GetBundlingChunkSize() int {
	return getInt(c.BundlingChunkSize, DefaultParams().BundlingChunkSize)
}

// GetBundlingIncludeEndpoints returns the bundling_include_endpoints value or the default.
func (c *TuningConfig) GetBundlingIncludeEndpoints() int {
	return getInt(c.BundlingIncludeEndpoints, DefaultParams().BundlingIncludeEndpoints)
}

// GetBundlingSmoothingRadius returns the bundling_smoothing_radius value or the default.
func (c *TuningConfig) GetBundlingSmoothingRadius() int {
	return getInt(c.BundlingSmoothingRadius, DefaultParams().BundlingSmoothingRadius)
}

// GetBundlingSmoothingIntensity returns the bundling_smoothing_intensity value or the default.
func (c *TuningConfig) GetBundlingSmoothingIntensity() float32 {
	return getFloat32(c.BundlingSmoothingIntensity, DefaultParams().BundlingSmoothingIntensity)
}
