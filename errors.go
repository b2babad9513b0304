package bundle

import "errors"

var (
	// ErrAttributeShape is returned when two points that are combined
	// element-wise carry different attribute counts.
	ErrAttributeShape = errors.New("bundle: attribute shape mismatch")

	// ErrInvalidParams is returned when parameters are out of range.
	ErrInvalidParams = errors.New("bundle: invalid parameters")

	// ErrEmptyTrack is returned for tracks without points.
	ErrEmptyTrack = errors.New("bundle: empty track")

	// ErrBackendUnavailable reports that no compute backend could be opened.
	// It indicates an environment problem (drivers, build tags), not a
	// parameter problem.
	ErrBackendUnavailable = errors.New("bundle: compute backend unavailable")

	// ErrSimulation reports a failure while the simulation was running on an
	// opened backend, e.g. a dispatch rejected by the device or a timeout
	// caused by an oversized chunk.
	ErrSimulation = errors.New("bundle: simulation failed")

	// ErrFlatMismatch is returned when flat buffers do not agree with the
	// track set they are applied to.
	ErrFlatMismatch = errors.New("bundle: flat data does not match tracks")
)
