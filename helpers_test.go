package bundle

import (
	"errors"
	"math"

	"github.com/gogpu/bundle/compute"
	"github.com/gogpu/bundle/compute/software"
)

// straightTrack returns n evenly spaced points from (0, y, z) to (n-1, y, z).
func straightTrack(n int, y, z float32) Track {
	t := make(Track, n)
	for i := range t {
		t[i] = Pt(float32(i), y, z)
	}
	return t
}

// parallelLines returns count straight tracks of n points spaced gap apart
// along Y.
func parallelLines(count, n int, gap float32) []Track {
	tracks := make([]Track, count)
	for i := range tracks {
		tracks[i] = straightTrack(n, float32(i)*gap, 0)
	}
	return tracks
}

// unavailableBackend is a backend whose Init always fails, as on a machine
// without drivers.
type unavailableBackend struct {
	*software.Backend
	inits int
}

var errNoDriver = errors.New("no driver")

func (b *unavailableBackend) Name() string { return "unavailable" }

func (b *unavailableBackend) Init() error {
	b.inits++
	return errNoDriver
}

// failingBackend initializes but rejects every dispatch after the first
// failAfter ones.
type failingBackend struct {
	*software.Backend
	failAfter  int
	dispatches int
}

var errDeviceLost = errors.New("device lost")

func (b *failingBackend) Dispatch(k compute.Kernel, n int, args ...compute.Arg) error {
	b.dispatches++
	if b.dispatches > b.failAfter {
		return errDeviceLost
	}
	return b.Backend.Dispatch(k, n, args...)
}

func newSoftware() *software.Backend {
	return software.NewWithWorkers(1)
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
