package compute

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no usable backend can be created.
	ErrBackendNotAvailable = errors.New("compute: backend not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("compute: backend not initialized")

	// ErrUnknownKernel is returned by Backend.Kernel for an unregistered name.
	ErrUnknownKernel = errors.New("compute: unknown kernel")

	// ErrArgument is returned when dispatch arguments do not match the
	// kernel's layout.
	ErrArgument = errors.New("compute: argument mismatch")

	// ErrForeignBuffer is returned when a buffer created by one backend is
	// passed to another.
	ErrForeignBuffer = errors.New("compute: buffer belongs to another backend")
)

// ElementKind is the scalar type stored in a device buffer.
type ElementKind uint8

const (
	// Float32 buffers hold IEEE 754 single precision values.
	Float32 ElementKind = iota + 1

	// Int32 buffers hold signed 32-bit integers (indices, offsets, lengths).
	Int32
)

// String returns the WGSL-style name of the element kind.
func (k ElementKind) String() string {
	switch k {
	case Float32:
		return "f32"
	case Int32:
		return "i32"
	default:
		return fmt.Sprintf("ElementKind(%d)", uint8(k))
	}
}

// Buffer is an opaque handle to a device buffer.
// It is only valid with the Backend that created it.
type Buffer interface {
	// Label returns the debug label given at creation.
	Label() string

	// Len returns the number of elements (not bytes) in the buffer.
	Len() int

	// Kind returns the element type.
	Kind() ElementKind
}

// Kernel is a loaded compute kernel.
type Kernel interface {
	// Name returns the kernel name the backend resolved.
	Name() string

	// Layout returns the argument layout the kernel expects.
	Layout() Layout
}

// Backend is the device abstraction used by the bundling orchestrator.
//
// All calls are blocking: Dispatch returns once the device has finished the
// work, and ReadFloats returns once the data is in host memory. Backends
// are not required to be safe for concurrent use; the orchestrator owns a
// backend exclusively for the duration of a run.
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init acquires the device. It must be called before any other method.
	// A failing Init means the backend is unavailable on this machine.
	Init() error

	// Close releases all device resources, including live buffers.
	Close()

	// NewFloatBuffer creates a read/write device buffer holding a copy of data.
	NewFloatBuffer(label string, data []float32) (Buffer, error)

	// NewIntBuffer creates a read/write device buffer holding a copy of data.
	NewIntBuffer(label string, data []int32) (Buffer, error)

	// WriteFloats overwrites the buffer contents from host memory.
	// len(data) must equal b.Len().
	WriteFloats(b Buffer, data []float32) error

	// ReadFloats copies the buffer contents into dst.
	// len(dst) must equal b.Len().
	ReadFloats(b Buffer, dst []float32) error

	// ReleaseBuffer frees a buffer. Releasing twice is a no-op.
	ReleaseBuffer(b Buffer)

	// Kernel loads the kernel registered under name.
	Kernel(name string) (Kernel, error)

	// Dispatch runs k over n work-items with the given arguments and waits
	// for completion. Work-item i sees global id i in [0, n).
	Dispatch(k Kernel, n int, args ...Arg) error
}

// ArgKind identifies the type carried by an Arg.
type ArgKind uint8

const (
	// ArgBuffer is a device buffer argument.
	ArgBuffer ArgKind = iota + 1

	// ArgInt is a 32-bit signed scalar.
	ArgInt

	// ArgFloat is a 32-bit float scalar.
	ArgFloat
)

// String returns a short name for the argument kind.
func (k ArgKind) String() string {
	switch k {
	case ArgBuffer:
		return "buffer"
	case ArgInt:
		return "int"
	case ArgFloat:
		return "float"
	default:
		return fmt.Sprintf("ArgKind(%d)", uint8(k))
	}
}

// Arg is a single typed kernel argument.
type Arg struct {
	Kind   ArgKind
	Buffer Buffer
	Int    int32
	Float  float32
}

// Buf wraps a buffer as a kernel argument.
func Buf(b Buffer) Arg { return Arg{Kind: ArgBuffer, Buffer: b} }

// Int wraps an integer scalar as a kernel argument.
func Int(v int) Arg { return Arg{Kind: ArgInt, Int: int32(v)} } //nolint:gosec // kernel scalars are point indices

// Float wraps a float scalar as a kernel argument.
func Float(v float32) Arg { return Arg{Kind: ArgFloat, Float: v} }
