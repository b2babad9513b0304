// Package software implements compute.Backend on the host CPU.
//
// The kernels are Go ports of the WGSL kernels in compute/wgpu and perform
// the same math, so the software backend doubles as the reference the GPU
// backend is tested against and as the fallback when no GPU is available.
// Work-items of one dispatch are spread over a worker pool; a dispatch
// still blocks until every work-item has finished.
package software

import (
	"fmt"

	"github.com/gogpu/bundle/compute"
	"github.com/gogpu/bundle/internal/parallel"
)

// init registers the software backend on package import.
func init() {
	compute.Register(compute.BackendSoftware, func() compute.Backend {
		return New()
	})
}

// Backend is the host compute backend.
type Backend struct {
	workers     int
	pool        *parallel.WorkerPool
	initialized bool
	buffers     map[*buffer]struct{}
	kernels     map[string]*kernel
}

var _ compute.Backend = (*Backend)(nil)

// New creates a software backend using GOMAXPROCS workers.
func New() *Backend {
	return &Backend{}
}

// NewWithWorkers creates a software backend with a fixed worker count.
// One worker makes every dispatch run on the calling goroutine.
func NewWithWorkers(workers int) *Backend {
	return &Backend{workers: workers}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return compute.BackendSoftware
}

// Init starts the worker pool. The software backend is always available.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	b.pool = parallel.NewWorkerPool(b.workers)
	b.buffers = make(map[*buffer]struct{})
	b.kernels = map[string]*kernel{
		compute.KernelBundle: {name: compute.KernelBundle, layout: compute.BundleLayout, run: runBundle},
		compute.KernelSmooth: {name: compute.KernelSmooth, layout: compute.SmoothLayout, run: runSmooth},
	}
	b.initialized = true
	return nil
}

// Close stops the worker pool and drops all buffers.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	for buf := range b.buffers {
		buf.release()
	}
	b.buffers = nil
	b.kernels = nil
	b.initialized = false
}

// NewFloatBuffer creates a float buffer holding a copy of data.
func (b *Backend) NewFloatBuffer(label string, data []float32) (compute.Buffer, error) {
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	buf := &buffer{owner: b, label: label, kind: compute.Float32, f: append([]float32(nil), data...)}
	b.buffers[buf] = struct{}{}
	return buf, nil
}

// NewIntBuffer creates an int buffer holding a copy of data.
func (b *Backend) NewIntBuffer(label string, data []int32) (compute.Buffer, error) {
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	buf := &buffer{owner: b, label: label, kind: compute.Int32, i: append([]int32(nil), data...)}
	b.buffers[buf] = struct{}{}
	return buf, nil
}

// WriteFloats overwrites a float buffer from host memory.
func (b *Backend) WriteFloats(dst compute.Buffer, data []float32) error {
	buf, err := b.floatBuffer(dst)
	if err != nil {
		return err
	}
	if len(data) != len(buf.f) {
		return fmt.Errorf("%w: write %d floats into %q of length %d", compute.ErrArgument, len(data), buf.label, len(buf.f))
	}
	copy(buf.f, data)
	return nil
}

// ReadFloats copies a float buffer into dst.
func (b *Backend) ReadFloats(src compute.Buffer, dst []float32) error {
	buf, err := b.floatBuffer(src)
	if err != nil {
		return err
	}
	if len(dst) != len(buf.f) {
		return fmt.Errorf("%w: read %q of length %d into %d floats", compute.ErrArgument, buf.label, len(buf.f), len(dst))
	}
	copy(dst, buf.f)
	return nil
}

// ReleaseBuffer frees a buffer created by this backend.
func (b *Backend) ReleaseBuffer(buf compute.Buffer) {
	hb, ok := buf.(*buffer)
	if !ok || hb.owner != b {
		return
	}
	delete(b.buffers, hb)
	hb.release()
}

// Kernel returns one of the built-in kernels.
func (b *Backend) Kernel(name string) (compute.Kernel, error) {
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	k, ok := b.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", compute.ErrUnknownKernel, name)
	}
	return k, nil
}

// Dispatch runs k over n work-items and returns when all have finished.
func (b *Backend) Dispatch(k compute.Kernel, n int, args ...compute.Arg) error {
	if !b.initialized {
		return compute.ErrNotInitialized
	}
	hk, ok := k.(*kernel)
	if !ok || b.kernels[hk.name] != hk {
		return fmt.Errorf("%w: kernel was not loaded by this backend", compute.ErrArgument)
	}
	if err := hk.layout.Check(args); err != nil {
		return err
	}
	bufs := make([]*buffer, len(hk.layout.Buffers))
	for i := range hk.layout.Buffers {
		hb, ok := args[i].Buffer.(*buffer)
		if !ok || hb.owner != b || hb.released {
			return fmt.Errorf("%w: argument %d (%s)", compute.ErrForeignBuffer, i, hk.layout.Buffers[i].Name)
		}
		bufs[i] = hb
	}
	if n <= 0 {
		return nil
	}

	inv, err := hk.run(bufs, args[len(bufs):], n)
	if err != nil {
		return fmt.Errorf("software: %s: %w", hk.name, err)
	}
	b.pool.Range(n, inv)
	return nil
}

func (b *Backend) floatBuffer(buf compute.Buffer) (*buffer, error) {
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	hb, ok := buf.(*buffer)
	if !ok || hb.owner != b || hb.released {
		return nil, compute.ErrForeignBuffer
	}
	if hb.kind != compute.Float32 {
		return nil, fmt.Errorf("%w: %q holds %s", compute.ErrArgument, hb.label, hb.kind)
	}
	return hb, nil
}

// buffer is a host-memory device buffer.
type buffer struct {
	owner    *Backend
	label    string
	kind     compute.ElementKind
	f        []float32
	i        []int32
	released bool
}

func (b *buffer) Label() string             { return b.label }
func (b *buffer) Kind() compute.ElementKind { return b.kind }

func (b *buffer) Len() int {
	if b.kind == compute.Float32 {
		return len(b.f)
	}
	return len(b.i)
}

func (b *buffer) release() {
	b.f, b.i = nil, nil
	b.released = true
}

// kernel binds a layout to a host implementation. run validates the
// arguments once and returns the per-range invocation.
type kernel struct {
	name   string
	layout compute.Layout
	run    func(bufs []*buffer, scalars []compute.Arg, n int) (func(lo, hi int), error)
}

func (k *kernel) Name() string           { return k.name }
func (k *kernel) Layout() compute.Layout { return k.layout }
