// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/bundle/compute"
)

// ErrDeviceTimeout is returned when the device does not signal completion
// of a submission within the backend timeout.
var ErrDeviceTimeout = errors.New("wgpu: device timeout")

// DefaultTimeout bounds every fence wait.
const DefaultTimeout = 5 * time.Second

func init() {
	compute.Register(compute.BackendWGPU, func() compute.Backend {
		return New()
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithTimeout sets how long a dispatch or readback may wait for the device.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Backend runs the bundling kernels on a Vulkan device.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	externalDevice bool // borrowed from a provider, not destroyed on Close
	adapterName    string
	timeout        time.Duration

	kernels     map[string]*kernel
	buffers     map[*buffer]struct{}
	initialized bool
}

var _ compute.Backend = (*Backend)(nil)

// New creates a backend that opens its own device on Init.
func New(opts ...Option) *Backend {
	b := &Backend{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromProvider creates an initialized backend on a device shared by an
// external provider (e.g., a gogpu application). The provider must also
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b := New(opts...)
	b.device = device
	b.queue = queue
	b.externalDevice = true
	b.adapterName = "shared"
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return compute.BackendWGPU }

// AdapterName returns the name of the adapter in use, if known.
func (b *Backend) AdapterName() string { return b.adapterName }

// SetLogger sets the logger used by the GPU backend.
func (b *Backend) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens the device, unless one was provided, and builds the pipelines.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if b.device == nil {
		if err := b.openDevice(); err != nil {
			b.destroyDevice()
			return err
		}
	}
	b.kernels = make(map[string]*kernel, 2)
	for _, name := range []string{compute.KernelBundle, compute.KernelSmooth} {
		k, err := b.createKernel(name)
		if err != nil {
			b.destroyKernels()
			b.destroyDevice()
			return fmt.Errorf("wgpu: create %s pipeline: %w", name, err)
		}
		b.kernels[name] = k
	}
	b.buffers = make(map[*buffer]struct{})
	b.initialized = true
	slogger().Info("wgpu: compute backend initialized", "adapter", b.adapterName)
	return nil
}

func (b *Backend) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.adapterName = selected.Info.Name
	return nil
}

// Close releases buffers, pipelines and, when owned, the device.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for buf := range b.buffers {
		b.destroyBuffer(buf)
	}
	b.buffers = nil
	b.destroyKernels()
	b.destroyDevice()
	b.initialized = false
}

func (b *Backend) destroyDevice() {
	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil
	b.externalDevice = false
}

// NewFloatBuffer uploads data into a new storage buffer.
func (b *Backend) NewFloatBuffer(label string, data []float32) (compute.Buffer, error) {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return b.newBuffer(label, compute.Float32, len(data), raw)
}

// NewIntBuffer uploads data into a new storage buffer.
func (b *Backend) NewIntBuffer(label string, data []int32) (compute.Buffer, error) {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], uint32(v)) //nolint:gosec // bit pattern of i32
	}
	return b.newBuffer(label, compute.Int32, len(data), raw)
}

func (b *Backend) newBuffer(label string, kind compute.ElementKind, n int, raw []byte) (*buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	// Zero-sized buffers cannot be bound; empty arrays get one padding word.
	size := uint64(max(len(raw), 4))
	hb, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}
	if len(raw) > 0 {
		b.queue.WriteBuffer(hb, 0, raw)
	}
	buf := &buffer{owner: b, label: label, kind: kind, n: n, raw: hb, size: size}
	b.buffers[buf] = struct{}{}
	return buf, nil
}

// WriteFloats overwrites a float buffer from host memory.
func (b *Backend) WriteFloats(dst compute.Buffer, data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, err := b.floatBuffer(dst)
	if err != nil {
		return err
	}
	if len(data) != buf.n {
		return fmt.Errorf("%w: write %d floats into %q of length %d", compute.ErrArgument, len(data), buf.label, buf.n)
	}
	if buf.n == 0 {
		return nil
	}
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	b.queue.WriteBuffer(buf.raw, 0, raw)
	return nil
}

// ReadFloats copies a float buffer into dst through a staging buffer.
func (b *Backend) ReadFloats(src compute.Buffer, dst []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, err := b.floatBuffer(src)
	if err != nil {
		return err
	}
	if len(dst) != buf.n {
		return fmt.Errorf("%w: read %q of length %d into %d floats", compute.ErrArgument, buf.label, buf.n, len(dst))
	}
	if buf.n == 0 {
		return nil
	}

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: buf.label + "_staging", Size: buf.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	err = b.submit("readback", func(encoder hal.CommandEncoder) {
		encoder.CopyBufferToBuffer(buf.raw, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: buf.size},
		})
	})
	if err != nil {
		return err
	}

	readback := make([]byte, buf.size)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(readback[4*i:]))
	}
	return nil
}

// ReleaseBuffer destroys a buffer created by this backend.
func (b *Backend) ReleaseBuffer(buf compute.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	gb, ok := buf.(*buffer)
	if !ok || gb.owner != b || gb.released {
		return
	}
	delete(b.buffers, gb)
	b.destroyBuffer(gb)
}

func (b *Backend) destroyBuffer(buf *buffer) {
	if buf.raw != nil && b.device != nil {
		b.device.DestroyBuffer(buf.raw)
	}
	buf.raw = nil
	buf.released = true
}

// Kernel returns one of the built-in kernels.
func (b *Backend) Kernel(name string) (compute.Kernel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	k, ok := b.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", compute.ErrUnknownKernel, name)
	}
	return k, nil
}

// Dispatch records one compute pass over n work-items, submits it and
// waits for the device.
func (b *Backend) Dispatch(k compute.Kernel, n int, args ...compute.Arg) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return compute.ErrNotInitialized
	}
	gk, ok := k.(*kernel)
	if !ok || b.kernels[gk.name] != gk {
		return fmt.Errorf("%w: kernel was not loaded by this backend", compute.ErrArgument)
	}
	if err := gk.layout.Check(args); err != nil {
		return err
	}
	bufs := make([]*buffer, len(gk.layout.Buffers))
	for i := range gk.layout.Buffers {
		gb, ok := args[i].Buffer.(*buffer)
		if !ok || gb.owner != b || gb.released {
			return fmt.Errorf("%w: argument %d (%s)", compute.ErrForeignBuffer, i, gk.layout.Buffers[i].Name)
		}
		bufs[i] = gb
	}
	if n <= 0 {
		return nil
	}

	// Every kernel reads points_in at binding 0 and takes chunk_offset as
	// its first scalar.
	scalars := args[len(bufs):]
	offset := int(scalars[0].Int)
	if offset < 0 || offset+n > bufs[0].n/4 {
		return fmt.Errorf("%w: chunk [%d, %d) outside %d points", compute.ErrArgument, offset, offset+n, bufs[0].n/4)
	}
	groups := (n + WorkgroupSize - 1) / WorkgroupSize
	if groups > MaxWorkgroups {
		return fmt.Errorf("%w: %d work-items exceed %d workgroups", compute.ErrArgument, n, MaxWorkgroups)
	}

	uniform, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: gk.name + "_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	defer b.device.DestroyBuffer(uniform)
	b.queue.WriteBuffer(uniform, 0, packParams(uint32(n), scalars)) //nolint:gosec // bounded by MaxWorkgroups

	entries := make([]gputypes.BindGroupEntry, 0, len(bufs)+1)
	for i, gb := range bufs {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // binding index is small
			Resource: gputypes.BufferBinding{Buffer: gb.raw.NativeHandle(), Offset: 0, Size: gb.size},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(bufs)), //nolint:gosec // binding index is small
		Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Offset: 0, Size: paramsSize},
	})
	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: gk.name + "_bind", Layout: gk.bindLayout, Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer b.device.DestroyBindGroup(bg)

	err = b.submit(gk.name, func(encoder hal.CommandEncoder) {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: gk.name + "_pass"})
		pass.SetPipeline(gk.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(uint32(groups), 1, 1) //nolint:gosec // bounded by MaxWorkgroups
		pass.End()
	})
	if err != nil {
		return err
	}
	slogger().Debug("wgpu: dispatch", "kernel", gk.name, "offset", offset, "n", n, "groups", groups)
	return nil
}

// submit records commands with record, submits them and waits on a fence.
func (b *Backend) submit(label string, record func(hal.CommandEncoder)) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, b.timeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for %s: %w", label, err)
	}
	if !fenceOK {
		return fmt.Errorf("%w: %s after %v", ErrDeviceTimeout, label, b.timeout)
	}
	return nil
}

func (b *Backend) floatBuffer(buf compute.Buffer) (*buffer, error) {
	if !b.initialized {
		return nil, compute.ErrNotInitialized
	}
	gb, ok := buf.(*buffer)
	if !ok || gb.owner != b || gb.released {
		return nil, compute.ErrForeignBuffer
	}
	if gb.kind != compute.Float32 {
		return nil, fmt.Errorf("%w: %q holds %s", compute.ErrArgument, gb.label, gb.kind)
	}
	return gb, nil
}

// buffer is a device storage buffer.
type buffer struct {
	owner    *Backend
	label    string
	kind     compute.ElementKind
	n        int
	raw      hal.Buffer
	size     uint64
	released bool
}

func (b *buffer) Label() string             { return b.label }
func (b *buffer) Len() int                  { return b.n }
func (b *buffer) Kind() compute.ElementKind { return b.kind }
