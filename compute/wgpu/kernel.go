// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bundle/compute"
)

// kernel is a compiled compute pipeline and its bind group layout.
type kernel struct {
	name   string
	layout compute.Layout

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func (k *kernel) Name() string           { return k.name }
func (k *kernel) Layout() compute.Layout { return k.layout }

// bindLayoutEntries derives the bind group layout from a kernel layout:
// one storage binding per buffer, read-only unless writable, then the
// uniform block.
func bindLayoutEntries(l compute.Layout) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(l.Buffers)+1)
	for i, slot := range l.Buffers {
		typ := gputypes.BufferBindingTypeReadOnlyStorage
		if slot.Writable {
			typ = gputypes.BufferBindingTypeStorage
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // binding index is small
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		})
	}
	return append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(len(l.Buffers)), //nolint:gosec // binding index is small
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
}

func (b *Backend) createKernel(name string) (*kernel, error) {
	layout, ok := compute.LayoutFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", compute.ErrUnknownKernel, name)
	}
	code, err := kernelSPIRV(name)
	if err != nil {
		return nil, err
	}

	k := &kernel{name: name, layout: layout}
	k.shader, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	k.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   name + "_bind_layout",
		Entries: bindLayoutEntries(layout),
	})
	if err != nil {
		b.destroyKernel(k)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	k.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: name + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{k.bindLayout},
	})
	if err != nil {
		b.destroyKernel(k)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	k.pipeline, err = b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: name + "_pipeline", Layout: k.pipeLayout,
		Compute: hal.ComputeState{Module: k.shader, EntryPoint: "main"},
	})
	if err != nil {
		b.destroyKernel(k)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	return k, nil
}

func (b *Backend) destroyKernels() {
	for _, k := range b.kernels {
		b.destroyKernel(k)
	}
	b.kernels = nil
}

func (b *Backend) destroyKernel(k *kernel) {
	if b.device == nil {
		return
	}
	if k.pipeline != nil {
		b.device.DestroyComputePipeline(k.pipeline)
	}
	if k.pipeLayout != nil {
		b.device.DestroyPipelineLayout(k.pipeLayout)
	}
	if k.bindLayout != nil {
		b.device.DestroyBindGroupLayout(k.bindLayout)
	}
	if k.shader != nil {
		b.device.DestroyShaderModule(k.shader)
	}
}
