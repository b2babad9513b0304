// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements compute.Backend on a GPU through gogpu/wgpu.
//
// Kernels are WGSL sources embedded in the package and compiled to SPIR-V
// with naga when the backend initializes. Each dispatch binds the layout's
// buffers at @binding(0..N-1) and a uniform block at @binding(N) holding the
// work-item count followed by the scalar arguments. The device is Vulkan,
// opened directly or borrowed from a gpucontext.DeviceProvider:
//
//	b, err := wgpu.NewFromProvider(app)
//
// The backend registers itself as "wgpu" on import. Builds with the nogpu
// tag leave it out.
package wgpu
