// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"

	"github.com/gogpu/bundle/compute"
	"github.com/gogpu/bundle/internal/cache"
)

//go:embed kernels/bundle.wgsl
var bundleShaderWGSL string

//go:embed kernels/smooth.wgsl
var smoothShaderWGSL string

// WorkgroupSize is the @workgroup_size of every kernel.
const WorkgroupSize = 64

// MaxWorkgroups is the per-dimension dispatch limit guaranteed by WebGPU.
const MaxWorkgroups = 65535

// paramsSize is the byte size of every kernel's uniform block.
const paramsSize = 32

// kernelSource returns the WGSL source of a built-in kernel.
func kernelSource(name string) (string, bool) {
	switch name {
	case compute.KernelBundle:
		return bundleShaderWGSL, true
	case compute.KernelSmooth:
		return smoothShaderWGSL, true
	default:
		return "", false
	}
}

// spirvCache holds each kernel's SPIR-V for the life of the process, so
// backends opened per run compile once.
var spirvCache = cache.New[string, []uint32]()

// kernelSPIRV returns the compiled SPIR-V of a built-in kernel.
func kernelSPIRV(name string) ([]uint32, error) {
	return spirvCache.GetOrCreate(name, func() ([]uint32, error) {
		src, ok := kernelSource(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", compute.ErrUnknownKernel, name)
		}
		return compileSPIRV(src)
	})
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// packParams lays out the uniform block: the work-item count, then the
// scalars in layout order, zero padded to paramsSize.
func packParams(count uint32, scalars []compute.Arg) []byte {
	out := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(out, count)
	for i, a := range scalars {
		off := 4 * (i + 1)
		switch a.Kind {
		case compute.ArgInt:
			binary.LittleEndian.PutUint32(out[off:], uint32(a.Int)) //nolint:gosec // bit pattern of i32
		case compute.ArgFloat:
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(a.Float))
		}
	}
	return out
}
