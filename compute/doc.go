// Package compute defines the narrow device interface the bundling engine
// dispatches its simulation kernels through.
//
// A [Backend] creates read/write device buffers from host arrays, loads a
// kernel by name, dispatches it over N work-items with typed arguments, and
// copies buffers back to host memory. Nothing else about the device leaks
// into the engine: kernel compilation, adapter enumeration and buffer
// lifetime stay inside the backend implementation.
//
// # Backends
//
// Two backends ship with this module:
//   - software (compute/software): runs the kernels on the host. Always
//     available and deterministic, used by tests and as the fallback.
//   - wgpu (compute/wgpu): runs WGSL kernels on a Vulkan device through
//     gogpu/wgpu. Registers itself on import:
//
//	import _ "github.com/gogpu/bundle/compute/wgpu"
//
// Backends register a factory via [Register] and are created with [Get] or
// [Open]. Open with an empty name walks the priority order (wgpu, then
// software) and returns the first backend whose Init succeeds.
//
// # Kernels
//
// Every kernel has a fixed argument [Layout]: buffer arguments first, in
// binding order, followed by scalar arguments. [Layout.Check] validates a
// dispatch against it, so both backends reject malformed dispatches the
// same way.
package compute
