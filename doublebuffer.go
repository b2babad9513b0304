package bundle

import (
	"fmt"

	"github.com/gogpu/bundle/compute"
)

// DoubleBuffer is a pair of device point buffers used for ping-pong passes.
// Kernels read Current and write Next. At a phase boundary Swap makes the
// freshly written slot current and Sync copies it into the other slot, so
// after every boundary exactly one slot is authoritative and the other is a
// valid copy of it.
type DoubleBuffer struct {
	backend compute.Backend
	slots   [2]compute.Buffer
	cur     int
	host    []float32
}

// NewDoubleBuffer uploads current and next into two device buffers.
func NewDoubleBuffer(b compute.Backend, label string, current, next []float32) (*DoubleBuffer, error) {
	if len(current) != len(next) {
		return nil, fmt.Errorf("%w: slots of %d and %d scalars", compute.ErrArgument, len(current), len(next))
	}
	d := &DoubleBuffer{backend: b, host: make([]float32, len(current))}
	for i, data := range [2][]float32{current, next} {
		buf, err := b.NewFloatBuffer(fmt.Sprintf("%s_%d", label, i), data)
		if err != nil {
			d.Release()
			return nil, err
		}
		d.slots[i] = buf
	}
	return d, nil
}

// Current returns the slot kernels read from.
func (d *DoubleBuffer) Current() compute.Buffer { return d.slots[d.cur] }

// Next returns the slot kernels write to.
func (d *DoubleBuffer) Next() compute.Buffer { return d.slots[1-d.cur] }

// Index returns the index of the current slot.
func (d *DoubleBuffer) Index() int { return d.cur }

// Swap exchanges the roles of the two slots.
func (d *DoubleBuffer) Swap() { d.cur = 1 - d.cur }

// Sync copies the current slot into the next one through host memory.
func (d *DoubleBuffer) Sync() error {
	if err := d.backend.ReadFloats(d.Current(), d.host); err != nil {
		return fmt.Errorf("read %s: %w", d.Current().Label(), err)
	}
	if err := d.backend.WriteFloats(d.Next(), d.host); err != nil {
		return fmt.Errorf("write %s: %w", d.Next().Label(), err)
	}
	return nil
}

// Read copies the current slot into dst.
func (d *DoubleBuffer) Read(dst []float32) error {
	return d.backend.ReadFloats(d.Current(), dst)
}

// Release frees both slots.
func (d *DoubleBuffer) Release() {
	for i, buf := range d.slots {
		if buf != nil {
			d.backend.ReleaseBuffer(buf)
			d.slots[i] = nil
		}
	}
}
