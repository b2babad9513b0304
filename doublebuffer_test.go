package bundle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/bundle/compute"
)

func newInitializedSoftware(t *testing.T) compute.Backend {
	t.Helper()
	b := newSoftware()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func readSlot(t *testing.T, b compute.Backend, buf compute.Buffer) []float32 {
	t.Helper()
	out := make([]float32, buf.Len())
	if err := b.ReadFloats(buf, out); err != nil {
		t.Fatalf("ReadFloats(%s) error = %v", buf.Label(), err)
	}
	return out
}

func TestDoubleBuffer_InitialSlots(t *testing.T) {
	b := newInitializedSoftware(t)
	d, err := NewDoubleBuffer(b, "points", []float32{1, 2, 3, 0}, []float32{5, 6, 7, 0})
	if err != nil {
		t.Fatalf("NewDoubleBuffer() error = %v", err)
	}
	defer d.Release()

	if d.Index() != 0 {
		t.Errorf("Index() = %d, want 0", d.Index())
	}
	if got := readSlot(t, b, d.Current()); !cmp.Equal(got, []float32{1, 2, 3, 0}) {
		t.Errorf("Current() = %v, want initial current", got)
	}
	if got := readSlot(t, b, d.Next()); !cmp.Equal(got, []float32{5, 6, 7, 0}) {
		t.Errorf("Next() = %v, want initial next", got)
	}
}

func TestDoubleBuffer_SwapSync(t *testing.T) {
	b := newInitializedSoftware(t)
	d, err := NewDoubleBuffer(b, "points", []float32{1, 1, 1, 0}, []float32{1, 1, 1, 0})
	if err != nil {
		t.Fatalf("NewDoubleBuffer() error = %v", err)
	}
	defer d.Release()

	written := []float32{9, 8, 7, 0}
	for step := range 3 {
		// A pass writes the next slot.
		if err := b.WriteFloats(d.Next(), written); err != nil {
			t.Fatalf("WriteFloats() error = %v", err)
		}
		before := d.Index()
		d.Swap()
		if d.Index() == before {
			t.Fatalf("step %d: Swap() did not change the current slot", step)
		}
		if err := d.Sync(); err != nil {
			t.Fatalf("step %d: Sync() error = %v", step, err)
		}
		cur, next := readSlot(t, b, d.Current()), readSlot(t, b, d.Next())
		if !cmp.Equal(cur, written) {
			t.Errorf("step %d: Current() = %v, want %v", step, cur, written)
		}
		if !cmp.Equal(cur, next) {
			t.Errorf("step %d: slots differ after Sync: %v vs %v", step, cur, next)
		}
		written = []float32{written[0] + 1, written[1], written[2], 0}
	}

	dst := make([]float32, 4)
	if err := d.Read(dst); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if dst[0] != 11 {
		t.Errorf("Read()[0] = %v, want 11", dst[0])
	}
}

func TestDoubleBuffer_Errors(t *testing.T) {
	b := newInitializedSoftware(t)
	if _, err := NewDoubleBuffer(b, "points", make([]float32, 4), make([]float32, 8)); !errors.Is(err, compute.ErrArgument) {
		t.Errorf("NewDoubleBuffer(mismatched) error = %v, want ErrArgument", err)
	}

	closed := newSoftware()
	if _, err := NewDoubleBuffer(closed, "points", make([]float32, 4), make([]float32, 4)); !errors.Is(err, compute.ErrNotInitialized) {
		t.Errorf("NewDoubleBuffer(uninitialized) error = %v, want ErrNotInitialized", err)
	}

	d, err := NewDoubleBuffer(b, "points", make([]float32, 4), make([]float32, 4))
	if err != nil {
		t.Fatalf("NewDoubleBuffer() error = %v", err)
	}
	d.Release()
	d.Release() // idempotent
	if d.Current() != nil || d.Next() != nil {
		t.Error("slots not cleared after Release()")
	}
}
