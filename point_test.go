package bundle

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPoint_Add(t *testing.T) {
	p := Point{X: 1, Y: 2, Z: 3, Attributes: []float32{10, 20}}
	q := Point{X: 4, Y: 5, Z: 6, Attributes: []float32{1, 2}}

	got, err := p.Add(q)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	want := Point{X: 5, Y: 7, Z: 9, Attributes: []float32{11, 22}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Add() mismatch (-want +got):\n%s", diff)
	}
}

func TestPoint_AttributeShapeMismatch(t *testing.T) {
	p := Point{Attributes: []float32{1}}
	q := Point{Attributes: []float32{1, 2}}

	if _, err := p.Add(q); !errors.Is(err, ErrAttributeShape) {
		t.Errorf("Add() error = %v, want ErrAttributeShape", err)
	}
	if _, err := p.Lerp(q, 0.5); !errors.Is(err, ErrAttributeShape) {
		t.Errorf("Lerp() error = %v, want ErrAttributeShape", err)
	}
}

func TestPoint_Scale(t *testing.T) {
	p := Point{X: 1, Y: -2, Z: 3, Attributes: []float32{4}}
	want := Point{X: 2, Y: -4, Z: 6, Attributes: []float32{8}}
	if diff := cmp.Diff(want, p.Scale(2)); diff != "" {
		t.Errorf("Scale() mismatch (-want +got):\n%s", diff)
	}
	if p.Attributes[0] != 4 {
		t.Error("Scale() modified the receiver's attributes")
	}
}

func TestPoint_Lerp(t *testing.T) {
	p := Point{X: 0, Y: 0, Z: 0, Attributes: []float32{0}}
	q := Point{X: 10, Y: 20, Z: -10, Attributes: []float32{100}}

	tests := []struct {
		t    float32
		want Point
	}{
		{0, p},
		{1, q},
		{0.25, Point{X: 2.5, Y: 5, Z: -2.5, Attributes: []float32{25}}},
	}
	for _, tt := range tests {
		got, err := p.Lerp(q, tt.t)
		if err != nil {
			t.Fatalf("Lerp(%v) error = %v", tt.t, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Lerp(%v) = %+v, want %+v", tt.t, got, tt.want)
		}
	}
}

func TestPoint_Distance(t *testing.T) {
	if got := Pt(0, 0, 0).Distance(Pt(1, 2, 2)); math.Abs(got-3) > 1e-12 {
		t.Errorf("Distance() = %v, want 3", got)
	}
}

func TestPoint_CloneIsDeep(t *testing.T) {
	p := Point{X: 1, Attributes: []float32{1, 2}}
	c := p.Clone()
	c.Attributes[0] = 99
	if p.Attributes[0] != 1 {
		t.Error("Clone() shares attribute storage")
	}
}
