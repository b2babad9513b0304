// Package preview renders track sets to raster images for quick visual
// inspection of bundling results.
//
// Tracks are projected orthographically onto the XY plane and fitted into
// the image with a uniform scale. Each segment is stroked as a thin quad
// through golang.org/x/image/vector, one coverage pass per colour.
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/bundle"
)

// ErrSize reports a non-positive image size.
var ErrSize = errors.New("preview: image size must be positive")

// DefaultPalette colours clusters in order, wrapping around.
var DefaultPalette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

// Options controls rendering.
type Options struct {
	Width, Height int

	// Padding is the margin in pixels around the fitted tracks.
	Padding float32

	// LineWidth is the stroke width in pixels.
	LineWidth float32

	Background color.Color

	// Clusters maps track index to cluster id. When nil every track uses
	// the first palette colour.
	Clusters []int
	Palette  []color.Color

	// Ghost tracks are drawn first in GhostColor, typically the originals
	// behind the bundled result. They share the fit of the main tracks.
	Ghost      []bundle.Track
	GhostColor color.Color

	// Caption is drawn in the top-left corner when non-empty.
	Caption string
}

// DefaultOptions returns 1024x1024 options on a white background.
func DefaultOptions() Options {
	return Options{
		Width:      1024,
		Height:     1024,
		Padding:    16,
		LineWidth:  1,
		Background: color.White,
		Palette:    DefaultPalette,
		GhostColor: color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff},
	}
}

// fit maps XY positions into pixel space, flipping Y so that +Y is up.
type fit struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func newFit(tracks []bundle.Track, o Options) fit {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range tracks {
		for _, p := range t {
			minX, maxX = min(minX, float64(p.X)), max(maxX, float64(p.X))
			minY, maxY = min(minY, float64(p.Y)), max(maxY, float64(p.Y))
		}
	}
	if math.IsInf(minX, 1) {
		return fit{scale: 1}
	}

	pad := float64(o.Padding)
	w := max(float64(o.Width)-2*pad, 1)
	h := max(float64(o.Height)-2*pad, 1)
	dx, dy := maxX-minX, maxY-minY
	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = min(w/dx, h/dy)
	case dx > 0:
		scale = w / dx
	case dy > 0:
		scale = h / dy
	}
	return fit{
		minX:  minX,
		maxY:  maxY,
		scale: scale,
		offX:  pad + (w-dx*scale)/2,
		offY:  pad + (h-dy*scale)/2,
	}
}

func (f fit) apply(p bundle.Point) (float32, float32) {
	x := f.offX + (float64(p.X)-f.minX)*f.scale
	y := f.offY + (f.maxY-float64(p.Y))*f.scale
	return float32(x), float32(y)
}

// Render draws tracks into a new RGBA image.
func Render(tracks []bundle.Track, o Options) (*image.RGBA, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, ErrSize
	}
	if len(o.Palette) == 0 {
		o.Palette = DefaultPalette
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 1
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.GhostColor == nil {
		o.GhostColor = DefaultOptions().GhostColor
	}

	img := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(o.Background), image.Point{}, draw.Src)

	all := append(append([]bundle.Track(nil), tracks...), o.Ghost...)
	f := newFit(all, o)
	r := vector.NewRasterizer(o.Width, o.Height)

	if len(o.Ghost) > 0 {
		r.Reset(o.Width, o.Height)
		for _, t := range o.Ghost {
			strokeTrack(r, f, t, o.LineWidth)
		}
		r.Draw(img, img.Bounds(), image.NewUniform(o.GhostColor), image.Point{})
	}

	// Group tracks by colour so each colour needs one coverage pass.
	groups := make(map[int][]int)
	order := []int{}
	for i := range tracks {
		c := 0
		if i < len(o.Clusters) {
			c = o.Clusters[i] % len(o.Palette)
		}
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], i)
	}
	for _, c := range order {
		r.Reset(o.Width, o.Height)
		for _, i := range groups[c] {
			strokeTrack(r, f, tracks[i], o.LineWidth)
		}
		r.Draw(img, img.Bounds(), image.NewUniform(o.Palette[c]), image.Point{})
	}

	if o.Caption != "" {
		drawCaption(img, o.Caption)
	}
	return img, nil
}

// strokeTrack adds one quad per segment to r. Every quad winds the same
// way, so overlapping segments accumulate instead of cancelling.
func strokeTrack(r *vector.Rasterizer, f fit, t bundle.Track, width float32) {
	half := width / 2
	for k := 0; k+1 < len(t); k++ {
		x0, y0 := f.apply(t[k])
		x1, y1 := f.apply(t[k+1])
		dx, dy := x1-x0, y1-y0
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.MoveTo(x0+nx, y0+ny)
		r.LineTo(x1+nx, y1+ny)
		r.LineTo(x1-nx, y1-ny)
		r.LineTo(x0-nx, y0-ny)
		r.ClosePath()
	}
}

func drawCaption(img draw.Image, s string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(4, face.Metrics().Ascent.Ceil()+2),
	}
	d.DrawString(s)
}

// SavePNG encodes img as PNG at path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}
