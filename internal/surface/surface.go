// Package surface has the draw targets frames are composed onto
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Surface is a draw target that can be resized. Resize clears content.
type Surface interface {
	draw.Image
	Resize(width, height int)
}

// Canvas is an offscreen RGBA surface
type Canvas struct {
	*image.RGBA
}

// NewCanvas returns an empty canvas
func NewCanvas() *Canvas {
	return &Canvas{RGBA: image.NewRGBA(image.Rectangle{})}
}

// Resize replaces the pixel buffer with a transparent one of the new size
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.RGBA = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Clone returns a copy of the current pixels
func (c *Canvas) Clone() *image.RGBA {
	m := image.NewRGBA(c.Bounds())
	copy(m.Pix, c.Pix)
	return m
}

// Presenter shows a composed frame somewhere visible, m is only valid during
// the call
type Presenter interface {
	Present(m image.Image) error
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(m image.Image) error

func (fn PresenterFunc) Present(m image.Image) error { return fn(m) }

// Display is the live surface. Paint composes and presents under one lock so
// a Snapshot always sees a whole frame.
type Display struct {
	mu        sync.Mutex
	canvas    *Canvas
	presenter Presenter
	frames    int
}

// NewDisplay returns a display presenting to p, p can be nil
func NewDisplay(p Presenter) *Display {
	return &Display{canvas: NewCanvas(), presenter: p}
}

// Paint runs fn with the display surface and presents the result if fn
// returns true
func (d *Display) Paint(fn func(s Surface) bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !fn(d.canvas) {
		return nil
	}
	d.frames++
	if d.presenter == nil {
		return nil
	}
	return d.presenter.Present(d.canvas.RGBA)
}

// Snapshot returns a copy of the last painted frame
func (d *Display) Snapshot() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canvas.Clone()
}

// Frames returns number of painted frames
func (d *Display) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Fill fills the whole surface with c
func Fill(s draw.Image, c color.Color) {
	draw.Draw(s, s.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
