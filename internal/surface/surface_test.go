package surface_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/mpowiggle/internal/surface"
)

func TestCanvasResizeClears(t *testing.T) {
	c := surface.NewCanvas()
	c.Resize(4, 3)
	surface.Fill(c, color.White)
	c.Resize(5, 2)

	assert.Equal(t, image.Rect(0, 0, 5, 2), c.Bounds())
	assert.Equal(t, color.RGBA{}, c.RGBAAt(0, 0))

	c.Resize(-1, 2)
	assert.True(t, c.Bounds().Empty())
}

func TestDisplayPaintSnapshot(t *testing.T) {
	var presented []image.Image
	d := surface.NewDisplay(surface.PresenterFunc(func(m image.Image) error {
		presented = append(presented, m)
		return nil
	}))

	require.NoError(t, d.Paint(func(s surface.Surface) bool {
		s.Resize(2, 2)
		surface.Fill(s, color.RGBA{R: 255, A: 255})
		return true
	}))
	snap := d.Snapshot()

	require.NoError(t, d.Paint(func(s surface.Surface) bool {
		s.Resize(2, 2)
		surface.Fill(s, color.RGBA{G: 255, A: 255})
		return true
	}))
	// skipped paint is not presented
	require.NoError(t, d.Paint(func(s surface.Surface) bool { return false }))

	// snapshot is a copy
	assert.Equal(t, color.RGBA{R: 255, A: 255}, snap.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, d.Snapshot().RGBAAt(1, 1))
	assert.Len(t, presented, 2)
	assert.Equal(t, 2, d.Frames())
}

func TestDisplayNilPresenter(t *testing.T) {
	d := surface.NewDisplay(nil)
	require.NoError(t, d.Paint(func(s surface.Surface) bool { s.Resize(1, 1); return true }))
	assert.Equal(t, image.Rect(0, 0, 1, 1), d.Snapshot().Bounds())
}
