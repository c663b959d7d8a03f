// Package compose draws one frame of a stereo pair onto a surface
package compose

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wader/mpowiggle/internal/stereo"
	"github.com/wader/mpowiggle/internal/surface"
	"github.com/wader/mpowiggle/internal/wiggle"
)

// PadColor is the background for the uncovered area in pad mode
var PadColor = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}

// Layout is the geometry of one composed frame. Src is relative to the source
// image origin, Dst is where Src.Min ends up on the target.
type Layout struct {
	Size image.Point
	Src  image.Rectangle
	Dst  image.Point
}

// NewLayout returns the layout for an image of size in alignment a showing f
//
// Crop: size is (w-offset, h), left is sampled from x=0 and right from
// x=offset, both drawn at the origin.
// Pad: size is (w+offset, h), left is drawn at x=offset and right at x=0.
func NewLayout(size image.Point, a wiggle.Alignment, f wiggle.Frame) Layout {
	offset := a.Offset
	if offset < 0 {
		offset = 0
	}

	switch a.Mode {
	case wiggle.Pad:
		l := Layout{
			Size: image.Pt(size.X+offset, size.Y),
			Src:  image.Rect(0, 0, size.X, size.Y),
		}
		if f == wiggle.Left {
			l.Dst = image.Pt(offset, 0)
		}
		return l
	default:
		w := size.X - offset
		if w < 0 {
			w = 0
		}
		l := Layout{Size: image.Pt(w, size.Y)}
		if f == wiggle.Left {
			l.Src = image.Rect(0, 0, w, size.Y)
		} else {
			l.Src = image.Rect(offset, 0, offset+w, size.Y)
		}
		return l
	}
}

// DstRect is the destination rectangle on the target
func (l Layout) DstRect() image.Rectangle {
	return image.Rectangle{Min: l.Dst, Max: l.Dst.Add(l.Src.Size())}
}

// Compose resizes target and draws one side of pair on it. Returns false and
// leaves target untouched if pair is not complete.
func Compose(pair *stereo.Pair, a wiggle.Alignment, f wiggle.Frame, target surface.Surface) bool {
	if !pair.Complete() {
		return false
	}

	src := pair.Left
	if f == wiggle.Right {
		src = pair.Right
	}
	l := NewLayout(pair.Size(), a, f)

	target.Resize(l.Size.X, l.Size.Y)
	if a.Mode == wiggle.Pad {
		surface.Fill(target, PadColor)
	}
	draw.Draw(target, l.DstRect(), src, src.Bounds().Min.Add(l.Src.Min), draw.Src)

	return true
}
