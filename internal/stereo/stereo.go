// Package stereo decodes the left and right image of a MPO container
package stereo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/wader/mpowiggle/internal/mpo"
	"golang.org/x/sync/errgroup"
)

// ErrImageDecode is returned when one of the images fails to decode
var ErrImageDecode = errors.New("image decode failed")

// Pair is a decoded stereo pair. Size is taken from Left, Right is assumed to
// have the same size.
type Pair struct {
	Left   image.Image
	Right  image.Image
	Width  int
	Height int
}

// NewPair returns a pair from already decoded images
func NewPair(left, right image.Image) *Pair {
	p := &Pair{Left: left, Right: right}
	if left != nil {
		p.Width = left.Bounds().Dx()
		p.Height = left.Bounds().Dy()
	}
	return p
}

// Complete reports if both images are present
func (p *Pair) Complete() bool {
	return p != nil && p.Left != nil && p.Right != nil
}

// Size returns width and height as a point
func (p *Pair) Size() image.Point {
	return image.Point{X: p.Width, Y: p.Height}
}

func decodeSide(ctx context.Context, side string, b []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrImageDecode, side, err)
	}
	return m, nil
}

// Decode splits raw and decodes both images concurrently. No pair is returned
// unless both decodes succeed.
func Decode(ctx context.Context, raw []byte) (*Pair, error) {
	h, err := mpo.Split(raw)
	if err != nil {
		return nil, err
	}

	var left, right image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		left, err = decodeSide(gctx, "left", h.Left.Bytes(raw))
		return err
	})
	g.Go(func() (err error) {
		right, err = decodeSide(gctx, "right", h.Right.Bytes(raw))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewPair(left, right), nil
}
