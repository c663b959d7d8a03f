package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"time"

	"github.com/kettek/apng"
	"github.com/wader/mpowiggle/internal/surface"
	"github.com/wader/mpowiggle/internal/wiggle"
)

// SequenceEncoder encodes a looping animation from frames and delays
type SequenceEncoder interface {
	AddFrame(m image.Image, delay time.Duration) error
	Finalize() ([]byte, error)
}

// Sequence composes left and right onto fresh canvases and encodes them as
// a two frame looping animation
type Sequence struct {
	Name        string
	ContentType string
	NewEncoder  func() (SequenceEncoder, error)
}

func (s *Sequence) Kind() Kind { return FrameSequence }

func (s *Sequence) Export(ctx context.Context, src Source) (*Artifact, error) {
	enc, err := s.NewEncoder()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncodingUnavailable, err)
	}

	delay := src.Snapshot.Playback.FrameInterval()
	for _, f := range []wiggle.Frame{wiggle.Left, wiggle.Right} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := surface.NewCanvas()
		if !src.Snapshot.ComposeFrame(f, c) {
			return nil, ErrNothingLoaded
		}
		if err := enc.AddFrame(c.RGBA, delay); err != nil {
			return nil, fmt.Errorf("%s frame: %w", f, err)
		}
	}

	b, err := enc.Finalize()
	if err != nil {
		return nil, err
	}

	return &Artifact{Name: s.Name, ContentType: s.ContentType, Data: b}, nil
}

// GIFDelay is delay in 1/100s, rounded and at least 1
func GIFDelay(d time.Duration) int {
	cs := int(math.Round(d.Seconds() * 100))
	if cs < 1 {
		return 1
	}
	return cs
}

type gifEncoder struct {
	g gif.GIF
}

// NewGIFEncoder quantizes frames to the plan9 palette with Floyd-Steinberg dithering
func NewGIFEncoder() (SequenceEncoder, error) {
	return &gifEncoder{g: gif.GIF{LoopCount: 0}}, nil
}

func (e *gifEncoder) AddFrame(m image.Image, delay time.Duration) error {
	b := m.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty frame %v", b)
	}
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, m, b.Min)
	e.g.Image = append(e.g.Image, p)
	e.g.Delay = append(e.g.Delay, GIFDelay(delay))
	return nil
}

func (e *gifEncoder) Finalize() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, &e.g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// APNGDelay is delay as a numerator/denominator fraction of a second, in
// 1/10000s or 1/1000s when that would overflow
func APNGDelay(d time.Duration) (uint16, uint16) {
	for _, den := range []float64{10000, 1000, 100, 1} {
		n := math.Round(d.Seconds() * den)
		if n <= math.MaxUint16 {
			return uint16(n), uint16(den)
		}
	}
	return math.MaxUint16, 1
}

type apngEncoder struct {
	a apng.APNG
}

func NewAPNGEncoder() (SequenceEncoder, error) {
	return &apngEncoder{a: apng.APNG{LoopCount: 0}}, nil
}

func (e *apngEncoder) AddFrame(m image.Image, delay time.Duration) error {
	if m.Bounds().Empty() {
		return fmt.Errorf("empty frame %v", m.Bounds())
	}
	num, den := APNGDelay(delay)
	e.a.Frames = append(e.a.Frames, apng.Frame{
		Image:            m,
		DelayNumerator:   num,
		DelayDenominator: den,
	})
	return nil
}

func (e *apngEncoder) Finalize() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := apng.Encode(buf, e.a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
