// Package iterm2 shows images inline in iTerm2 compatible terminals
package iterm2

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

// TODO: query terminal instead, WezTerm and others also support the protocol
func IsCompatible() bool {
	return os.Getenv("TERM_PROGRAM") == "iTerm.app"
}

// Image writes m as an inline image escape sequence
func Image(w io.Writer, m image.Image) error {
	buf := &bytes.Buffer{}
	buf.WriteString("\x1b]1337;File=inline=1;size=")
	pngBuf := &bytes.Buffer{}
	if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(pngBuf, m); err != nil {
		return err
	}
	buf.WriteString(strconv.Itoa(pngBuf.Len()))
	buf.WriteString(":")
	enc := base64.NewEncoder(base64.StdEncoding, buf)
	enc.Write(pngBuf.Bytes())
	enc.Close()
	buf.WriteString("\x07")

	_, err := w.Write(buf.Bytes())
	return err
}

type CellSize struct {
	Width  float64
	Height float64
	Scale  float64
}

// parseCellSize parses a ReportCellSize response, note order is height;width[;scale]
//
//	"\x1b]1337;ReportCellSize=14.0;6.0;1.0\x1b\\"
func parseCellSize(s string) (CellSize, error) {
	const prefix = "ReportCellSize="
	start := strings.Index(s, prefix)
	if start == -1 {
		return CellSize{}, errors.New("no cell size in response")
	}
	s = s[start+len(prefix):]
	if stop := strings.Index(s, "\x1b\\"); stop != -1 {
		s = s[:stop]
	}

	parts := strings.Split(s, ";")
	sz := CellSize{Scale: 1}
	var err error
	if sz.Height, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return CellSize{}, fmt.Errorf("cell height: %w", err)
	}
	if len(parts) > 1 {
		if sz.Width, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return CellSize{}, fmt.Errorf("cell width: %w", err)
		}
	}
	if len(parts) > 2 {
		if sz.Scale, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return CellSize{}, fmt.Errorf("cell scale: %w", err)
		}
	}
	return sz, nil
}

// ReportCellSize asks the terminal for its cell size in points
func ReportCellSize(f *os.File) (sz CellSize, err error) {
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return CellSize{}, err
	}
	defer func() {
		if rErr := term.Restore(int(f.Fd()), state); err == nil {
			err = rErr
		}
	}()

	if _, err := f.Write([]byte("\x1b]1337;ReportCellSize\x07")); err != nil {
		return CellSize{}, err
	}
	b := make([]byte, 64)
	n, err := f.Read(b)
	if err != nil {
		return CellSize{}, err
	}
	return parseCellSize(string(b[:n]))
}

type Resolution struct {
	Width       int
	Height      int
	WidthAlign  int
	HeightAlign int
}

// PixelResolution returns terminal size in pixels
func PixelResolution(f *os.File) (Resolution, error) {
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return Resolution{}, err
	}
	sz, err := ReportCellSize(f)
	if err != nil {
		return Resolution{}, err
	}

	cw := int(sz.Width * sz.Scale)
	ch := int(sz.Height * sz.Scale)
	return Resolution{
		Width:       w * cw,
		Height:      h * ch,
		WidthAlign:  cw,
		HeightAlign: ch,
	}, nil
}

// Fit scales m down to fit within max keeping aspect ratio, zero max means no limit
func Fit(m image.Image, max image.Point) image.Image {
	size := m.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return m
	}
	scale := 1.0
	if max.X > 0 && size.X > max.X {
		scale = float64(max.X) / float64(size.X)
	}
	if max.Y > 0 && float64(size.Y)*scale > float64(max.Y) {
		scale = float64(max.Y) / float64(size.Y)
	}
	if scale == 1 {
		return m
	}

	w := int(float64(size.X)*scale + 0.5)
	h := int(float64(size.Y)*scale + 0.5)
	dst := image.NewRGBA(image.Rect(0, 0, max1(w), max1(h)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), m, m.Bounds(), xdraw.Src, nil)
	return dst
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Presenter redraws frames in place by saving the cursor before the first
// frame and restoring it before each following one
type Presenter struct {
	W   io.Writer
	Max image.Point

	mu    sync.Mutex
	saved bool
}

func (p *Presenter) Present(m image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.saved {
		if _, err := p.W.Write([]byte("\x1b7")); err != nil {
			return err
		}
		p.saved = true
	} else if _, err := p.W.Write([]byte("\x1b8")); err != nil {
		return err
	}
	return Image(p.W, Fit(m, p.Max))
}
