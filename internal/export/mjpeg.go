package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"

	"github.com/icza/mjpeg"
)

// MJPEGRecorder writes a Motion-JPEG AVI in-process, it only needs a
// writable temp directory
type MJPEGRecorder struct {
	TempDir string
	Quality int

	path string
	aw   mjpeg.AviWriter
	buf  bytes.Buffer
}

func (r *MJPEGRecorder) Available(ctx context.Context) error {
	f, err := os.CreateTemp(r.TempDir, "wiggle-*.avi")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}

func (r *MJPEGRecorder) Start(ctx context.Context, size image.Point, fps float64) error {
	f, err := os.CreateTemp(r.TempDir, "wiggle-*.avi")
	if err != nil {
		return err
	}
	r.path = f.Name()
	f.Close()

	// AVI frame rate is an integer
	rate := int32(math.Max(1, math.Round(fps)))
	aw, err := mjpeg.New(r.path, int32(size.X), int32(size.Y), rate)
	if err != nil {
		os.Remove(r.path)
		return fmt.Errorf("avi writer: %w", err)
	}
	r.aw = aw
	return nil
}

func (r *MJPEGRecorder) WriteFrame(m image.Image) error {
	quality := r.Quality
	if quality == 0 {
		quality = 90
	}
	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, m, &jpeg.Options{Quality: quality}); err != nil {
		return err
	}
	return r.aw.AddFrame(r.buf.Bytes())
}

func (r *MJPEGRecorder) Stop() ([]byte, error) {
	defer os.Remove(r.path)
	if err := r.aw.Close(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty avi")
	}
	return b, nil
}
