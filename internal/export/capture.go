package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/wader/mpowiggle/internal/compose"
	"github.com/wader/mpowiggle/internal/metrics"
	"github.com/wader/mpowiggle/internal/surface"
	"go.uber.org/zap"
)

// DefaultCaptureDuration is how long the live display is captured
const DefaultCaptureDuration = 5 * time.Second

// Recorder encodes a stream of frames into a video container
type Recorder interface {
	// Available returns an error if the recorder can't run in this environment
	Available(ctx context.Context) error
	Start(ctx context.Context, size image.Point, fps float64) error
	WriteFrame(m image.Image) error
	Stop() ([]byte, error)
}

// Capture samples the live display at the capture frame rate for Duration
// and feeds the frames to a recorder
type Capture struct {
	Name        string
	ContentType string
	Duration    time.Duration
	NewRecorder func() Recorder
	Log         *zap.Logger
}

func (c *Capture) Kind() Kind { return CapturedStream }

func (c *Capture) duration() time.Duration {
	if c.Duration <= 0 {
		return DefaultCaptureDuration
	}
	return c.Duration
}

// FrameCount is number of frames sampled during d at fps, at least 1
func FrameCount(d time.Duration, fps float64) int {
	n := int(math.Round(d.Seconds() * fps))
	if n < 1 {
		return 1
	}
	return n
}

// SampleInterval is the time between captured frames, at least a nanosecond
func SampleInterval(fps float64) time.Duration {
	return max(time.Duration(float64(time.Second)/fps), time.Nanosecond)
}

// normalize draws m at the origin of a size canvas if the display changed
// size during capture
func normalize(m *image.RGBA, size image.Point) image.Image {
	if m.Bounds().Size() == size {
		return m
	}
	n := image.NewRGBA(image.Rectangle{Max: size})
	surface.Fill(n, compose.PadColor)
	draw.Draw(n, n.Bounds(), m, m.Bounds().Min, draw.Src)
	return n
}

func (c *Capture) Export(ctx context.Context, src Source) (*Artifact, error) {
	if src.Display == nil {
		return nil, fmt.Errorf("%w: no display to capture", ErrCaptureUnsupported)
	}
	r := c.NewRecorder()
	if err := r.Available(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCaptureUnsupported, err)
	}

	first := src.Display.Snapshot()
	size := first.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("%w: display is empty", ErrCaptureUnsupported)
	}

	fps := src.Snapshot.Playback.CaptureFPS()
	frames := FrameCount(c.duration(), fps)
	interval := SampleInterval(fps)

	if err := r.Start(ctx, size, fps); err != nil {
		return nil, err
	}

	err := func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		m := first
		for i := 0; ; i++ {
			if err := r.WriteFrame(normalize(m, size)); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			metrics.CapturedFramesTotal.Inc()
			if i+1 == frames {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
			m = src.Display.Snapshot()
		}
	}()

	b, stopErr := r.Stop()
	if err := errors.Join(err, stopErr); err != nil {
		return nil, err
	}

	if c.Log != nil {
		c.Log.Debug("capture done",
			zap.Int("frames", frames),
			zap.Float64("fps", fps),
			zap.Stringer("size", size),
		)
	}

	return &Artifact{Name: c.Name, ContentType: c.ContentType, Data: b}, nil
}
