// Package wiggle has the alignment, playback and frame types shared by the
// compositor, scheduler and exporters
package wiggle

import (
	"fmt"
	"strings"
	"time"
)

// Mode is how the offset is applied
type Mode int

const (
	// Crop shrinks the output by offset and samples each side from opposite edges
	Crop Mode = iota
	// Pad grows the output by offset and shifts the left frame right
	Pad
)

func (m Mode) String() string {
	switch m {
	case Crop:
		return "crop"
	case Pad:
		return "pad"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Toggle returns the other mode
func (m Mode) Toggle() Mode {
	if m == Crop {
		return Pad
	}
	return Crop
}

// ParseMode parses "crop" or "pad"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "crop":
		return Crop, nil
	case "pad":
		return Pad, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Alignment is the horizontal offset between left and right in pixels
type Alignment struct {
	Offset int
	Mode   Mode
}

func (a Alignment) String() string {
	return fmt.Sprintf("%s %dpx", a.Mode, a.Offset)
}

// Frame is which of the two images is shown
type Frame int

const (
	Left Frame = iota
	Right
)

func (f Frame) String() string {
	if f == Right {
		return "right"
	}
	return "left"
}

// Toggle returns the other frame
func (f Frame) Toggle() Frame {
	if f == Left {
		return Right
	}
	return Left
}

// Playback speed is number of full left+right cycles per second
type Playback struct {
	Speed float64
}

// FrameIntervalMs is time each frame is shown, a cycle is two frames
func (p Playback) FrameIntervalMs() float64 {
	return 1000 / (2 * p.Speed)
}

// FrameInterval is FrameIntervalMs as a duration
func (p Playback) FrameInterval() time.Duration {
	return time.Duration(p.FrameIntervalMs() * float64(time.Millisecond))
}

// Validate returns an error unless speed is positive and gives a frame
// interval of at least a nanosecond
func (p Playback) Validate() error {
	if !(p.Speed > 0) {
		return fmt.Errorf("speed %g must be > 0", p.Speed)
	}
	if p.FrameInterval() <= 0 {
		return fmt.Errorf("speed %g is too fast", p.Speed)
	}
	return nil
}

// CaptureFPS is the frame rate used when capturing the live animation
func (p Playback) CaptureFPS() float64 {
	return 2 * p.Speed
}

func (p Playback) String() string {
	return fmt.Sprintf("%gx (%gms)", p.Speed, p.FrameIntervalMs())
}
