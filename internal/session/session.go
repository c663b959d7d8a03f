// Package session holds the loaded pair and current settings
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wader/mpowiggle/internal/compose"
	"github.com/wader/mpowiggle/internal/stereo"
	"github.com/wader/mpowiggle/internal/surface"
	"github.com/wader/mpowiggle/internal/wiggle"
)

// ErrInvalidSettings is returned when a setting is out of range
var ErrInvalidSettings = errors.New("invalid settings")

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Pair      *stereo.Pair
	Alignment wiggle.Alignment
	Playback  wiggle.Playback
	Frame     wiggle.Frame
}

// Compose draws the snapshot active frame on target
func (s Snapshot) Compose(target surface.Surface) bool {
	return compose.Compose(s.Pair, s.Alignment, s.Frame, target)
}

// ComposeFrame draws frame f on target using the snapshot settings
func (s Snapshot) ComposeFrame(f wiggle.Frame, target surface.Surface) bool {
	return compose.Compose(s.Pair, s.Alignment, f, target)
}

// Session is safe for concurrent use
type Session struct {
	mu        sync.RWMutex
	pair      *stereo.Pair
	alignment wiggle.Alignment
	playback  wiggle.Playback
	frame     wiggle.Frame
}

// New returns a session without a pair
func New(a wiggle.Alignment, p wiggle.Playback) (*Session, error) {
	if err := validate(nil, a, p); err != nil {
		return nil, err
	}
	return &Session{alignment: a, playback: p}, nil
}

func validate(pair *stereo.Pair, a wiggle.Alignment, p wiggle.Playback) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, err)
	}
	if a.Offset < 0 {
		return fmt.Errorf("%w: offset %d must be >= 0", ErrInvalidSettings, a.Offset)
	}
	if a.Mode != wiggle.Crop && a.Mode != wiggle.Pad {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, a.Mode)
	}
	if pair != nil && a.Mode == wiggle.Crop && a.Offset >= pair.Width {
		return fmt.Errorf("%w: crop offset %d must be < width %d", ErrInvalidSettings, a.Offset, pair.Width)
	}
	return nil
}

// Load replaces the pair and resets the active frame to left. A crop offset
// that does not fit the new pair is clamped.
func (s *Session) Load(pair *stereo.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.frame = wiggle.Left
	if pair != nil && s.alignment.Mode == wiggle.Crop && s.alignment.Offset >= pair.Width {
		s.alignment.Offset = max(pair.Width-1, 0)
	}
}

// SetAlignment changes offset and mode, session is unchanged on error
func (s *Session) SetAlignment(a wiggle.Alignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(s.pair, a, s.playback); err != nil {
		return err
	}
	s.alignment = a
	return nil
}

// SetPlayback changes speed, session is unchanged on error
func (s *Session) SetPlayback(p wiggle.Playback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(s.pair, s.alignment, p); err != nil {
		return err
	}
	s.playback = p
	return nil
}

// Toggle switches the active frame and returns the new one
func (s *Session) Toggle() wiggle.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = s.frame.Toggle()
	return s.frame
}

func (s *Session) Pair() *stereo.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *Session) Alignment() wiggle.Alignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alignment
}

func (s *Session) Playback() wiggle.Playback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

func (s *Session) Frame() wiggle.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Snapshot returns all state read under one lock
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Pair:      s.pair,
		Alignment: s.alignment,
		Playback:  s.playback,
		Frame:     s.frame,
	}
}
