// Package scheduler drives the live animation by toggling the active frame on
// a ticker and recomposing the display
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wader/mpowiggle/internal/metrics"
	"github.com/wader/mpowiggle/internal/session"
	"github.com/wader/mpowiggle/internal/surface"
	"go.uber.org/zap"
)

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Scheduler is safe for concurrent use. The ticker goroutine is the only
// painter of the display while running.
type Scheduler struct {
	sess    *session.Session
	display *surface.Display
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks atomic.Int64
}

func New(sess *session.Session, display *surface.Display, log *zap.Logger) *Scheduler {
	return &Scheduler{sess: sess, display: display, log: log}
}

// Start stops any running ticker, paints the current frame and starts ticking
// at the playback frame interval. Settings are read once here, call Restart
// after changing them.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	snap := s.sess.Snapshot()
	s.paint(snap)
	s.ticks.Store(0)
	metrics.SchedulerRestartsTotal.Inc()

	interval := snap.Playback.FrameInterval()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.log.Debug("scheduler start",
		zap.Stringer("frame", snap.Frame),
		zap.Stringer("alignment", snap.Alignment),
		zap.Duration("interval", interval),
	)

	go func() {
		defer close(done)
		t := newTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				// cancel might race with the tick, never paint after it
				if ctx.Err() != nil {
					return
				}
				s.Tick()
			}
		}
	}()
}

// Restart is Start, used after settings changes
func (s *Scheduler) Restart(ctx context.Context) {
	s.Start(ctx)
}

// Stop cancels the ticker and waits for it to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Tick toggles the active frame and paints it
func (s *Scheduler) Tick() {
	s.sess.Toggle()
	s.paint(s.sess.Snapshot())
	s.ticks.Add(1)
}

func (s *Scheduler) paint(snap session.Snapshot) {
	composed := false
	err := s.display.Paint(func(sf surface.Surface) bool {
		composed = snap.Compose(sf)
		return composed
	})
	if err != nil {
		s.log.Warn("present frame", zap.Error(err))
	}
	if composed {
		metrics.FramesComposedTotal.Inc()
	}
}

// State is Running from Start until Stop or the Start context is done
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return Stopped
	}
	select {
	case <-s.done:
		return Stopped
	default:
		return Running
	}
}

// Ticks returns number of ticks since last Start
func (s *Scheduler) Ticks() int64 {
	return s.ticks.Load()
}
