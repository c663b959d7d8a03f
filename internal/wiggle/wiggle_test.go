package wiggle_test

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/wader/mpowiggle/internal/wiggle"
)

func TestPlayback(t *testing.T) {
	testCases := []struct {
		speed              float64
		expectedMs         float64
		expectedInterval   time.Duration
		expectedCaptureFPS float64
	}{
		{speed: 8, expectedMs: 62.5, expectedInterval: 62500 * time.Microsecond, expectedCaptureFPS: 16},
		{speed: 4, expectedMs: 125, expectedInterval: 125 * time.Millisecond, expectedCaptureFPS: 8},
		{speed: 0.5, expectedMs: 1000, expectedInterval: time.Second, expectedCaptureFPS: 1},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			p := wiggle.Playback{Speed: tC.speed}
			if actual := p.FrameIntervalMs(); actual != tC.expectedMs {
				t.Errorf("expected %v, got %v", tC.expectedMs, actual)
			}
			if actual := p.FrameInterval(); actual != tC.expectedInterval {
				t.Errorf("expected %v, got %v", tC.expectedInterval, actual)
			}
			if actual := p.CaptureFPS(); actual != tC.expectedCaptureFPS {
				t.Errorf("expected %v, got %v", tC.expectedCaptureFPS, actual)
			}
		})
	}
}

func TestPlaybackValidate(t *testing.T) {
	testCases := []struct {
		speed float64
		err   bool
	}{
		{speed: 4},
		{speed: 0.01},
		{speed: 1e6},
		{speed: 0, err: true},
		{speed: -1, err: true},
		{speed: math.NaN(), err: true},
		{speed: math.Inf(1), err: true},
		{speed: 1e10, err: true},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			err := wiggle.Playback{Speed: tC.speed}.Validate()
			if tC.err && err == nil {
				t.Errorf("expected error for %g", tC.speed)
			} else if !tC.err && err != nil {
				t.Errorf("expected no error for %g, got %s", tC.speed, err)
			}
		})
	}
}

func TestFrameToggleParity(t *testing.T) {
	f := wiggle.Left
	for n := 1; n <= 9; n++ {
		f = f.Toggle()
		expected := wiggle.Left
		if n%2 == 1 {
			expected = wiggle.Right
		}
		if f != expected {
			t.Fatalf("after %d toggles expected %s, got %s", n, expected, f)
		}
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		s        string
		expected wiggle.Mode
		err      bool
	}{
		{s: "crop", expected: wiggle.Crop},
		{s: "PAD", expected: wiggle.Pad},
		{s: "stretch", err: true},
	}
	for _, tC := range testCases {
		t.Run(tC.s, func(t *testing.T) {
			actual, err := wiggle.ParseMode(tC.s)
			if tC.err {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if actual != tC.expected {
				t.Errorf("expected %s, got %s", tC.expected, actual)
			}
			if actual.Toggle().Toggle() != actual || actual.Toggle() == actual {
				t.Errorf("toggle of %s", actual)
			}
		})
	}
}
