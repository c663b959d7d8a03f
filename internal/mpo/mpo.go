// Package mpo splits a Multi-Picture Object file into its left and right JPEG
package mpo

import (
	"errors"
	"fmt"

	jseg "github.com/garyhouston/jpegsegs"
)

// ErrMalformedContainer is returned when the SOS or SOI marker is missing
var ErrMalformedContainer = errors.New("malformed container")

// Range is a half-open byte range [Start, End)
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Bytes returns the range as a subslice of b
func (r Range) Bytes(b []byte) []byte { return b[r.Start:r.End] }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Halves is the two image ranges of a container
type Halves struct {
	Left  Range
	Right Range
}

// indexMarker returns index of the first 0xff marker pair at or after from, -1 if none
func indexMarker(b []byte, from int, marker jseg.Marker) int {
	for i := from; i+1 < len(b); i++ {
		if b[i] == 0xff && b[i+1] == byte(marker) {
			return i
		}
	}
	return -1
}

// Split finds the second image by looking for the first SOI marker
// after the first SOS marker. Segment structure is not parsed, any bytes
// before the first SOS are ignored as they might contain marker like pairs.
func Split(b []byte) (Halves, error) {
	sos := indexMarker(b, 0, jseg.SOS)
	if sos == -1 {
		return Halves{}, fmt.Errorf("%w: no SOS marker", ErrMalformedContainer)
	}
	soi := indexMarker(b, sos, jseg.SOI)
	if soi == -1 {
		return Halves{}, fmt.Errorf("%w: no SOI marker after SOS at %d", ErrMalformedContainer, sos)
	}

	return Halves{
		Left:  Range{Start: 0, End: soi},
		Right: Range{Start: soi, End: len(b)},
	}, nil
}
