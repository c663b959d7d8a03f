package mpo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	jseg "github.com/garyhouston/jpegsegs"
	tiff "github.com/garyhouston/tiff66"
)

// Segment is a marker segment in the first image header
type Segment struct {
	Name string
	Size int
}

// Entry is an image entry in the MPF index, Offset is from start of container
type Entry struct {
	Offset uint32
	Size   uint32
}

// Info is diagnostic information about a container. It is not used for
// splitting, MPF producers are not consistent enough.
type Info struct {
	Segments []Segment
	// MPFImages is the declared number of images, 0 if no MPF index
	MPFImages uint32
	Entries   []Entry
}

func (i Info) String() string {
	var sb strings.Builder
	for _, s := range i.Segments {
		fmt.Fprintf(&sb, "%s %d\n", s.Name, s.Size)
	}
	if i.MPFImages > 0 {
		fmt.Fprintf(&sb, "MPF %d images\n", i.MPFImages)
		for n, e := range i.Entries {
			fmt.Fprintf(&sb, "  %d: offset %d size %d\n", n+1, e.Offset, e.Size)
		}
	}
	return sb.String()
}

// Inspect reads the first image segments up to SOS and the MPF index if present
func Inspect(b []byte) (Info, error) {
	r := bytes.NewReader(b)
	scanner, err := jseg.NewScanner(r)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrMalformedContainer, err)
	}

	var info Info
	var mpfSegment []byte
	var mpfOffset uint32
	for {
		marker, buf, err := scanner.Scan()
		if err != nil {
			return info, fmt.Errorf("%w: %s", ErrMalformedContainer, err)
		}
		info.Segments = append(info.Segments, Segment{Name: marker.Name(), Size: len(buf)})
		if marker == jseg.SOS {
			break
		}
		if marker != jseg.APP0+2 {
			continue
		}
		if isMPF, next := jseg.GetMPFHeader(buf); isMPF {
			mpfSegment = append([]byte(nil), buf[next:]...)
			// entry offsets are relative to the byte after the MPF header
			pos := uint32(len(b) - r.Len())
			mpfOffset = pos - uint32(len(buf)) + next
		}
	}

	if mpfSegment == nil {
		return info, nil
	}
	mpfTree, err := jseg.GetMPFTree(mpfSegment)
	if err != nil {
		return info, err
	}
	if mpfTree.Space != tiff.MPFIndexSpace {
		return info, errors.New("MPF segment has no index")
	}
	order := mpfTree.Order
	for _, f := range mpfTree.Fields {
		switch f.Tag {
		case jseg.MPFNumberOfImages:
			info.MPFImages = f.Long(0, order)
		case jseg.MPFEntry:
			// 16 byte entries: attributes, size, offset, dependent images
			for i := uint32(0); i < info.MPFImages && (i+1)*16 <= f.Count; i++ {
				e := Entry{Size: f.Long(i*4+1, order)}
				if offset := f.Long(i*4+2, order); offset > 0 {
					e.Offset = mpfOffset + offset
				}
				info.Entries = append(info.Entries, e)
			}
		}
	}

	return info, nil
}
