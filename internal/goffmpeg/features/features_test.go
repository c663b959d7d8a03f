package features_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/wader/mpowiggle/internal/goffmpeg/features"
)

func TestParseVersion(t *testing.T) {
	testCases := []struct {
		line     string
		expected features.VersionParts
	}{
		{line: "ffmpeg version n4.0 Copyright (c) 2000-2018 the FFmpeg developers", expected: features.VersionParts{Release: "n4.0", Major: 4, Minor: 0}},
		{line: "ffmpeg version 4.2.1 Copyright (c) 2000-2019 the FFmpeg developers", expected: features.VersionParts{Release: "4.2.1", Major: 4, Minor: 2, Patch: 1}},
		{line: "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers", expected: features.VersionParts{Release: "6.1.1-3ubuntu5", Major: 6, Minor: 1, Patch: 1}},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			v, err := features.ParseVersion(tC.line + "\nbuilt with gcc\n")
			if err != nil {
				t.Fatal(err)
			}
			v.Full = ""
			if tC.expected != v {
				t.Errorf("expected %#v, got %#v", tC.expected, v)
			}
		})
	}

	if _, err := features.ParseVersion("not ffmpeg"); err == nil {
		t.Error("expected error")
	}
}

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ..S... = Slice-level multithreading
 ...X.. = Codec is experimental
 ....B. = Supports draw_horiz_band
 .....D = Supports direct rendering method 1
 ------
 V....D libvpx               libvpx VP8 (codec vp8)
 V..X.. a64multi             Multicolor charset for Commodore 64 (codec a64_multi)
 V....D png                  PNG (Portable Network Graphics) image
 A....D aac                  AAC (Advanced Audio Coding)
`

func TestParseCoders(t *testing.T) {
	coders, err := features.ParseCoders(strings.NewReader(encodersOutput))
	if err != nil {
		t.Fatal(err)
	}
	expected := []features.Coder{
		{Name: "libvpx", Description: "libvpx VP8", MediaType: features.MediaTypeVideo, Codec: "vp8"},
		{Name: "a64multi", Description: "Multicolor charset for Commodore 64", MediaType: features.MediaTypeVideo, Codec: "a64_multi", Experimental: true},
		{Name: "png", Description: "PNG (Portable Network Graphics) image", MediaType: features.MediaTypeVideo},
		{Name: "aac", Description: "AAC (Advanced Audio Coding)", MediaType: features.MediaTypeAudio},
	}
	if len(expected) != len(coders) {
		t.Fatalf("expected %d coders, got %d: %#v", len(expected), len(coders), coders)
	}
	for i := range expected {
		if expected[i] != coders[i] {
			t.Errorf("%d: expected %#v, got %#v", i, expected[i], coders[i])
		}
	}
}

const muxersOutput = `File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E 3g2             3GP2 (3GPP2 file format)
  E matroska,webm   Matroska
  E webm            WebM
  E mp4             MP4 (MPEG-4 Part 14)
`

func TestParseFormats(t *testing.T) {
	formats, err := features.ParseFormats(strings.NewReader(muxersOutput))
	if err != nil {
		t.Fatal(err)
	}
	if len(formats) != 4 {
		t.Fatalf("expected 4 formats, got %#v", formats)
	}
	f := formats[1]
	if strings.Join(f.Names, ",") != "matroska,webm" || !f.Muxing || f.Demuxing || f.Description != "Matroska" {
		t.Errorf("unexpected format %#v", f)
	}
}
