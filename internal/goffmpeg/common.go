package goffmpeg

import (
	"context"

	"github.com/wader/mpowiggle/internal/goffmpeg/features"
)

// Version return ffmpeg version
func Version(ctx context.Context, ffmpegPath string) (features.VersionParts, error) {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegPath
	}
	return features.Version(ctx, ffmpegPath)
}

// HasEncoders reports if ffmpeg runs and has all the named encoders
func HasEncoders(ctx context.Context, ffmpegPath string, names ...string) (bool, error) {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegPath
	}
	coders, err := features.Encoders(ctx, ffmpegPath)
	if err != nil {
		return false, err
	}
	have := map[string]bool{}
	for _, c := range coders {
		have[c.Name] = true
	}
	for _, n := range names {
		if !have[n] {
			return false, nil
		}
	}
	return true, nil
}

// HasMuxer reports if ffmpeg runs and can mux the named format
func HasMuxer(ctx context.Context, ffmpegPath string, name string) (bool, error) {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegPath
	}
	formats, err := features.Muxers(ctx, ffmpegPath)
	if err != nil {
		return false, err
	}
	for _, f := range formats {
		for _, n := range f.Names {
			if n == name {
				return true, nil
			}
		}
	}
	return false, nil
}
