package export

import (
	"time"

	"go.uber.org/zap"
)

// Options for the default exporters
type Options struct {
	CaptureDuration time.Duration
	FFmpegPath      string
	FFprobePath     string
	TempDir         string
	Log             *zap.Logger
}

// Exporters returns all exporters by format name
func Exporters(opts Options) map[string]Exporter {
	ffmpegRecorder := func(format string, codecs []string, options map[string]string, flags []string) func() Recorder {
		return func() Recorder {
			return &FFmpegRecorder{
				Path:      opts.FFmpegPath,
				ProbePath: opts.FFprobePath,
				Format:    format,
				Codecs:    codecs,
				Options:   options,
				Flags:     flags,
				Log:       opts.Log,
			}
		}
	}

	return map[string]Exporter{
		"gif": &Sequence{
			Name:        "wiggle.gif",
			ContentType: "image/gif",
			NewEncoder:  NewGIFEncoder,
		},
		"apng": &Sequence{
			Name:        "wiggle.png",
			ContentType: "image/apng",
			NewEncoder:  NewAPNGEncoder,
		},
		"webm": &Capture{
			Name:        "wiggle.webm",
			ContentType: "video/webm",
			Duration:    opts.CaptureDuration,
			NewRecorder: ffmpegRecorder("webm", []string{"libvpx", "libvpx-vp9"}, map[string]string{"b": "2M"}, nil),
			Log:         opts.Log,
		},
		"mp4": &Capture{
			Name:        "wiggle.mp4",
			ContentType: "video/mp4",
			Duration:    opts.CaptureDuration,
			NewRecorder: ffmpegRecorder("mp4", []string{"libx264", "mpeg4"}, nil, []string{"-movflags", "frag_keyframe+empty_moov"}),
			Log:         opts.Log,
		},
		"avi": &Capture{
			Name:        "wiggle.avi",
			ContentType: "video/x-msvideo",
			Duration:    opts.CaptureDuration,
			NewRecorder: func() Recorder { return &MJPEGRecorder{TempDir: opts.TempDir} },
			Log:         opts.Log,
		},
	}
}
