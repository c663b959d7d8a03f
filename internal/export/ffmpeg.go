package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/wader/mpowiggle/internal/goffmpeg"
	"github.com/wader/mpowiggle/internal/goffmpeg/cmdgroup"
	"go.uber.org/zap"
)

// FFmpegRecorder pipes PNG frames into ffmpeg and collects the muxed output
type FFmpegRecorder struct {
	Path      string
	ProbePath string
	Format    string
	// Codecs in preference order, first one ffmpeg has is used
	Codecs  []string
	Options map[string]string
	// output flags, ex movflags for fragmented mp4 to a pipe
	Flags []string
	Log   *zap.Logger

	codec  string
	out    bytes.Buffer
	frames chan image.Image
	done   chan struct{}
	errs   []error
	ctx    context.Context
	cmd    *goffmpeg.FFmpegCmd
}

func (r *FFmpegRecorder) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Available checks that ffmpeg runs and has one of the encoders and the muxer
func (r *FFmpegRecorder) Available(ctx context.Context) error {
	r.codec = ""
	for _, c := range r.Codecs {
		ok, err := goffmpeg.HasEncoders(ctx, r.Path, c)
		if err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		if ok {
			r.codec = c
			break
		}
	}
	if r.codec == "" {
		return fmt.Errorf("ffmpeg has none of the encoders %s", strings.Join(r.Codecs, ","))
	}
	ok, err := goffmpeg.HasMuxer(ctx, r.Path, r.Format)
	if err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if !ok {
		return fmt.Errorf("ffmpeg has no %s muxer", r.Format)
	}
	return nil
}

// framePump png encodes frames into w until frames is closed or ctx is done
type framePump struct {
	ctx    context.Context
	frames <-chan image.Image
	w      *io.PipeWriter
	done   chan error
}

func (p *framePump) Start() error {
	p.done = make(chan error, 1)
	go func() { p.done <- p.run() }()
	return nil
}

func (p *framePump) run() error {
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	for {
		select {
		case <-p.ctx.Done():
			p.w.CloseWithError(p.ctx.Err())
			return p.ctx.Err()
		case m, ok := <-p.frames:
			if !ok {
				return p.w.Close()
			}
			if err := enc.Encode(p.w, m); err != nil {
				p.w.CloseWithError(err)
				return err
			}
		}
	}
}

func (p *framePump) Wait() error { return <-p.done }

func (r *FFmpegRecorder) Start(ctx context.Context, size image.Point, fps float64) error {
	if r.codec == "" {
		return errors.New("Available must succeed before Start")
	}
	g, gctx := cmdgroup.WithContext(ctx)
	pr, pw := io.Pipe()

	in := &goffmpeg.Input{
		File:   pr,
		Format: "image2pipe",
		Options: map[string]string{
			"framerate": strconv.FormatFloat(fps, 'f', -1, 64),
		},
		Flags: []string{"-codec:v", "png"},
	}
	r.cmd = &goffmpeg.FFmpegCmd{
		Path:    r.Path,
		Context: gctx,
		Inputs:  []*goffmpeg.Input{in},
		FilterGraph: &goffmpeg.FilterGraph{
			{
				// most encoders want even sizes
				{
					Name:   "pad",
					Inputs: []string{"0:v"},
					Options: map[string]string{
						"width":  "iw+mod(iw,2)",
						"height": "ih+mod(ih,2)",
						"color":  "0xf0f0f0",
					},
				},
				{
					Name:    "format",
					Options: map[string]string{"pix_fmts": "yuv420p"},
					Outputs: []string{"out"},
				},
			},
		},
		Outputs: []*goffmpeg.Output{
			{
				Maps: []*goffmpeg.Map{
					{Specifier: "[out]", Codec: r.codec, Options: r.Options},
				},
				Format: r.Format,
				Flags:  r.Flags,
				File:   &r.out,
			},
		},
		// unblocks the pump if ffmpeg exits early
		CloseAfterWait: []io.Closer{pr},
		ProgressFn: func(p goffmpeg.Progress) {
			r.log().Debug("ffmpeg progress", zap.Int64("frame", p.Frame), zap.String("progress", p.Progress))
		},
	}
	if args, err := r.cmd.Args(); err == nil {
		r.log().Debug("ffmpeg", zap.String("args", strings.Join(args, " ")), zap.Stringer("size", size))
	}

	r.ctx = ctx
	r.frames = make(chan image.Image, 4)
	r.done = make(chan struct{})
	pump := &framePump{ctx: gctx, frames: r.frames, w: pw}
	go func() {
		defer close(r.done)
		r.errs = g.Run(r.cmd, pump)
	}()

	return nil
}

func (r *FFmpegRecorder) WriteFrame(m image.Image) error {
	select {
	case r.frames <- m:
		return nil
	case <-r.done:
		return fmt.Errorf("ffmpeg exited: %w", errors.Join(r.errs...))
	}
}

// Stop closes the frame stream and waits for ffmpeg to finish muxing
func (r *FFmpegRecorder) Stop() ([]byte, error) {
	close(r.frames)
	<-r.done
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	b := r.out.Bytes()
	r.probe(b)
	return b, nil
}

func (r *FFmpegRecorder) probe(b []byte) {
	fp := goffmpeg.FFProbeCmd{
		Path:    r.ProbePath,
		Context: r.ctx,
		Input:   goffmpeg.Input{File: bytes.NewReader(b)},
	}
	pr, err := fp.Result()
	if err != nil {
		r.log().Debug("ffprobe failed", zap.Error(err))
		return
	}
	r.log().Info("recorded",
		zap.String("probe", pr.String()),
		zap.Duration("duration", pr.Duration()),
		zap.Int("size", len(b)),
	)
}
