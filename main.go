package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wader/mpowiggle/internal/artifact"
	"github.com/wader/mpowiggle/internal/config"
	"github.com/wader/mpowiggle/internal/export"
	"github.com/wader/mpowiggle/internal/goffmpeg"
	"github.com/wader/mpowiggle/internal/iterm2"
	"github.com/wader/mpowiggle/internal/logger"
	"github.com/wader/mpowiggle/internal/metrics"
	"github.com/wader/mpowiggle/internal/mpo"
	"github.com/wader/mpowiggle/internal/scheduler"
	"github.com/wader/mpowiggle/internal/session"
	"github.com/wader/mpowiggle/internal/stereo"
	"github.com/wader/mpowiggle/internal/surface"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var configFlag = flag.String("c", "", "Config file")
var exportFlag = flag.String("e", "", "Export format and exit (gif, apng, webm, mp4, avi)")
var playFlag = flag.Duration("t", 0, "Play for duration and exit, 0 is until q")
var inspectFlag = flag.Bool("i", false, "Print container segments and exit")
var speedFlag = flag.Float64("speed", 0, "Wiggle speed, frame pairs per second")
var offsetFlag = flag.Int("offset", 0, "Horizontal offset in pixels")
var modeFlag = flag.String("mode", "", "Offset mode, crop or pad")
var debugFlag = flag.Bool("d", false, "Debug")
var verboseFlag = flag.Bool("v", false, "Verbose")

func verbosef(s string, args ...interface{}) {
	if *verboseFlag {
		fmt.Fprintf(os.Stderr, s, args...)
	}
}

func debugf(s string, args ...interface{}) {
	if *debugFlag {
		fmt.Fprintf(os.Stderr, s, args...)
	}
}

// applyFlags overrides cfg with flags given on the command line
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "speed":
			cfg.Speed = *speedFlag
		case "offset":
			cfg.Offset = *offsetFlag
		case "mode":
			cfg.Mode = *modeFlag
		}
	})
}

func newSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	switch cfg.Sink {
	case "minio":
		s, err := artifact.NewMinIOSink(artifact.MinIOConfig{
			Endpoint:      cfg.MinIOEndpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			UseSSL:        cfg.MinIOUseSSL,
			Bucket:        cfg.MinIOBucket,
			Prefix:        cfg.MinIOPrefix,
			PresignExpiry: cfg.MinIOPresignExpiry,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return &artifact.FileSink{Dir: cfg.OutputDir}, nil
	}
}

func newPresenter(log *zap.Logger) surface.Presenter {
	if !iterm2.IsCompatible() || !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Info("not an iTerm2 terminal, frames are not shown")
		return nil
	}
	p := &iterm2.Presenter{W: os.Stdout}
	r, err := iterm2.PixelResolution(os.Stdin)
	if err != nil {
		log.Debug("pixel resolution", zap.Error(err))
		return p
	}
	// leave a row for the status line
	p.Max = image.Pt(r.Width, r.Height-2*r.HeightAlign)
	debugf("terminal %dx%d pixels\n", r.Width, r.Height)
	return p
}

func load(ctx context.Context, path string) (*stereo.Pair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		metrics.LoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if *debugFlag {
		if h, err := mpo.Split(b); err == nil {
			debugf("%s: left %s right %s\n", path, h.Left, h.Right)
		}
	}
	pair, err := stereo.Decode(ctx, b)
	if err != nil {
		metrics.LoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoadsTotal.WithLabelValues("ok").Inc()
	verbosef("%s: %dx%d\n", path, pair.Width, pair.Height)
	return pair, nil
}

// loadPair loads pair into sess and warns if the crop offset was clamped to fit it
func loadPair(sess *session.Session, pair *stereo.Pair, log *zap.Logger) {
	before := sess.Alignment()
	sess.Load(pair)
	if after := sess.Alignment(); after != before {
		log.Warn("crop offset clamped to image width",
			zap.Int("offset", before.Offset),
			zap.Int("clamped", after.Offset),
			zap.Int("width", pair.Width),
		)
	}
}

func ffmpegVersion(ctx context.Context, path string) string {
	v, err := goffmpeg.Version(ctx, path)
	if err != nil {
		return "unavailable"
	}
	return v.Release
}

func inspect(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := mpo.Inspect(b)
	if err != nil {
		return err
	}
	fmt.Println(info)
	h, err := mpo.Split(b)
	if err != nil {
		return err
	}
	fmt.Printf("left %s %d bytes\nright %s %d bytes\n", h.Left, h.Left.Len(), h.Right, h.Right.Len())
	return nil
}

func printJob(w io.Writer, job *export.Job, err error) {
	switch {
	case errors.Is(err, export.ErrBusy):
		fmt.Fprint(w, "export already running\r\n")
	case err != nil:
		fmt.Fprintf(w, "export: %s\r\n", err)
	default:
		fmt.Fprintf(w, "%s: %s\r\n", job.Format, job.Artifact.Location)
	}
}

func readKeys(ctx context.Context, r io.Reader) <-chan byte {
	keyCh := make(chan byte)
	go func() {
		defer close(keyCh)
		b := make([]byte, 1)
		for {
			if _, err := r.Read(b); err != nil {
				return
			}
			select {
			case keyCh <- b[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keyCh
}

func interactive(ctx context.Context, sess *session.Session, sched *scheduler.Scheduler, pipeline *export.Pipeline, log *zap.Logger) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		<-ctx.Done()
		return nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, state)

	fmt.Fprintf(os.Stderr, "%s\r\n", keyHelp)

	keyCh := readKeys(ctx, os.Stdin)
	jobCh := make(chan func(), 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case done := <-jobCh:
			done()
		case k, ok := <-keyCh:
			if !ok {
				return nil
			}
			c := applyKey(k, sess.Alignment(), sess.Playback())
			switch {
			case c.quit:
				return nil
			case c.export != "":
				format := c.export
				fmt.Fprintf(os.Stderr, "exporting %s\r\n", format)
				go func() {
					job, err := pipeline.Export(ctx, format)
					select {
					case jobCh <- func() { printJob(os.Stderr, job, err) }:
					case <-ctx.Done():
					}
				}()
			case c.changed:
				if err := sess.SetAlignment(c.alignment); err != nil {
					log.Warn("alignment", zap.Error(err))
					continue
				}
				if err := sess.SetPlayback(c.playback); err != nil {
					log.Warn("playback", zap.Error(err))
					continue
				}
				sched.Restart(ctx)
				fmt.Fprintf(os.Stderr, "%s %s\r\n", sess.Alignment(), sess.Playback())
			}
		}
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, *debugFlag)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, cfg.MetricsAddr, log)
	}

	a, err := cfg.Alignment()
	if err != nil {
		return err
	}
	sess, err := session.New(a, cfg.Playback())
	if err != nil {
		return err
	}
	pair, err := load(ctx, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	loadPair(sess, pair, log)

	var presenter surface.Presenter
	if *exportFlag == "" {
		presenter = newPresenter(log)
	}
	display := surface.NewDisplay(presenter)
	sched := scheduler.New(sess, display, log)

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	pipeline := export.New(sess, display, export.Exporters(export.Options{
		CaptureDuration: cfg.CaptureDuration,
		FFmpegPath:      cfg.FFmpegPath,
		FFprobePath:     cfg.FFprobePath,
		TempDir:         cfg.TempDir,
		Log:             log,
	}), sink, log)
	verbosef("formats: %s\n", strings.Join(pipeline.Formats(), ", "))
	if *verboseFlag {
		verbosef("ffmpeg: %s\n", ffmpegVersion(ctx, cfg.FFmpegPath))
	}

	sched.Start(ctx)
	defer sched.Stop()

	if *exportFlag != "" {
		job, err := pipeline.Export(ctx, *exportFlag)
		if err != nil {
			return err
		}
		fmt.Println(job.Artifact.Location)
		return nil
	}

	if *playFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *playFlag)
		defer cancel()
	}

	start := time.Now()
	if err := interactive(ctx, sess, sched, pipeline, log); err != nil {
		return err
	}
	debugf("played %d frames in %s\n", display.Frames(), time.Since(start).Round(time.Millisecond))
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE.mpo\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := func() error {
		if flag.NArg() != 1 {
			flag.Usage()
			return errors.New("expected one file")
		}
		path := flag.Arg(0)
		if *inspectFlag {
			return inspect(path)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx, path)
	}(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
