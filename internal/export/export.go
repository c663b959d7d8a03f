// Package export renders the wiggle animation into a downloadable artifact,
// either as a two frame image sequence or by capturing the live display
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wader/mpowiggle/internal/metrics"
	"github.com/wader/mpowiggle/internal/session"
	"github.com/wader/mpowiggle/internal/surface"
	"go.uber.org/zap"
)

var (
	ErrEncodingUnavailable = errors.New("encoding unavailable")
	ErrCaptureUnsupported  = errors.New("capture unsupported")
	ErrBusy                = errors.New("export already running")
	ErrUnknownFormat       = errors.New("unknown export format")
	ErrNothingLoaded       = errors.New("no image pair loaded")
)

type Kind int

const (
	FrameSequence Kind = iota
	CapturedStream
)

func (k Kind) String() string {
	if k == CapturedStream {
		return "captured_stream"
	}
	return "frame_sequence"
}

type Status int

const (
	Idle Status = iota
	Running
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Artifact is an encoded export
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	// Location is where a Sink put it, empty if not delivered
	Location string
}

// Job is one export attempt
type Job struct {
	ID       uuid.UUID
	Format   string
	Kind     Kind
	Status   Status
	Artifact *Artifact
	Err      error
	Started  time.Time
	Finished time.Time
}

func (j *Job) String() string {
	return fmt.Sprintf("%s %s %s", j.ID, j.Format, j.Status)
}

// Source is what an exporter reads from, a session snapshot taken when the
// job started and the live display
type Source struct {
	Snapshot session.Snapshot
	Display  *surface.Display
}

// Exporter produces an artifact in one format
type Exporter interface {
	Kind() Kind
	Export(ctx context.Context, src Source) (*Artifact, error)
}

// Sink delivers an artifact and returns its location
type Sink interface {
	Put(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

// Pipeline runs one export job at a time
type Pipeline struct {
	sess      *session.Session
	display   *surface.Display
	exporters map[string]Exporter
	sink      Sink
	log       *zap.Logger
	busy      atomic.Bool
}

// New returns a pipeline, sink is optional
func New(sess *session.Session, display *surface.Display, exporters map[string]Exporter, sink Sink, log *zap.Logger) *Pipeline {
	return &Pipeline{
		sess:      sess,
		display:   display,
		exporters: exporters,
		sink:      sink,
		log:       log,
	}
}

// Formats returns the registered format names sorted
func (p *Pipeline) Formats() []string {
	var fs []string
	for f := range p.exporters {
		fs = append(fs, f)
	}
	sort.Strings(fs)
	return fs
}

// Busy reports if a job is running
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

// Export runs a job for format and blocks until it is done. A request while
// another job is running fails with ErrBusy, it is not queued. The returned
// job is Succeeded or Failed, the error is the job error.
func (p *Pipeline) Export(ctx context.Context, format string) (*Job, error) {
	e, ok := p.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if !p.busy.CompareAndSwap(false, true) {
		metrics.ExportsTotal.WithLabelValues(format, "rejected").Inc()
		return nil, ErrBusy
	}
	metrics.ExportBusy.Set(1)
	defer func() {
		metrics.ExportBusy.Set(0)
		p.busy.Store(false)
	}()

	job := &Job{
		ID:      uuid.New(),
		Format:  format,
		Kind:    e.Kind(),
		Status:  Running,
		Started: time.Now(),
	}
	log := p.log.With(zap.Stringer("job_id", job.ID), zap.String("format", format))
	log.Info("export started", zap.Stringer("kind", job.Kind))

	a, err := p.run(ctx, e)
	job.Finished = time.Now()
	metrics.ExportDuration.WithLabelValues(job.Kind.String()).Observe(job.Finished.Sub(job.Started).Seconds())
	if err != nil {
		job.Status = Failed
		job.Err = err
		metrics.ExportsTotal.WithLabelValues(format, job.Status.String()).Inc()
		log.Error("export failed", zap.Error(err))
		return job, err
	}

	job.Status = Succeeded
	job.Artifact = a
	metrics.ExportsTotal.WithLabelValues(format, job.Status.String()).Inc()
	log.Info("export succeeded",
		zap.String("artifact", a.Name),
		zap.Int("size", len(a.Data)),
		zap.String("location", a.Location),
		zap.Duration("took", job.Finished.Sub(job.Started)),
	)

	return job, nil
}

func (p *Pipeline) run(ctx context.Context, e Exporter) (*Artifact, error) {
	snap := p.sess.Snapshot()
	if !snap.Pair.Complete() {
		return nil, ErrNothingLoaded
	}
	a, err := e.Export(ctx, Source{Snapshot: snap, Display: p.display})
	if err != nil {
		return nil, err
	}
	if p.sink != nil {
		loc, err := p.sink.Put(ctx, a.Name, a.ContentType, a.Data)
		if err != nil {
			return nil, fmt.Errorf("deliver %s: %w", a.Name, err)
		}
		a.Location = loc
	}
	return a, nil
}
