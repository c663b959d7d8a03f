package goffmpeg

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/wader/mpowiggle/internal/goffmpeg/internal/execextra"
	"github.com/wader/mpowiggle/internal/goffmpeg/internal/kvargs"
	"github.com/wader/mpowiggle/internal/goffmpeg/internal/linebuffer"
)

// FFmpegPath to ffmpeg binary, used when FFmpegCmd.Path is empty
var FFmpegPath = "ffmpeg"

// FFmpegCmd is a ffmpeg command
//
//	ffmpeg [flags] [-filter_complex graph]
//	  ([input options] -i io.Reader/string)...
//	  ([-map specifier [codec/options]]... [output options] io.Writer/string)...
type FFmpegCmd struct {
	Path        string
	Flags       []string
	Inputs      []*Input
	FilterGraph *FilterGraph
	Outputs     []*Output

	Context             context.Context
	CloseAfterStart     []io.Closer
	CloseAfterWait      []io.Closer
	StderrBufferNrLines int
	Stderr              io.Writer
	ProgressFn          func(p Progress)

	cmd             *execextra.Cmd
	stderrLastLines *linebuffer.LastLines
	progress        Progress
	progressLines   *linebuffer.Fn
}

// Input file is a io.Reader or a string path/url
type Input struct {
	File    interface{}
	Format  string
	Options map[string]string
	Flags   []string
}

// Output file is a io.Writer or a string path
type Output struct {
	File    interface{}
	Maps    []*Map
	Format  string
	Options map[string]string
	Flags   []string
}

// Map selects a stream from Input or a filter graph label in Specifier
type Map struct {
	Input     *Input
	Specifier string
	Codec     string
	Options   map[string]string
	Flags     []string
}

type FilterGraph []FilterChain

type FilterChain []Filter

type Filter struct {
	Name    string
	Inputs  []string
	Outputs []string
	Options map[string]string
}

// Progress is one block of -progress output
type Progress struct {
	Frame     int64
	FPS       float32
	TotalSize int64
	OutTimeUS int64
	Speed     float32
	Progress  string
}

// ParseProgress parses one -progress line into p. Returns true on the last
// line of a block ("progress=continue" or "progress=end").
//
//	frame=241
//	fps=79.81
//	total_size=116071
//	out_time_us=8674000
//	speed=2.87x
//	progress=continue
func ParseProgress(p *Progress, line string) bool {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return false
	}
	name, raw := parts[0], strings.TrimSpace(parts[1])
	value := strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	i64, _ := strconv.ParseInt(value, 10, 64)
	f64, _ := strconv.ParseFloat(value, 32)

	switch name {
	case "frame":
		p.Frame = i64
	case "fps":
		p.FPS = float32(f64)
	case "total_size":
		p.TotalSize = i64
	case "out_time_us":
		p.OutTimeUS = i64
	case "speed":
		p.Speed = float32(f64)
	case "progress":
		p.Progress = raw
		return true
	}

	return false
}

func (g FilterGraph) String() string {
	var chains []string
	for _, chain := range g {
		var filters []string
		for _, f := range chain {
			var sb strings.Builder
			for _, in := range f.Inputs {
				sb.WriteString("[" + strings.ReplaceAll(in, `]`, `\]`) + "]")
			}
			sb.WriteString(f.Name)
			if opts := kvargs.MapToSortedArgs(f.Options, kvargs.FilterOption); len(opts) > 0 {
				sb.WriteString("=" + strings.Join(opts, ":"))
			}
			for _, out := range f.Outputs {
				sb.WriteString("[" + strings.ReplaceAll(out, `]`, `\]`) + "]")
			}
			filters = append(filters, sb.String())
		}
		chains = append(chains, strings.Join(filters, ","))
	}
	return strings.Join(chains, ";")
}

type readerArgFn func(index int, r io.Reader) (string, error)
type writerArgFn func(index int, w io.Writer) (string, error)

func (fm *FFmpegCmd) buildArgs(readerArg readerArgFn, writerArg writerArgFn) ([]string, error) {
	args := []string{"-nostdin", "-hide_banner"}
	args = append(args, fm.Flags...)

	if fm.ProgressFn != nil {
		fm.progressLines = linebuffer.NewFn(fm.progressLine)
		a, err := writerArg(-1, fm.progressLines)
		if err != nil {
			return nil, err
		}
		args = append(args, "-progress", a)
	}

	if fm.FilterGraph != nil {
		args = append(args, "-filter_complex", fm.FilterGraph.String())
	}

	inputIndex := map[*Input]int{}
	for i, input := range fm.Inputs {
		inputIndex[input] = i

		args = append(args, kvargs.MapToSortedArgs(input.Options, kvargs.OptionArg(""))...)
		args = append(args, input.Flags...)
		if input.Format != "" {
			args = append(args, "-f", input.Format)
		}
		args = append(args, "-i")
		switch file := input.File.(type) {
		case string:
			args = append(args, file)
		case io.Reader:
			a, err := readerArg(i, file)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		default:
			return nil, fmt.Errorf("input %d: file %#v should be string or io.Reader", i, file)
		}
	}

	for i, output := range fm.Outputs {
		for streamIndex, m := range output.Maps {
			var specifier []string
			if m.Input != nil {
				idx, ok := inputIndex[m.Input]
				if !ok {
					return nil, fmt.Errorf("output %d: map input %#v not found", i, m.Input)
				}
				specifier = append(specifier, strconv.Itoa(idx))
			}
			if m.Specifier != "" {
				specifier = append(specifier, m.Specifier)
			}
			args = append(args, "-map", strings.Join(specifier, ":"))

			s := strconv.Itoa(streamIndex)
			if m.Codec != "" {
				args = append(args, "-codec:"+s, m.Codec)
			}
			args = append(args, kvargs.MapToSortedArgs(m.Options, kvargs.OptionArg(":"+s))...)
			args = append(args, m.Flags...)
		}

		if output.Format != "" {
			args = append(args, "-f", output.Format)
		}
		args = append(args, kvargs.MapToSortedArgs(output.Options, kvargs.OptionArg(""))...)
		args = append(args, output.Flags...)

		switch file := output.File.(type) {
		case string:
			args = append(args, file)
		case io.Writer:
			a, err := writerArg(i, file)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		default:
			return nil, fmt.Errorf("output %d: file %#v should be string or io.Writer", i, file)
		}
	}

	return args, nil
}

// Args returns the arguments with pipes as placeholders, for logging
func (fm *FFmpegCmd) Args() ([]string, error) {
	return fm.buildArgs(
		func(i int, _ io.Reader) (string, error) { return fmt.Sprintf("pipe-input-%d", i), nil },
		func(i int, _ io.Writer) (string, error) { return fmt.Sprintf("pipe-output-%d", i), nil },
	)
}

func (fm *FFmpegCmd) progressLine(line string) {
	if ParseProgress(&fm.progress, line) {
		fm.ProgressFn(fm.progress)
		fm.progress = Progress{}
	}
}

func (fm *FFmpegCmd) path() string {
	if fm.Path != "" {
		return fm.Path
	}
	return FFmpegPath
}

// Start ffmpeg
func (fm *FFmpegCmd) Start() error {
	if fm.Context != nil {
		fm.cmd = execextra.CommandContext(fm.Context, fm.path())
	} else {
		fm.cmd = execextra.Command(fm.path())
	}
	for _, c := range fm.CloseAfterStart {
		fm.cmd.CloseAfterStart(c)
	}
	for _, c := range fm.CloseAfterWait {
		fm.cmd.CloseAfterWait(c)
	}

	args, err := fm.buildArgs(
		func(_ int, r io.Reader) (string, error) {
			fd, err := fm.cmd.ExtraIn(r)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pipe:%d", fd), nil
		},
		func(_ int, w io.Writer) (string, error) {
			fd, err := fm.cmd.ExtraOut(w)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pipe:%d", fd), nil
		},
	)
	if err != nil {
		return err
	}
	fm.cmd.Args = append(fm.cmd.Args, args...)

	nrLines := fm.StderrBufferNrLines
	if nrLines == 0 {
		nrLines = 100
	}
	fm.stderrLastLines = linebuffer.NewLastLines(nrLines)
	if fm.Stderr != nil {
		fm.cmd.Stderr = io.MultiWriter(fm.stderrLastLines, fm.Stderr)
	} else {
		fm.cmd.Stderr = fm.stderrLastLines
	}

	return fm.cmd.Start()
}

// Wait for ffmpeg to finish. The error includes the last stderr lines which
// might include command details.
func (fm *FFmpegCmd) Wait() error {
	err := fm.cmd.Wait()
	if fm.progressLines != nil {
		fm.progressLines.Close()
	}
	fm.stderrLastLines.Close()

	if err != nil {
		return fmt.Errorf("%w: %s", err, fm.stderrLastLines.String())
	}
	return nil
}

// Run starts and waits for ffmpeg to finish
func (fm *FFmpegCmd) Run() error {
	if err := fm.Start(); err != nil {
		return err
	}
	return fm.Wait()
}

// StderrBuffer returns the last stderr lines
func (fm *FFmpegCmd) StderrBuffer() string {
	if fm.stderrLastLines == nil {
		return ""
	}
	return fm.stderrLastLines.String()
}
