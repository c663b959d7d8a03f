package goffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wader/mpowiggle/internal/goffmpeg/internal/execextra"
	"github.com/wader/mpowiggle/internal/goffmpeg/internal/linebuffer"
)

// FFprobePath to ffprobe binary, used when FFProbeCmd.Path is empty
var FFprobePath = "ffprobe"

// FFProbeResult ffprobe result
type FFProbeResult struct {
	Format  FFProbeFormat   `json:"format"`
	Streams []FFProbeStream `json:"streams"`
}

// FFProbeStream ffprobe stream result
type FFProbeStream struct {
	Index        uint   `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        uint   `json:"width"`
	Height       uint   `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

// FFProbeFormat ffprobe format result
type FFProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// FormatName probed format (first value if comma separated)
func (fpr FFProbeResult) FormatName() string {
	return strings.Split(fpr.Format.FormatName, ",")[0]
}

// Duration probed format duration, zero if unknown
func (fpr FFProbeResult) Duration() time.Duration {
	v, _ := strconv.ParseFloat(fpr.Format.Duration, 64)
	return time.Duration(v * float64(time.Second))
}

// FirstVideoStream returns the first video stream
func (fpr FFProbeResult) FirstVideoStream() (FFProbeStream, bool) {
	for _, s := range fpr.Streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return FFProbeStream{}, false
}

func (fpr FFProbeResult) String() string {
	var codecs []string
	for _, s := range fpr.Streams {
		codecs = append(codecs, s.CodecName)
	}
	return fmt.Sprintf("%s:%s", fpr.FormatName(), strings.Join(codecs, ":"))
}

// FFProbeCmd is a ffprobe command, Input.File is a io.Reader or string path
type FFProbeCmd struct {
	Path    string
	Flags   []string
	Input   Input
	Context context.Context

	ProbeResult FFProbeResult

	cmd             *execextra.Cmd
	stderrLastLines *linebuffer.LastLines
	waitCh          chan error
}

// Start ffprobe
func (fp *FFProbeCmd) Start() error {
	path := fp.Path
	if path == "" {
		path = FFprobePath
	}
	if fp.Context != nil {
		fp.cmd = execextra.CommandContext(fp.Context, path)
	} else {
		fp.cmd = execextra.Command(path)
	}
	fp.cmd.Args = append(fp.cmd.Args,
		"-hide_banner",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
	)
	fp.cmd.Args = append(fp.cmd.Args, fp.Flags...)
	fp.cmd.Args = append(fp.cmd.Args, fp.Input.Flags...)
	if fp.Input.Format != "" {
		fp.cmd.Args = append(fp.cmd.Args, "-f", fp.Input.Format)
	}
	switch file := fp.Input.File.(type) {
	case io.Reader:
		fp.cmd.Stdin = file
		fp.cmd.Args = append(fp.cmd.Args, "pipe:0")
	case string:
		fp.cmd.Args = append(fp.cmd.Args, file)
	default:
		return fmt.Errorf("input file %#v should be string or io.Reader", file)
	}

	fp.stderrLastLines = linebuffer.NewLastLines(20)
	fp.cmd.Stderr = fp.stderrLastLines

	stdout, err := fp.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := fp.cmd.Start(); err != nil {
		return err
	}

	fp.waitCh = make(chan error, 1)
	go func() {
		jsonErr := json.NewDecoder(stdout).Decode(&fp.ProbeResult)
		// drain so ffprobe never blocks on a full pipe
		io.Copy(io.Discard, stdout)
		if waitErr := fp.cmd.Wait(); waitErr != nil {
			fp.waitCh <- waitErr
			return
		}
		fp.waitCh <- jsonErr
	}()

	return nil
}

// Wait for ffprobe to finish
func (fp *FFProbeCmd) Wait() error {
	err := <-fp.waitCh
	fp.stderrLastLines.Close()
	if err != nil {
		return fmt.Errorf("%w: %s", err, fp.stderrLastLines.String())
	}
	return nil
}

// Run starts and waits for ffprobe to finish
func (fp *FFProbeCmd) Run() error {
	if err := fp.Start(); err != nil {
		return err
	}
	return fp.Wait()
}

// Result runs ffprobe and returns the probe result
func (fp *FFProbeCmd) Result() (FFProbeResult, error) {
	if err := fp.Run(); err != nil {
		return FFProbeResult{}, err
	}
	return fp.ProbeResult, nil
}
