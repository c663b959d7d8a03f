// Package execextra is exec.Cmd with readers and writers connected to extra
// child file descriptors (fd 3 and up), so ffmpeg can read frames and write
// muxed output and progress on separate pipes.
package execextra

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
)

type closeOnce struct {
	*os.File
	once sync.Once
	err  error
}

func (c *closeOnce) Close() error {
	c.once.Do(func() { c.err = c.File.Close() })
	return c.err
}

// Cmd wraps exec.Cmd
type Cmd struct {
	*exec.Cmd

	closeAfterStart []io.Closer
	closeAfterWait  []io.Closer
	copyFns         []func() error
	copyErrCh       chan error
}

// Command see exec.Command
func Command(name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.Command(name, arg...)}
}

// CommandContext see exec.CommandContext
func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.CommandContext(ctx, name, arg...)}
}

func closeAll(cs []io.Closer) {
	for _, c := range cs {
		c.Close()
	}
}

// child fd of the last added extra file, index 0 is fd 3
func (c *Cmd) lastChildFD() uintptr {
	return uintptr(len(c.ExtraFiles)) + 2
}

// Start see exec.Cmd.Start
func (c *Cmd) Start() error {
	if err := c.Cmd.Start(); err != nil {
		closeAll(c.closeAfterStart)
		closeAll(c.closeAfterWait)
		return err
	}
	closeAll(c.closeAfterStart)

	c.copyErrCh = make(chan error, len(c.copyFns))
	for _, fn := range c.copyFns {
		go func(fn func() error) { c.copyErrCh <- fn() }(fn)
	}
	return nil
}

// Wait see exec.Cmd.Wait. Returns the process error or else the first copy error.
func (c *Cmd) Wait() error {
	err := c.Cmd.Wait()

	var copyErr error
	for range c.copyFns {
		if cErr := <-c.copyErrCh; cErr != nil && copyErr == nil {
			copyErr = cErr
		}
	}
	closeAll(c.closeAfterWait)

	if err != nil {
		return err
	}
	return copyErr
}

// Run see exec.Cmd.Run
func (c *Cmd) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}

// ExtraIn connects r to a readable fd in the child and returns the fd number.
// An *os.File is passed as is, anything else is copied thru a pipe.
func (c *Cmd) ExtraIn(r io.Reader) (uintptr, error) {
	if f, ok := r.(*os.File); ok {
		c.ExtraFiles = append(c.ExtraFiles, f)
		return c.lastChildFD(), nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return 0, err
	}
	c.ExtraFiles = append(c.ExtraFiles, pr)
	c.closeAfterStart = append(c.closeAfterStart, pr)
	wc := &closeOnce{File: pw}
	c.closeAfterWait = append(c.closeAfterWait, wc)
	c.copyFns = append(c.copyFns, func() error {
		_, err := io.Copy(wc, r)
		wc.Close()
		return err
	})

	return c.lastChildFD(), nil
}

// ExtraOut connects w to a writable fd in the child and returns the fd number.
func (c *Cmd) ExtraOut(w io.Writer) (uintptr, error) {
	if f, ok := w.(*os.File); ok {
		c.ExtraFiles = append(c.ExtraFiles, f)
		return c.lastChildFD(), nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return 0, err
	}
	c.ExtraFiles = append(c.ExtraFiles, pw)
	c.closeAfterStart = append(c.closeAfterStart, pw)
	c.closeAfterWait = append(c.closeAfterWait, pr)
	c.copyFns = append(c.copyFns, func() error {
		_, err := io.Copy(w, pr)
		return err
	})

	return c.lastChildFD(), nil
}

// CloseAfterStart closes closer once the child has started, useful for
// the parent's copy of a pipe end handed to the child.
func (c *Cmd) CloseAfterStart(closer io.Closer) {
	c.closeAfterStart = append(c.closeAfterStart, closer)
}

// CloseAfterWait closes closer after the child has exited
func (c *Cmd) CloseAfterWait(closer io.Closer) {
	c.closeAfterWait = append(c.closeAfterWait, closer)
}
