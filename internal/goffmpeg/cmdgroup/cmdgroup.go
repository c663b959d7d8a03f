// Package cmdgroup runs commands as a group that is torn down together,
// similar to errgroup but for things that Start and Wait.
package cmdgroup

import (
	"context"
	"sync"
)

// Cmd can start and wait to finish, like exec.Cmd. It must stop when the
// group context is cancelled.
type Cmd interface {
	Start() error
	Wait() error
}

// Group of commands. The first failure cancels the group context.
type Group struct {
	cancelFn   func()
	cancelOnce sync.Once
	cmds       []Cmd
}

// WithContext creates a new group and the context its commands should use
func WithContext(parent context.Context) (*Group, context.Context) {
	ctx, cancelFn := context.WithCancel(parent)
	return &Group{cancelFn: cancelFn}, ctx
}

// Add cmd to group
func (g *Group) Add(cmd Cmd) {
	g.cmds = append(g.cmds, cmd)
}

func (g *Group) cancel() { g.cancelOnce.Do(g.cancelFn) }

// Run starts all commands, waits for all of them and returns their errors.
// Commands that failed to start are not waited on.
func (g *Group) Run(cmds ...Cmd) []error {
	g.cmds = append(g.cmds, cmds...)
	defer g.cancel()

	var errs []error
	var started []Cmd
	for _, cmd := range g.cmds {
		if err := cmd.Start(); err != nil {
			errs = append(errs, err)
			g.cancel()
			continue
		}
		started = append(started, cmd)
	}

	waitErrCh := make(chan error, len(started))
	for _, cmd := range started {
		go func(cmd Cmd) { waitErrCh <- cmd.Wait() }(cmd)
	}
	for range started {
		if err := <-waitErrCh; err != nil {
			errs = append(errs, err)
			g.cancel()
		}
	}

	return errs
}
