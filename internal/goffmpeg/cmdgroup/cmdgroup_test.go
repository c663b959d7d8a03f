package cmdgroup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/wader/mpowiggle/internal/goffmpeg/cmdgroup"
)

type fnCmd struct {
	start func() error
	run   func() error
	done  chan error
}

func (c *fnCmd) Start() error {
	if c.start != nil {
		if err := c.start(); err != nil {
			return err
		}
	}
	c.done = make(chan error, 1)
	go func() { c.done <- c.run() }()
	return nil
}

func (c *fnCmd) Wait() error { return <-c.done }

func TestRunAllSucceed(t *testing.T) {
	defer leaktest.Check(t)()

	g, _ := cmdgroup.WithContext(context.Background())
	n := 0
	g.Add(&fnCmd{run: func() error { n++; return nil }})
	errs := g.Run(&fnCmd{run: func() error { return nil }})
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if n != 1 {
		t.Errorf("expected 1 run, got %d", n)
	}
}

func TestFailureCancelsGroup(t *testing.T) {
	defer leaktest.Check(t)()

	failErr := errors.New("fail")
	g, ctx := cmdgroup.WithContext(context.Background())
	errs := g.Run(
		&fnCmd{run: func() error { return failErr }},
		&fnCmd{run: func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		}},
	)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if !errors.Is(errs[0], failErr) && !errors.Is(errs[1], failErr) {
		t.Errorf("expected %v in %v", failErr, errs)
	}
}

func TestStartFailure(t *testing.T) {
	defer leaktest.Check(t)()

	startErr := errors.New("start")
	g, ctx := cmdgroup.WithContext(context.Background())
	errs := g.Run(
		&fnCmd{start: func() error { return startErr }},
		&fnCmd{run: func() error { <-ctx.Done(); return nil }},
	)
	if len(errs) != 1 || !errors.Is(errs[0], startErr) {
		t.Errorf("expected [%v], got %v", startErr, errs)
	}
}
