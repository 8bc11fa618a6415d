// Package envgate serializes access to a process-wide environment variable
// that a native library reads as an implicit parameter.
//
// Callers that override the variable hold the gate exclusively for the
// duration of their work and the previous value is restored afterwards.
// Callers that rely on the ambient value hold it shared, so they never
// observe another caller's override.
package envgate

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/semaphore"
)

// exclusive is the semaphore weight held by an override; shared holders take
// a weight of 1 each.
const exclusive = 1 << 30

// Gate guards one environment variable.
type Gate struct {
	name string
	sem  *semaphore.Weighted
}

// New returns a gate for the environment variable name.
func New(name string) *Gate {
	return &Gate{
		name: name,
		sem:  semaphore.NewWeighted(exclusive),
	}
}

// Name returns the guarded variable's name.
func (g *Gate) Name() string { return g.name }

// Run calls fn with the variable set to value, or with the ambient value
// when value is empty. It returns ctx's error if ctx is done before the gate
// could be acquired.
func (g *Gate) Run(ctx context.Context, value string, fn func() error) error {
	if value == "" {
		return g.shared(ctx, fn)
	}
	return g.override(ctx, value, fn)
}

func (g *Gate) shared(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	return fn()
}

func (g *Gate) override(ctx context.Context, value string, fn func() error) (err error) {
	if err := g.sem.Acquire(ctx, exclusive); err != nil {
		return err
	}
	defer g.sem.Release(exclusive)

	prev, hadPrev := os.LookupEnv(g.name)
	if err := os.Setenv(g.name, value); err != nil {
		return fmt.Errorf("envgate: set %s: %w", g.name, err)
	}

	defer func() {
		var rerr error
		if hadPrev {
			rerr = os.Setenv(g.name, prev)
		} else {
			rerr = os.Unsetenv(g.name)
		}
		if rerr != nil && err == nil {
			err = fmt.Errorf("envgate: restore %s: %w", g.name, rerr)
		}
	}()

	return fn()
}
