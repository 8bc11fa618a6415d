package mapping

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchOption configures RequestAll.
type BatchOption func(*batchConfig)

type batchConfig struct {
	concurrency int
	rateLimiter *rate.Limiter
	onComplete  func(index int, m Mapping, err error)
}

// WithConcurrency sets how many requests may run at the same time.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithConcurrency(n int) BatchOption {
	return func(cfg *batchConfig) {
		if n > 0 {
			cfg.concurrency = n
		}
	}
}

// WithRateLimit limits how many requests start per second. Each computation
// makes the engine load a hardware topology, which can be expensive on large
// nodes.
//
// Example:
//
//	WithRateLimit(2, 1) // at most 2 computations/sec, no bursts
func WithRateLimit(perSecond float64, burst int) BatchOption {
	return func(cfg *batchConfig) {
		if perSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithOnComplete registers a hook called after each request finishes, with
// the request's index in the batch. The hook may be called concurrently.
func WithOnComplete(fn func(index int, m Mapping, err error)) BatchOption {
	return func(cfg *batchConfig) {
		cfg.onComplete = fn
	}
}

// RequestAll computes one mapping per entry of requests, each on its own
// owned handle, and returns them in input order.
//
// Every request is validated before any of them runs. Requests with a
// borrowed handle are rejected, since one handle cannot serve concurrent
// computations. Processing stops at the first failure, whose error is
// returned.
//
// Example:
//
//	mappings, err := mapping.RequestAll(ctx, eng, [][]mapping.Option{
//	    {mapping.WithTaskCount(2)},
//	    {mapping.WithTaskCount(4), mapping.WithSMT(1)},
//	}, mapping.WithConcurrency(2))
func RequestAll(ctx context.Context, eng Engine, requests [][]Option, opts ...BatchOption) ([]Mapping, error) {
	cfg := &batchConfig{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(cfg)
	}

	reqs := make([]*Request, len(requests))
	for i, ropts := range requests {
		req, err := NewRequest(eng, ropts...)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		if req.cfg.borrowed {
			return nil, fmt.Errorf("request %d: %w", i, configError("borrowed handles are not supported in a batch"))
		}
		reqs[i] = req
	}

	results := make([]Mapping, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, req := range reqs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if cfg.rateLimiter != nil {
				if err := cfg.rateLimiter.Wait(gctx); err != nil {
					return err
				}
			}

			m, err := req.Compute(gctx)
			if cfg.onComplete != nil {
				cfg.onComplete(i, m, err)
			}
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}

			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
