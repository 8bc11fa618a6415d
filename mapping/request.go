package mapping

import (
	"context"
	"errors"
	"sync/atomic"
)

// Request owns the lifecycle of one mapping computation: it applies the
// configured options to an engine handle, runs the computation, copies the
// mapping text out and parses it.
//
// A Request is consumed by its first Compute call.
type Request struct {
	engine Engine
	cfg    *requestConfig
	used   atomic.Bool
}

// NewRequest validates opts and returns a request ready to be computed.
// Invalid or missing configuration is reported as a *ConfigError and no
// engine call is made.
//
// Example:
//
//	req, err := mapping.NewRequest(eng,
//	    mapping.WithTaskCount(4),
//	    mapping.WithGreedy(false),
//	)
//	if err != nil {
//	    return err
//	}
//	m, err := req.Compute(ctx)
func NewRequest(eng Engine, opts ...Option) (*Request, error) {
	if eng == nil {
		return nil, configError("engine is nil")
	}

	cfg := createConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Request{engine: eng, cfg: cfg}, nil
}

// RequestMapping validates opts, computes the mapping and returns it. It is
// shorthand for NewRequest followed by Compute.
func RequestMapping(ctx context.Context, eng Engine, opts ...Option) (Mapping, error) {
	req, err := NewRequest(eng, opts...)
	if err != nil {
		return nil, err
	}
	return req.Compute(ctx)
}

// Compute runs the request and returns the parsed mapping.
//
// With an owned handle (no WithHandle option) the handle is created here and
// torn down once the mapping text has been copied out, whether or not the
// computation or the parsing succeeds. A borrowed handle is never torn down.
//
// The engine computation blocks and cannot be interrupted; ctx only bounds
// the time spent before it starts.
func (r *Request) Compute(ctx context.Context) (Mapping, error) {
	if !r.used.CompareAndSwap(false, true) {
		return nil, configError("request already computed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return ParseMappingText(text)
}

// fetch acquires the handle, computes and copies the mapping text out. An
// owned handle is released before fetch returns.
func (r *Request) fetch(ctx context.Context) (text string, err error) {
	h := r.cfg.handle
	if !r.cfg.borrowed {
		h, err = r.engine.CreateHandle()
		if err != nil {
			return "", &EngineError{Op: "create_handle", Err: err}
		}
		debugLog("created owned handle for %d tasks", r.cfg.taskCount.value)

		defer func() {
			err = r.teardown(h, err)
		}()
	}

	if err := r.configure(h); err != nil {
		return "", err
	}

	status, err := r.engine.Compute(ctx, h, r.cfg.topology)
	if err != nil || status != 0 {
		return "", &EngineError{Op: "compute", Status: status, Err: err}
	}

	return retrieveText(r.engine, h, r.cfg.bufSize, r.cfg.maxBufSize)
}

// configure applies every option that was set, in a fixed order.
func (r *Request) configure(h Handle) error {
	cfg, eng := r.cfg, r.engine
	steps := []struct {
		op    string
		set   bool
		apply func() error
	}{
		{"set_task_count", cfg.taskCount.set, func() error { return eng.SetTaskCount(h, cfg.taskCount.value) }},
		{"set_thread_count", cfg.threadCount.set, func() error { return eng.SetThreadCount(h, cfg.threadCount.value) }},
		{"set_smt", cfg.smt.set, func() error { return eng.SetSMT(h, cfg.smt.value) }},
		{"set_greedy", cfg.greedy.set, func() error { return eng.SetGreedy(h, cfg.greedy.value) }},
		{"set_gpu_optim", cfg.gpuOptim.set, func() error { return eng.SetGPUOptim(h, cfg.gpuOptim.value) }},
		{"set_restrict", cfg.restrictIDs.set, func() error { return eng.SetRestrict(h, cfg.restrictIDs.value, cfg.restrictKind) }},
	}

	for _, step := range steps {
		if !step.set {
			continue
		}
		if err := step.apply(); err != nil {
			return &EngineError{Op: step.op, Err: err}
		}
	}
	return nil
}

// teardown releases an owned handle and folds a teardown failure into the
// request's result.
func (r *Request) teardown(h Handle, err error) error {
	terr := r.engine.Teardown(h)
	if terr == nil {
		return err
	}

	terr = &EngineError{Op: "teardown", Err: terr}
	if err == nil {
		return terr
	}
	return errors.Join(err, terr)
}
