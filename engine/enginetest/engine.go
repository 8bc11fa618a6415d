// Package enginetest provides an in-memory mapping.Engine for tests. It
// records every call, keeps the settings applied to each handle, and returns
// scripted or synthesized mapping text.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/utkarsh5026/bindmap/idset"
	"github.com/utkarsh5026/bindmap/mapping"
)

// Operation names recorded in Call.Op and accepted as keys of Engine.Errs.
const (
	OpCreateHandle   = "create_handle"
	OpTeardown       = "teardown"
	OpSetTaskCount   = "set_task_count"
	OpSetThreadCount = "set_thread_count"
	OpSetSMT         = "set_smt"
	OpSetGreedy      = "set_greedy"
	OpSetGPUOptim    = "set_gpu_optim"
	OpSetRestrict    = "set_restrict"
	OpCompute        = "compute"
	OpMappingText    = "mapping_text"
)

var errUnknownHandle = errors.New("enginetest: unknown or torn down handle")

// Call is one recorded engine call.
type Call struct {
	Op     string
	Handle int
	Arg    any
}

// Handle holds the settings applied through the engine. Fields use the
// engine's defaults until set.
type Handle struct {
	ID           int
	Owned        bool
	TaskCount    int
	ThreadCount  int
	SMT          int
	Greedy       bool
	GPUOptim     bool
	RestrictIDs  string
	RestrictKind mapping.RestrictKind
	Topology     string
	Computed     bool
	TornDown     bool
}

// Engine is a recording fake. The zero value is ready to use and returns
// empty mapping text.
type Engine struct {
	// Text is returned by MappingText when TextFunc is nil.
	Text string

	// TextFunc, when set, renders the mapping text from the handle.
	TextFunc func(h *Handle) string

	// Status is returned by every Compute call.
	Status int

	// Errs injects an error for the named operation (see the Op constants).
	Errs map[string]error

	mu      sync.Mutex
	calls   []Call
	handles []*Handle
}

// New returns an engine that returns text for every computation.
func New(text string) *Engine {
	return &Engine{Text: text}
}

// NewHandle registers a handle the way a caller using the native API
// directly would create one. It is not recorded as a call and is not owned by
// any request.
func (e *Engine) NewHandle() *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newHandleLocked(false)
}

func (e *Engine) newHandleLocked(owned bool) *Handle {
	h := &Handle{ID: len(e.handles), Owned: owned, Greedy: true, GPUOptim: true}
	e.handles = append(e.handles, h)
	return h
}

// Calls returns a copy of the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Ops returns the recorded operation names in call order.
func (e *Engine) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ops := make([]string, len(e.calls))
	for i, c := range e.calls {
		ops[i] = c.Op
	}
	return ops
}

// Reset forgets every recorded call and handle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls, e.handles = nil, nil
}

// Live returns the number of handles created through CreateHandle that have
// not been torn down.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, h := range e.handles {
		if h.Owned && !h.TornDown {
			n++
		}
	}
	return n
}

// record logs the call and returns the injected error for op, if any.
func (e *Engine) record(op string, h *Handle, arg any) error {
	id := -1
	if h != nil {
		id = h.ID
	}
	e.calls = append(e.calls, Call{Op: op, Handle: id, Arg: arg})
	return e.Errs[op]
}

func (e *Engine) lookup(h mapping.Handle) (*Handle, error) {
	fh, ok := h.(*Handle)
	if !ok || fh == nil || fh.TornDown {
		return nil, errUnknownHandle
	}
	return fh, nil
}

func (e *Engine) CreateHandle() (mapping.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(OpCreateHandle, nil, nil); err != nil {
		return nil, err
	}
	return e.newHandleLocked(true), nil
}

func (e *Engine) Teardown(h mapping.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fh, err := e.lookup(h)
	if err != nil {
		return err
	}
	if err := e.record(OpTeardown, fh, nil); err != nil {
		return err
	}
	fh.TornDown = true
	return nil
}

// set applies a setter under the lock after recording it.
func (e *Engine) set(op string, h mapping.Handle, arg any, apply func(*Handle)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fh, err := e.lookup(h)
	if err != nil {
		return err
	}
	if err := e.record(op, fh, arg); err != nil {
		return err
	}
	apply(fh)
	return nil
}

func (e *Engine) SetTaskCount(h mapping.Handle, n int) error {
	return e.set(OpSetTaskCount, h, n, func(fh *Handle) { fh.TaskCount = n })
}

func (e *Engine) SetThreadCount(h mapping.Handle, n int) error {
	return e.set(OpSetThreadCount, h, n, func(fh *Handle) { fh.ThreadCount = n })
}

func (e *Engine) SetSMT(h mapping.Handle, level int) error {
	return e.set(OpSetSMT, h, level, func(fh *Handle) { fh.SMT = level })
}

func (e *Engine) SetGreedy(h mapping.Handle, on bool) error {
	return e.set(OpSetGreedy, h, on, func(fh *Handle) { fh.Greedy = on })
}

func (e *Engine) SetGPUOptim(h mapping.Handle, on bool) error {
	return e.set(OpSetGPUOptim, h, on, func(fh *Handle) { fh.GPUOptim = on })
}

func (e *Engine) SetRestrict(h mapping.Handle, ids string, kind mapping.RestrictKind) error {
	return e.set(OpSetRestrict, h, ids, func(fh *Handle) {
		fh.RestrictIDs = ids
		fh.RestrictKind = kind
	})
}

func (e *Engine) Compute(ctx context.Context, h mapping.Handle, topology string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fh, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	if err := e.record(OpCompute, fh, topology); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fh.Topology = topology
	fh.Computed = e.Status == 0
	return e.Status, nil
}

func (e *Engine) MappingText(h mapping.Handle, buf []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fh, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	if err := e.record(OpMappingText, fh, len(buf)); err != nil {
		return 0, err
	}
	if !fh.Computed {
		return 0, fmt.Errorf("enginetest: handle %d has not been computed", fh.ID)
	}

	text := e.Text
	if e.TextFunc != nil {
		text = e.TextFunc(fh)
	}

	if len(buf) > 0 {
		n := copy(buf[:len(buf)-1], text)
		buf[n] = 0
	}
	return len(text), nil
}

// Uniform returns a TextFunc that gives every task cpusPerTask consecutive
// CPU ids and gpusPerTask consecutive GPU ids, formatted the way the native
// engine prints its mapping. The thread count is the handle's thread count,
// or cpusPerTask when none was set.
func Uniform(cpusPerTask, gpusPerTask int) func(h *Handle) string {
	return func(h *Handle) string {
		threads := h.ThreadCount
		if threads == 0 {
			threads = cpusPerTask
		}

		var b strings.Builder
		for task := 0; task < h.TaskCount; task++ {
			fmt.Fprintf(&b, "mpibind: task %3d nths %2d gpus %s cpus %s\n",
				task, threads,
				idset.Encode(span(task*gpusPerTask, gpusPerTask)),
				idset.Encode(span(task*cpusPerTask, cpusPerTask)))
		}
		return b.String()
	}
}

func span(start, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = start + i
	}
	return ids
}
