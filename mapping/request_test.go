package mapping_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/utkarsh5026/bindmap/engine/enginetest"
	"github.com/utkarsh5026/bindmap/mapping"
)

const twoTasks = "mpibind: task 0 thds 2 gpus 0 cpus 0-3\nmpibind: task 1 thds 2 gpus 1 cpus 4-7\n"

func TestRequestMapping_OwnedLifecycle(t *testing.T) {
	eng := enginetest.New(twoTasks)

	m, err := mapping.RequestMapping(context.Background(), eng,
		mapping.WithTaskCount(2),
		mapping.WithThreadCount(2),
		mapping.WithSMT(1),
		mapping.WithGreedy(false),
		mapping.WithGPUOptim(true),
		mapping.WithRestrict("0-7", mapping.RestrictCPU),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(m))
	}

	want := []string{
		enginetest.OpCreateHandle,
		enginetest.OpSetTaskCount,
		enginetest.OpSetThreadCount,
		enginetest.OpSetSMT,
		enginetest.OpSetGreedy,
		enginetest.OpSetGPUOptim,
		enginetest.OpSetRestrict,
		enginetest.OpCompute,
		enginetest.OpMappingText,
		enginetest.OpTeardown,
	}
	if got := eng.Ops(); !slices.Equal(got, want) {
		t.Errorf("calls = %v\nwant    %v", got, want)
	}
	if eng.Live() != 0 {
		t.Errorf("expected owned handle to be torn down, %d live", eng.Live())
	}
}

func TestRequestMapping_OnlySetOptionsApplied(t *testing.T) {
	eng := &enginetest.Engine{TextFunc: enginetest.Uniform(2, 0)}

	m, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(m))
	}

	want := []string{
		enginetest.OpCreateHandle,
		enginetest.OpSetTaskCount,
		enginetest.OpCompute,
		enginetest.OpMappingText,
		enginetest.OpTeardown,
	}
	if got := eng.Ops(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if m[2].CPUs().Text() != "4-5" || m[2].GPUs().Count() != 0 {
		t.Errorf("unexpected task 2: %v", m[2])
	}
}

func TestRequestMapping_AppliedValues(t *testing.T) {
	eng := &enginetest.Engine{TextFunc: enginetest.Uniform(4, 1)}

	var seen *enginetest.Handle
	eng.TextFunc = func(h *enginetest.Handle) string {
		seen = h
		return enginetest.Uniform(4, 1)(h)
	}

	m, err := mapping.RequestMapping(context.Background(), eng,
		mapping.WithTaskCount(2),
		mapping.WithThreadCount(3),
		mapping.WithGreedy(false),
		mapping.WithRestrict("0,1", mapping.RestrictMem),
		mapping.WithTopology("/tmp/node.xml"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.TaskCount != 2 || seen.ThreadCount != 3 {
		t.Errorf("unexpected counts on handle: %+v", seen)
	}
	if seen.Greedy || !seen.GPUOptim {
		t.Errorf("expected greedy off and gpu optim left at default: %+v", seen)
	}
	if seen.RestrictIDs != "0,1" || seen.RestrictKind != mapping.RestrictMem {
		t.Errorf("unexpected restrict on handle: %q %v", seen.RestrictIDs, seen.RestrictKind)
	}
	if seen.Topology != "/tmp/node.xml" {
		t.Errorf("expected topology to be passed to compute, got %q", seen.Topology)
	}
	if m[1].ThreadCount() != 3 || m[1].GPUs().Text() != "1" {
		t.Errorf("unexpected task 1: %v", m[1])
	}
}

func TestRequestMapping_BorrowedHandle(t *testing.T) {
	eng := enginetest.New(twoTasks)
	h := eng.NewHandle()
	h.TaskCount = 8
	h.Greedy = false

	m, err := mapping.RequestMapping(context.Background(), eng,
		mapping.WithHandle(h),
		mapping.WithTaskCount(2),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(m))
	}

	want := []string{enginetest.OpSetTaskCount, enginetest.OpCompute, enginetest.OpMappingText}
	if got := eng.Ops(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if h.TornDown {
		t.Error("borrowed handle must not be torn down")
	}
	if h.Greedy {
		t.Error("settings made on a borrowed handle should be left alone")
	}
}

func TestRequestMapping_ConfigErrorMakesNoCalls(t *testing.T) {
	eng := enginetest.New(twoTasks)

	_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithThreadCount(2))

	var cerr *mapping.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if len(eng.Calls()) != 0 {
		t.Errorf("expected no engine calls, got %v", eng.Ops())
	}
}

func TestNewRequest_NilEngine(t *testing.T) {
	_, err := mapping.NewRequest(nil, mapping.WithTaskCount(1))
	if !errors.Is(err, mapping.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRequestMapping_OwnedHandleReleasedOnFailure(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		engine *enginetest.Engine
		opts   []mapping.Option
		op     string
		is     error
	}{
		{
			name:   "setter fails",
			engine: &enginetest.Engine{Errs: map[string]error{enginetest.OpSetSMT: boom}},
			opts:   []mapping.Option{mapping.WithSMT(2)},
			op:     "set_smt",
			is:     boom,
		},
		{
			name:   "compute fails",
			engine: &enginetest.Engine{Errs: map[string]error{enginetest.OpCompute: boom}},
			op:     "compute",
			is:     boom,
		},
		{
			name:   "compute status",
			engine: &enginetest.Engine{Status: 3},
			op:     "compute",
			is:     mapping.ErrEngine,
		},
		{
			name:   "text retrieval fails",
			engine: &enginetest.Engine{Text: twoTasks, Errs: map[string]error{enginetest.OpMappingText: boom}},
			op:     "mapping_text",
			is:     boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]mapping.Option{mapping.WithTaskCount(2)}, tt.opts...)

			_, err := mapping.RequestMapping(context.Background(), tt.engine, opts...)

			var eerr *mapping.EngineError
			if !errors.As(err, &eerr) {
				t.Fatalf("expected *EngineError, got %T: %v", err, err)
			}
			if eerr.Op != tt.op {
				t.Errorf("expected op %q, got %q", tt.op, eerr.Op)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("expected errors.Is(err, %v)", tt.is)
			}

			ops := tt.engine.Ops()
			if ops[len(ops)-1] != enginetest.OpTeardown {
				t.Errorf("expected teardown as last call, got %v", ops)
			}
			if tt.engine.Live() != 0 {
				t.Errorf("expected no live handles, got %d", tt.engine.Live())
			}
		})
	}
}

func TestRequestMapping_ComputeStatus(t *testing.T) {
	eng := &enginetest.Engine{Status: 5}

	_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(1))

	var eerr *mapping.EngineError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected *EngineError, got %T: %v", err, err)
	}
	if eerr.Status != 5 || eerr.Err != nil {
		t.Errorf("expected status 5 without adapter error, got %+v", eerr)
	}
	if slices.Contains(eng.Ops(), enginetest.OpMappingText) {
		t.Error("mapping text must not be read after a failed computation")
	}
}

func TestRequestMapping_ParseFailureStillTearsDown(t *testing.T) {
	eng := enginetest.New("mpibind: task 0 thds 2 gpus 0\n")

	_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(1))

	if !errors.Is(err, mapping.ErrMappingFormat) {
		t.Fatalf("expected ErrMappingFormat, got %v", err)
	}
	if eng.Live() != 0 {
		t.Errorf("expected handle torn down, %d live", eng.Live())
	}
}

func TestRequestMapping_CreateHandleFails(t *testing.T) {
	boom := errors.New("no memory")
	eng := &enginetest.Engine{Errs: map[string]error{enginetest.OpCreateHandle: boom}}

	_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(1))

	var eerr *mapping.EngineError
	if !errors.As(err, &eerr) || eerr.Op != "create_handle" {
		t.Fatalf("expected create_handle EngineError, got %v", err)
	}
	if got := eng.Ops(); !slices.Equal(got, []string{enginetest.OpCreateHandle}) {
		t.Errorf("expected only create_handle, got %v", got)
	}
}

func TestRequestMapping_TeardownError(t *testing.T) {
	boom := errors.New("finalize failed")

	t.Run("after success", func(t *testing.T) {
		eng := &enginetest.Engine{Text: twoTasks, Errs: map[string]error{enginetest.OpTeardown: boom}}

		_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(2))

		var eerr *mapping.EngineError
		if !errors.As(err, &eerr) || eerr.Op != "teardown" {
			t.Fatalf("expected teardown EngineError, got %v", err)
		}
	})

	t.Run("joined with earlier failure", func(t *testing.T) {
		computeErr := errors.New("compute failed")
		eng := &enginetest.Engine{Errs: map[string]error{
			enginetest.OpCompute:  computeErr,
			enginetest.OpTeardown: boom,
		}}

		_, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(2))

		if !errors.Is(err, computeErr) || !errors.Is(err, boom) {
			t.Errorf("expected both failures to be reported, got %v", err)
		}
	})
}

func TestRequestMapping_BufferGrowth(t *testing.T) {
	eng := &enginetest.Engine{TextFunc: enginetest.Uniform(1, 0)}

	m, err := mapping.RequestMapping(context.Background(), eng,
		mapping.WithTaskCount(64),
		mapping.WithBufferSize(32),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 64 {
		t.Fatalf("expected 64 tasks, got %d", len(m))
	}

	reads := 0
	for _, c := range eng.Calls() {
		if c.Op == enginetest.OpMappingText {
			reads++
		}
	}
	if reads != 2 {
		t.Errorf("expected one retry after the first short buffer, got %d reads", reads)
	}
}

func TestRequestMapping_Truncated(t *testing.T) {
	eng := &enginetest.Engine{TextFunc: enginetest.Uniform(1, 0)}

	_, err := mapping.RequestMapping(context.Background(), eng,
		mapping.WithTaskCount(64),
		mapping.WithBufferSize(128),
		mapping.WithMaxBufferSize(128),
	)

	var terr *mapping.TruncationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TruncationError, got %T: %v", err, err)
	}
	if terr.Capacity != 128 || terr.Needed <= 128 {
		t.Errorf("unexpected truncation details %+v", terr)
	}
	if eng.Live() != 0 {
		t.Error("expected handle torn down after truncation")
	}
}

func TestRequestMapping_EmptyText(t *testing.T) {
	eng := enginetest.New("")

	m, err := mapping.RequestMapping(context.Background(), eng, mapping.WithTaskCount(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty mapping, got %v", m)
	}
}

func TestRequest_ComputeOnce(t *testing.T) {
	eng := enginetest.New(twoTasks)

	req, err := mapping.NewRequest(eng, mapping.WithTaskCount(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := req.Compute(context.Background()); err != nil {
		t.Fatalf("first compute: %v", err)
	}

	calls := len(eng.Calls())
	_, err = req.Compute(context.Background())

	var cerr *mapping.ConfigError
	if !errors.As(err, &cerr) || !strings.Contains(cerr.Error(), "already computed") {
		t.Fatalf("expected already computed ConfigError, got %v", err)
	}
	if len(eng.Calls()) != calls {
		t.Error("second compute must not touch the engine")
	}
}

func TestRequest_CancelledContext(t *testing.T) {
	eng := enginetest.New(twoTasks)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mapping.RequestMapping(ctx, eng, mapping.WithTaskCount(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(eng.Calls()) != 0 {
		t.Errorf("expected no engine calls, got %v", eng.Ops())
	}
}
