package mapping

import (
	"fmt"

	"github.com/utkarsh5026/bindmap/idset"
)

const (
	// DefaultBufferSize is the initial capacity used to retrieve mapping text.
	DefaultBufferSize = 2048

	// DefaultMaxBufferSize caps how far the retrieval buffer may grow.
	DefaultMaxBufferSize = 1 << 20
)

// Option configures a mapping request.
//
// Options record their argument as given; all validation happens in
// NewRequest so that every problem is reported in a single ConfigError
// before the engine is touched.
type Option func(*requestConfig)

// optional is a value that may or may not have been configured.
type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] { return optional[T]{value: v, set: true} }

type requestConfig struct {
	taskCount   optional[int]
	threadCount optional[int]
	smt         optional[int]
	greedy      optional[bool]
	gpuOptim    optional[bool]
	topology    string

	restrictIDs  optional[string]
	restrictKind RestrictKind

	handle     Handle
	borrowed   bool
	bufSize    int
	maxBufSize int
}

// WithTaskCount sets the number of tasks to map. Required, must be >= 1.
func WithTaskCount(n int) Option {
	return func(cfg *requestConfig) {
		cfg.taskCount = some(n)
	}
}

// WithThreadCount sets the number of threads per task. If not specified the
// engine picks an appropriate count for each task.
func WithThreadCount(n int) Option {
	return func(cfg *requestConfig) {
		cfg.threadCount = some(n)
	}
}

// WithSMT maps workers to the given SMT level (hardware threads per core).
// For an n-way SMT architecture valid values are 1 to n.
func WithSMT(level int) Option {
	return func(cfg *requestConfig) {
		cfg.smt = some(level)
	}
}

// WithGreedy controls whether, with fewer tasks than NUMA domains, the engine
// assigns all available resources to the tasks. The engine default is true.
func WithGreedy(on bool) Option {
	return func(cfg *requestConfig) {
		cfg.greedy = some(on)
	}
}

// WithGPUOptim selects whether placement is optimized for GPUs (true, the
// engine default) or for CPUs.
func WithGPUOptim(on bool) Option {
	return func(cfg *requestConfig) {
		cfg.gpuOptim = some(on)
	}
}

// WithTopology makes the engine load its hardware topology from the given
// file (an hwloc XML export) for this request only.
func WithTopology(path string) Option {
	return func(cfg *requestConfig) {
		cfg.topology = path
	}
}

// WithRestrict restricts the topology to the resources named by ids, an
// id-set of CPU or NUMA node ids depending on kind.
//
// Example:
//
//	WithRestrict("24-35,72-83", RestrictCPU)
func WithRestrict(ids string, kind RestrictKind) Option {
	return func(cfg *requestConfig) {
		cfg.restrictIDs = some(ids)
		cfg.restrictKind = kind
	}
}

// WithHandle makes the request use a handle the caller created and
// configured. Only the options given to the request are applied on top of it,
// and the request never tears it down.
func WithHandle(h Handle) Option {
	return func(cfg *requestConfig) {
		cfg.handle = h
		cfg.borrowed = true
	}
}

// WithBufferSize sets the initial capacity used to retrieve the mapping text.
// If not specified, defaults to DefaultBufferSize.
func WithBufferSize(size int) Option {
	return func(cfg *requestConfig) {
		cfg.bufSize = size
	}
}

// WithMaxBufferSize caps how large the retrieval buffer may grow. Setting it
// equal to the initial size disables growth, so any text that does not fit
// fails with a TruncationError. If not specified, defaults to
// DefaultMaxBufferSize (or the initial size, if that is larger).
func WithMaxBufferSize(size int) Option {
	return func(cfg *requestConfig) {
		cfg.maxBufSize = size
	}
}

func createConfig(opts ...Option) *requestConfig {
	cfg := &requestConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.bufSize == 0 {
		cfg.bufSize = DefaultBufferSize
	}
	if cfg.maxBufSize == 0 {
		cfg.maxBufSize = max(DefaultMaxBufferSize, cfg.bufSize)
	}
	return cfg
}

// validate returns a ConfigError listing every violated constraint, or nil.
func (cfg *requestConfig) validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch {
	case !cfg.taskCount.set:
		addf("task count is required")
	case cfg.taskCount.value < 1:
		addf("task count must be >= 1, got %d", cfg.taskCount.value)
	}

	if cfg.threadCount.set && cfg.threadCount.value < 1 {
		addf("thread count must be >= 1, got %d", cfg.threadCount.value)
	}
	if cfg.smt.set && cfg.smt.value < 1 {
		addf("smt level must be >= 1, got %d", cfg.smt.value)
	}

	if cfg.restrictIDs.set {
		if cfg.restrictKind != RestrictCPU && cfg.restrictKind != RestrictMem {
			addf("unknown restrict kind %d", int(cfg.restrictKind))
		}
		if n, err := idset.Count(cfg.restrictIDs.value); err != nil {
			addf("restrict ids: %v", err)
		} else if n == 0 {
			addf("restrict ids must not be empty")
		}
	}

	if cfg.borrowed && cfg.handle == nil {
		addf("borrowed handle is nil")
	}

	if cfg.bufSize < 1 {
		addf("buffer size must be >= 1, got %d", cfg.bufSize)
	}
	if cfg.maxBufSize < cfg.bufSize {
		addf("max buffer size %d is smaller than buffer size %d", cfg.maxBufSize, cfg.bufSize)
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
