package mapping

import "context"

// Handle is an opaque reference to one configurable engine computation. Its
// concrete type belongs to the Engine that created it.
type Handle any

// RestrictKind selects which resource a restrict id-set refers to.
type RestrictKind int

const (
	// RestrictCPU restricts the topology to the given CPU (PU) ids.
	RestrictCPU RestrictKind = iota
	// RestrictMem restricts the topology to the given NUMA node ids.
	RestrictMem
)

func (k RestrictKind) String() string {
	if k == RestrictMem {
		return "mem"
	}
	return "cpu"
}

// Engine is the minimal surface of the native mapping engine used by a
// Request. Implementations live in the engine/ packages.
//
// Configuration calls are made in a fixed order: task count, thread count,
// SMT level, greedy, GPU optimization, restrict set. A Handle must not be
// used by concurrent Compute calls.
type Engine interface {
	// CreateHandle allocates a fresh handle with engine defaults.
	CreateHandle() (Handle, error)

	// Teardown releases a handle created by CreateHandle.
	Teardown(h Handle) error

	SetTaskCount(h Handle, n int) error
	SetThreadCount(h Handle, n int) error
	SetSMT(h Handle, level int) error
	SetGreedy(h Handle, on bool) error
	SetGPUOptim(h Handle, on bool) error
	SetRestrict(h Handle, ids string, kind RestrictKind) error

	// Compute runs the mapping. topology, when not empty, is the hardware
	// topology source the engine must use for this computation only. ctx may
	// bound the time spent waiting to apply the topology; the computation
	// itself is not interruptible. A nonzero status is an engine failure.
	Compute(ctx context.Context, h Handle, topology string) (status int, err error)

	// MappingText copies the mapping text of a computed handle into buf. At
	// most len(buf)-1 bytes are written followed by a NUL. n < len(buf) is the
	// length of the complete text; n >= len(buf) means the copy is truncated,
	// and n may then understate the full length.
	MappingText(h Handle, buf []byte) (n int, err error)
}
