//go:build mpibind

package mpibind

/*
#cgo LDFLAGS: -lmpibind -lhwloc
#include <stdlib.h>
#include <hwloc.h>
#include <mpibind.h>
*/
import "C"
import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/utkarsh5026/bindmap/internal/envgate"
	"github.com/utkarsh5026/bindmap/mapping"
)

var _ mapping.Engine = (*Engine)(nil)

// topologyGate is shared by every Engine: the variable is process-wide.
var topologyGate = envgate.New(TopologyEnv)

var errBadHandle = errors.New("mpibind: not an mpibind handle or already torn down")

// handle wraps the native handle together with memory the library keeps
// referencing until finalize.
type handle struct {
	p        *C.mpibind_t
	restrict *C.char
	computed bool
}

// Engine calls into libmpibind. It holds no state of its own; handles carry
// everything.
type Engine struct{}

// New returns the native engine.
func New() (*Engine, error) {
	return &Engine{}, nil
}

// FromPointer wraps a *mpibind_t created by other cgo code so it can be
// passed to mapping.WithHandle. The caller keeps ownership and must finalize
// it.
func FromPointer(p unsafe.Pointer) mapping.Handle {
	return &handle{p: (*C.mpibind_t)(p)}
}

func lookup(h mapping.Handle) (*handle, error) {
	hd, ok := h.(*handle)
	if !ok || hd == nil || hd.p == nil {
		return nil, errBadHandle
	}
	return hd, nil
}

func status(op string, rc C.int) error {
	if rc != 0 {
		return fmt.Errorf("mpibind: %s returned %d", op, int(rc))
	}
	return nil
}

func cbool(on bool) C.int {
	if on {
		return 1
	}
	return 0
}

func (e *Engine) CreateHandle() (mapping.Handle, error) {
	var p *C.mpibind_t
	if err := status("mpibind_init", C.mpibind_init(&p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("mpibind: mpibind_init returned a nil handle")
	}
	return &handle{p: p}, nil
}

// Teardown finalizes the handle. A topology the library loaded during
// Compute is not released by mpibind_finalize and is destroyed here.
func (e *Engine) Teardown(h mapping.Handle) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}

	var topo C.hwloc_topology_t
	if hd.computed {
		topo = C.mpibind_get_topology(hd.p)
	}

	rc := C.mpibind_finalize(hd.p)
	if topo != nil {
		C.hwloc_topology_destroy(topo)
	}
	if hd.restrict != nil {
		C.free(unsafe.Pointer(hd.restrict))
		hd.restrict = nil
	}
	hd.p = nil

	return status("mpibind_finalize", rc)
}

func (e *Engine) SetTaskCount(h mapping.Handle, n int) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}
	return status("mpibind_set_ntasks", C.mpibind_set_ntasks(hd.p, C.int(n)))
}

func (e *Engine) SetThreadCount(h mapping.Handle, n int) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}
	return status("mpibind_set_nthreads", C.mpibind_set_nthreads(hd.p, C.int(n)))
}

func (e *Engine) SetSMT(h mapping.Handle, level int) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}
	return status("mpibind_set_smt", C.mpibind_set_smt(hd.p, C.int(level)))
}

func (e *Engine) SetGreedy(h mapping.Handle, on bool) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}
	return status("mpibind_set_greedy", C.mpibind_set_greedy(hd.p, cbool(on)))
}

func (e *Engine) SetGPUOptim(h mapping.Handle, on bool) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}
	return status("mpibind_set_gpu_optim", C.mpibind_set_gpu_optim(hd.p, cbool(on)))
}

// SetRestrict passes the id-set to the library, which keeps the pointer
// rather than copying the string; the copy lives until Teardown.
func (e *Engine) SetRestrict(h mapping.Handle, ids string, kind mapping.RestrictKind) error {
	hd, err := lookup(h)
	if err != nil {
		return err
	}

	restrType := C.int(C.MPIBIND_RESTRICT_CPU)
	if kind == mapping.RestrictMem {
		restrType = C.int(C.MPIBIND_RESTRICT_MEM)
	}
	if err := status("mpibind_set_restrict_type", C.mpibind_set_restrict_type(hd.p, restrType)); err != nil {
		return err
	}

	cs := C.CString(ids)
	if err := status("mpibind_set_restrict_ids", C.mpibind_set_restrict_ids(hd.p, cs)); err != nil {
		C.free(unsafe.Pointer(cs))
		return err
	}
	if hd.restrict != nil {
		C.free(unsafe.Pointer(hd.restrict))
	}
	hd.restrict = cs
	return nil
}

// Compute runs mpibind() with the topology override, if any, applied through
// HWLOC_XMLFILE while holding the process-wide topology gate.
func (e *Engine) Compute(ctx context.Context, h mapping.Handle, topology string) (int, error) {
	hd, err := lookup(h)
	if err != nil {
		return 0, err
	}

	var rc C.int
	err = topologyGate.Run(ctx, topology, func() error {
		rc = C.mpibind(hd.p)
		return nil
	})
	if err != nil {
		return 0, err
	}

	hd.computed = true
	return int(rc), nil
}

// MappingText prints the mapping into buf with mpibind_mapping_snprint.
// When the text does not fit, the returned length is at least len(buf).
func (e *Engine) MappingText(h mapping.Handle, buf []byte) (int, error) {
	hd, err := lookup(h)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, errors.New("mpibind: empty mapping buffer")
	}

	n := C.mpibind_mapping_snprint((*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)), hd.p)
	if n < 0 {
		return 0, fmt.Errorf("mpibind: mpibind_mapping_snprint returned %d", int(n))
	}
	return int(n), nil
}
