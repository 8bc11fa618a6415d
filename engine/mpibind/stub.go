//go:build !mpibind

package mpibind

import (
	"context"
	"unsafe"

	"github.com/utkarsh5026/bindmap/mapping"
)

var _ mapping.Engine = (*Engine)(nil)

// Engine is a placeholder whose methods all return ErrNotSupported.
type Engine struct{}

// New returns ErrNotSupported; rebuild with -tags mpibind for the native engine.
func New() (*Engine, error) {
	return nil, ErrNotSupported
}

// FromPointer returns nil without the native engine.
func FromPointer(p unsafe.Pointer) mapping.Handle {
	return nil
}

func (e *Engine) CreateHandle() (mapping.Handle, error) { return nil, ErrNotSupported }

func (e *Engine) Teardown(h mapping.Handle) error { return ErrNotSupported }

func (e *Engine) SetTaskCount(h mapping.Handle, n int) error { return ErrNotSupported }

func (e *Engine) SetThreadCount(h mapping.Handle, n int) error { return ErrNotSupported }

func (e *Engine) SetSMT(h mapping.Handle, level int) error { return ErrNotSupported }

func (e *Engine) SetGreedy(h mapping.Handle, on bool) error { return ErrNotSupported }

func (e *Engine) SetGPUOptim(h mapping.Handle, on bool) error { return ErrNotSupported }

func (e *Engine) SetRestrict(h mapping.Handle, ids string, kind mapping.RestrictKind) error {
	return ErrNotSupported
}

func (e *Engine) Compute(ctx context.Context, h mapping.Handle, topology string) (int, error) {
	return 0, ErrNotSupported
}

func (e *Engine) MappingText(h mapping.Handle, buf []byte) (int, error) {
	return 0, ErrNotSupported
}
