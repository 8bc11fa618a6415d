// Package cpu binds the calling goroutine's OS thread to a set of logical
// CPUs. Platform-specific implementations live in affinity_<os>.go.
package cpu

import (
	"errors"
	"runtime"
)

var (
	ErrEmptySet    = errors.New("cpu: empty cpu set")
	ErrUnsupported = errors.New("cpu: thread affinity not supported on this platform")
)

// GetNumCPU returns the number of logical CPUs available.
func GetNumCPU() int {
	return runtime.NumCPU()
}
