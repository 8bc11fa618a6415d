//go:build linux

package cpu

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxCPUs is the number of CPU ids a unix.CPUSet can hold.
var maxCPUs = int(unsafe.Sizeof(unix.CPUSet{})) * 8

// PinToSet locks the calling goroutine to its OS thread and restricts that
// thread to the given CPU ids. The returned release func restores the
// previous affinity mask and unlocks the thread; it must be called from the
// same goroutine, typically deferred.
func PinToSet(ids []int) (func(), error) {
	if len(ids) == 0 {
		return nil, ErrEmptySet
	}

	var mask unix.CPUSet
	mask.Zero()
	for _, id := range ids {
		if id < 0 || id >= maxCPUs {
			return nil, fmt.Errorf("cpu: id %d out of range [0, %d)", id, maxCPUs)
		}
		mask.Set(id)
	}

	runtime.LockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil { // 0 = current thread
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("cpu: sched_getaffinity: %w", err)
	}
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("cpu: sched_setaffinity: %w", err)
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prev)
		runtime.UnlockOSThread()
	}, nil
}

// CurrentSet returns the CPU ids the calling thread is allowed to run on.
// Unless the goroutine is locked to its thread the answer may already be
// stale when it is returned.
func CurrentSet() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("cpu: sched_getaffinity: %w", err)
	}

	ids := make([]int, 0, set.Count())
	for id := 0; id < maxCPUs; id++ {
		if set.IsSet(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
