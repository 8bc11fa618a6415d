//go:build windows

package cpu

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// maxCPUs is the number of CPUs a single processor group affinity mask covers.
var maxCPUs = int(unsafe.Sizeof(uintptr(0))) * 8

// PinToSet locks the calling goroutine to its OS thread and restricts that
// thread to the given CPU ids, which must all lie in the first processor
// group. The returned release func restores the previous mask and unlocks
// the thread.
func PinToSet(ids []int) (func(), error) {
	if len(ids) == 0 {
		return nil, ErrEmptySet
	}

	// Bit N = CPU N
	var mask uintptr
	for _, id := range ids {
		if id < 0 || id >= maxCPUs {
			return nil, fmt.Errorf("cpu: id %d out of range [0, %d)", id, maxCPUs)
		}
		mask |= uintptr(1) << id
	}

	runtime.LockOSThread()

	handle, _, _ := getCurrentThread.Call()
	prevMask, _, err := setThreadAffinityMask.Call(handle, mask)
	if prevMask == 0 {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("cpu: SetThreadAffinityMask: %w", err)
	}

	return func() {
		_, _, _ = setThreadAffinityMask.Call(handle, prevMask)
		runtime.UnlockOSThread()
	}, nil
}

// CurrentSet is not available on Windows without changing the mask.
func CurrentSet() ([]int, error) {
	return nil, ErrUnsupported
}
