package mapping

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// GPUVendor selects which *_VISIBLE_DEVICES variable a task's GPUs are
// exported through.
type GPUVendor int

const (
	VendorNone GPUVendor = iota
	VendorNVIDIA
	VendorAMD
)

// visibleDevicesVar returns the runtime variable for the vendor, or "".
func (v GPUVendor) visibleDevicesVar() string {
	switch v {
	case VendorNVIDIA:
		return "CUDA_VISIBLE_DEVICES"
	case VendorAMD:
		return "ROCR_VISIBLE_DEVICES"
	default:
		return ""
	}
}

// Env returns the runtime environment that applies the assignment to an
// OpenMP / GPU program: OMP_NUM_THREADS, OMP_PLACES and OMP_PROC_BIND, plus
// the vendor's visible-devices variable listing the task's GPU ids when the
// task has any.
//
// OMP_PLACES is "threads" rather than an explicit list: the process is
// already bound to its CPUs, and some OpenMP runtimes read explicit places as
// indices relative to the binding.
func (ta TaskAssignment) Env(vendor GPUVendor) map[string]string {
	env := map[string]string{
		"OMP_NUM_THREADS": strconv.Itoa(ta.threads),
		"OMP_PLACES":      "threads",
		"OMP_PROC_BIND":   "spread",
	}

	if name := vendor.visibleDevicesVar(); name != "" && len(ta.gpus.ids) > 0 {
		ids := make([]string, len(ta.gpus.ids))
		for i, id := range ta.gpus.ids {
			ids[i] = strconv.Itoa(id)
		}
		env[name] = strings.Join(ids, ",")
	}
	return env
}

// Environ returns, for each task, its Env as "KEY=VALUE" entries sorted by key,
// in the form accepted by exec.Cmd.Env.
func (m Mapping) Environ(vendor GPUVendor) [][]string {
	out := make([][]string, len(m))
	for i, ta := range m {
		env := ta.Env(vendor)
		entries := make([]string, 0, len(env))
		for _, k := range slices.Sorted(maps.Keys(env)) {
			entries = append(entries, k+"="+env[k])
		}
		out[i] = entries
	}
	return out
}
