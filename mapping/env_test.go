package mapping

import (
	"maps"
	"slices"
	"testing"
)

func TestTaskAssignment_Env(t *testing.T) {
	withGPUs, _ := NewTaskAssignment(4, "0-3", "0,2")
	noGPUs, _ := NewTaskAssignment(2, "4-5", "")

	base := func(threads string) map[string]string {
		return map[string]string{
			"OMP_NUM_THREADS": threads,
			"OMP_PLACES":      "threads",
			"OMP_PROC_BIND":   "spread",
		}
	}
	with := func(env map[string]string, k, v string) map[string]string {
		env[k] = v
		return env
	}

	tests := []struct {
		name   string
		ta     TaskAssignment
		vendor GPUVendor
		want   map[string]string
	}{
		{"nvidia", withGPUs, VendorNVIDIA, with(base("4"), "CUDA_VISIBLE_DEVICES", "0,2")},
		{"amd", withGPUs, VendorAMD, with(base("4"), "ROCR_VISIBLE_DEVICES", "0,2")},
		{"no vendor", withGPUs, VendorNone, base("4")},
		{"no gpus", noGPUs, VendorNVIDIA, base("2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ta.Env(tt.vendor)
			if !maps.Equal(got, tt.want) {
				t.Errorf("Env() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapping_Environ(t *testing.T) {
	m, err := ParseMappingText("mpibind: task 0 thds 2 gpus 1 cpus 0-1\nmpibind: task 1 thds 1 gpus  cpus 2\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := m.Environ(VendorNVIDIA)
	if len(env) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(env))
	}

	want0 := []string{
		"CUDA_VISIBLE_DEVICES=1",
		"OMP_NUM_THREADS=2",
		"OMP_PLACES=threads",
		"OMP_PROC_BIND=spread",
	}
	if !slices.Equal(env[0], want0) {
		t.Errorf("task 0 env = %v, want %v", env[0], want0)
	}
	if len(env[1]) != 3 || env[1][0] != "OMP_NUM_THREADS=1" {
		t.Errorf("unexpected task 1 env %v", env[1])
	}
}
