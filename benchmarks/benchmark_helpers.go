package benchmarks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/utkarsh5026/bindmap/idset"
)

// nodeShape describes a synthetic node the generated mapping text is laid
// out on.
type nodeShape struct {
	name        string
	tasks       int
	cpusPerTask int
	gpusPerTask int
	smt         int
}

func getNodeShapes() []nodeShape {
	return []nodeShape{
		{name: "Laptop", tasks: 2, cpusPerTask: 4, gpusPerTask: 0, smt: 1},
		{name: "CPUNode", tasks: 48, cpusPerTask: 2, gpusPerTask: 0, smt: 2},
		{name: "GPUNode", tasks: 8, cpusPerTask: 12, gpusPerTask: 1, smt: 2},
		{name: "Oversubscribed", tasks: 512, cpusPerTask: 1, gpusPerTask: 0, smt: 1},
	}
}

// mappingText renders the engine's output for the shape. With SMT each task
// gets its cores' sibling hardware threads as a second range.
func mappingText(s nodeShape) string {
	cores := s.tasks * s.cpusPerTask
	var b strings.Builder
	for task := 0; task < s.tasks; task++ {
		ids := make([]int, 0, s.cpusPerTask*s.smt)
		for level := 0; level < s.smt; level++ {
			for c := 0; c < s.cpusPerTask; c++ {
				ids = append(ids, level*cores+task*s.cpusPerTask+c)
			}
		}
		gpus := make([]int, s.gpusPerTask)
		for g := range gpus {
			gpus[g] = task*s.gpusPerTask + g
		}

		fmt.Fprintf(&b, "mpibind: task %3d nths %2d gpus %s cpus %s\n",
			task, s.cpusPerTask*s.smt, idset.Encode(gpus), idset.Encode(ids))
	}
	return b.String()
}

func runShapeBenchmark(b *testing.B, benchFunc func(b *testing.B, s nodeShape)) {
	for _, s := range getNodeShapes() {
		b.Run(s.name, func(b *testing.B) {
			benchFunc(b, s)
		})
	}
}
