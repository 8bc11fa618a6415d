package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/utkarsh5026/bindmap/internal/cpu"
	"github.com/utkarsh5026/bindmap/mapping"
)

func printMapping(m mapping.Mapping) {
	fmt.Println()
	_, _ = bold.Printf("Task mapping (%d tasks, host has %d CPUs)\n", len(m), cpu.GetNumCPU())
	fmt.Println()

	if len(m) == 0 {
		_, _ = faint.Println("  no tasks in mapping")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Task", "Threads", "CPUs", "#CPUs", "GPUs", "#GPUs")

	for i, ta := range m {
		gpus := ta.GPUs().Text()
		if gpus == "" {
			gpus = "-"
		}
		_ = table.Append(
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", ta.ThreadCount()),
			ta.CPUs().CPUSet().String(),
			fmt.Sprintf("%d", ta.CPUs().Count()),
			gpus,
			fmt.Sprintf("%d", ta.GPUs().Count()),
		)
	}

	_ = table.Render()
	printOverlap(m)
}

// printOverlap warns when two tasks share CPUs, which the engine only does
// when there are more tasks than cores.
func printOverlap(m mapping.Mapping) {
	for i := 0; i < len(m); i++ {
		for j := i + 1; j < len(m); j++ {
			shared := m[i].CPUs().CPUSet().Intersection(m[j].CPUs().CPUSet())
			if shared.Size() > 0 {
				_, _ = red.Printf("  tasks %d and %d share cpus %s\n", i, j, shared.String())
			}
		}
	}
}

func printEnviron(m mapping.Mapping, vendor mapping.GPUVendor) {
	for i, env := range m.Environ(vendor) {
		_, _ = bold.Printf("# task %d\n", i)
		fmt.Println(strings.Join(env, " "))
	}
}

type sweepRow struct {
	tasks      int
	threads    int
	minCPUs    int
	maxCPUs    int
	gpus       int
	sharedCPUs bool
}

func summarize(tasks int, m mapping.Mapping) sweepRow {
	row := sweepRow{tasks: tasks}
	if len(m) == 0 {
		return row
	}

	row.minCPUs = m[0].CPUs().Count()
	seen := make(map[int]bool)
	for _, ta := range m {
		row.threads += ta.ThreadCount()
		row.minCPUs = min(row.minCPUs, ta.CPUs().Count())
		row.maxCPUs = max(row.maxCPUs, ta.CPUs().Count())
		row.gpus += ta.GPUs().Count()
		for _, id := range ta.CPUs().IDs() {
			if seen[id] {
				row.sharedCPUs = true
			}
			seen[id] = true
		}
	}
	return row
}

func printSweep(rows []sweepRow) {
	fmt.Println()
	_, _ = bold.Println("Mapping sweep")
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Tasks", "Total threads", "CPUs/task", "GPUs assigned", "Shared CPUs")

	for _, r := range rows {
		perTask := fmt.Sprintf("%d", r.minCPUs)
		if r.minCPUs != r.maxCPUs {
			perTask = fmt.Sprintf("%d-%d", r.minCPUs, r.maxCPUs)
		}
		shared := "no"
		if r.sharedCPUs {
			shared = "yes"
		}
		_ = table.Append(
			fmt.Sprintf("%d", r.tasks),
			fmt.Sprintf("%d", r.threads),
			perTask,
			fmt.Sprintf("%d", r.gpus),
			shared,
		)
	}

	_ = table.Render()
}
