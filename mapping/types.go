package mapping

import (
	"fmt"
	"slices"
	"strings"

	"github.com/utkarsh5026/bindmap/idset"
	"k8s.io/utils/cpuset"
)

// Kind identifies the hardware resource an assignment refers to.
type Kind int

const (
	CPU Kind = iota
	GPU
)

// String returns the keyword the engine uses for the kind ("cpus" / "gpus").
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpus"
	case GPU:
		return "gpus"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ResourceAssignment is one resource kind paired with its id-set text.
//
// The decoded ids are replaced together with the text, so Count always equals
// the cardinality of the set Text decodes to.
type ResourceAssignment struct {
	kind Kind
	text string
	ids  []int
}

// NewResourceAssignment decodes text and returns the assignment. A malformed
// text is reported as a *ParseError.
func NewResourceAssignment(kind Kind, text string) (ResourceAssignment, error) {
	ra := ResourceAssignment{kind: kind}
	if err := ra.SetText(text); err != nil {
		return ResourceAssignment{}, err
	}
	return ra, nil
}

// SetText replaces the id-set text and the derived ids. On error the
// assignment is left unchanged.
func (ra *ResourceAssignment) SetText(text string) error {
	ids, err := idset.Decode(text)
	if err != nil {
		return err
	}
	ra.text, ra.ids = text, ids
	return nil
}

func (ra ResourceAssignment) Kind() Kind { return ra.kind }

// Text returns the id-set text exactly as it was set.
func (ra ResourceAssignment) Text() string { return ra.text }

// Count returns the number of distinct ids in the assignment.
func (ra ResourceAssignment) Count() int { return len(ra.ids) }

// IDs returns a copy of the ascending ids.
func (ra ResourceAssignment) IDs() []int { return slices.Clone(ra.ids) }

// CPUSet converts the ids into a kubelet style cpuset.
func (ra ResourceAssignment) CPUSet() cpuset.CPUSet { return cpuset.New(ra.ids...) }

func (ra ResourceAssignment) String() string {
	return fmt.Sprintf("%s: %s", ra.kind, ra.text)
}

// TaskAssignment is the thread count, CPU ids and GPU ids assigned to a single
// task. It is immutable once constructed.
type TaskAssignment struct {
	threads int
	cpus    ResourceAssignment
	gpus    ResourceAssignment
}

// NewTaskAssignment builds a task assignment from id-set texts. threads must
// be at least 1; id-set errors are returned as *ParseError.
func NewTaskAssignment(threads int, cpus, gpus string) (TaskAssignment, error) {
	if threads < 1 {
		return TaskAssignment{}, configError("thread count must be >= 1, got %d", threads)
	}

	c, err := NewResourceAssignment(CPU, cpus)
	if err != nil {
		return TaskAssignment{}, err
	}
	g, err := NewResourceAssignment(GPU, gpus)
	if err != nil {
		return TaskAssignment{}, err
	}

	return TaskAssignment{threads: threads, cpus: c, gpus: g}, nil
}

func (ta TaskAssignment) ThreadCount() int { return ta.threads }

func (ta TaskAssignment) CPUs() ResourceAssignment { return ta.cpus }

func (ta TaskAssignment) GPUs() ResourceAssignment { return ta.gpus }

func (ta TaskAssignment) String() string {
	return fmt.Sprintf("thds: %d %s %s", ta.threads, ta.gpus, ta.cpus)
}

// Mapping is the ordered per-task assignment of one computation. The slice
// index is the task index.
type Mapping []TaskAssignment

// Text renders the mapping in the engine's record format, one record per line.
// ParseMappingText(m.Text()) reproduces m.
func (m Mapping) Text() string {
	var b strings.Builder
	for i, ta := range m {
		fmt.Fprintf(&b, "%s task %d thds %d gpus %s cpus %s\n",
			marker, i, ta.threads, ta.gpus.text, ta.cpus.text)
	}
	return b.String()
}

func (m Mapping) String() string {
	var b strings.Builder
	for i, ta := range m {
		fmt.Fprintf(&b, "task %d: %s\n", i, ta)
	}
	return b.String()
}
