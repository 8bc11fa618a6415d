// Package mapping turns the output of the mpibind affinity engine into
// structured per-task assignments and manages the lifecycle of a mapping
// request.
//
// The primary entry point is RequestMapping, which validates a set of
// options, configures an engine handle, runs the computation and parses the
// resulting text into a Mapping: one TaskAssignment (thread count, CPU ids,
// GPU ids) per task, indexed by task.
//
// # Basic Usage
//
//	eng, err := mpibind.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := mapping.RequestMapping(ctx, eng, mapping.WithTaskCount(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, task := range m {
//	    fmt.Printf("task %d: %d threads on cpus %s\n", i, task.ThreadCount(), task.CPUs().Text())
//	}
//
// # Owned and Borrowed Handles
//
// Without WithHandle, the request creates a disposable handle, applies the
// options, computes and tears the handle down once the mapping text has been
// copied out, even when the computation or the parsing fails.
//
// With WithHandle, the request uses a handle the caller created and possibly
// configured through the engine directly. Only the options passed to the
// request are applied on top of it and the handle is left for the caller to
// release.
//
// # Topology Sources
//
// WithTopology points the engine at an hwloc XML export instead of the live
// machine. The path is passed to the engine with the computation; the mpibind
// adapter serializes computations that need a different topology, because the
// engine only reads it from a process-wide environment variable.
//
// # Parsing Saved Output
//
// ParseMappingText accepts text captured from the engine (for example from
// mpibind's own tools) directly:
//
//	m, err := mapping.ParseMappingText("mpibind: task 0 thds 2 gpus 0 cpus 0-3\n")
//
// # Configuration Options
//
//   - WithTaskCount(n): Number of tasks to map (required)
//   - WithThreadCount(n): Threads per task (default: chosen by the engine)
//   - WithSMT(level): Hardware threads per core to use
//   - WithGreedy(on): Use all resources when tasks < NUMA domains (engine default: true)
//   - WithGPUOptim(on): Optimize placement for GPUs (engine default: true)
//   - WithRestrict(ids, kind): Restrict the topology to CPU or NUMA ids
//   - WithTopology(path): Load the topology from an hwloc XML file
//   - WithHandle(h): Use a caller-owned handle
//   - WithBufferSize(n), WithMaxBufferSize(n): Retrieval buffer sizing
//
// # Error Handling
//
// Every failure is returned to the caller and nothing is retried. Errors are
// typed and also match a sentinel with errors.Is:
//
//   - *ConfigError (ErrConfig): invalid or missing options, reported before any engine call
//   - *EngineError (ErrEngine): an engine call failed or compute returned a nonzero status
//   - *TruncationError (ErrTruncated): the text outgrew WithMaxBufferSize
//   - *MappingFormatError (ErrMappingFormat): the text has no records or a record lacks a field
//   - *ParseError (ErrParse): an id-set in the text is malformed
//
// The package writes no output of its own; build with -tags debug to get
// diagnostic logging on stderr.
package mapping
