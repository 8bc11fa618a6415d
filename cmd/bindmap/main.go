// Command bindmap computes an mpibind task mapping for the current node (or a
// saved hwloc topology) and prints it as a table, as raw engine text or as
// per-task runtime environments.
//
// Usage:
//
//	bindmap -ntasks 4 [-nthreads 2] [-smt 1] [-greedy=false] [-gpu-optim=false]
//	        [-topology node.xml] [-restrict 0-23 -restrict-type cpu]
//	bindmap -input saved.txt
//	bindmap -sweep 16
//
// The native engine is only available when built with -tags mpibind; -input
// works everywhere.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/utkarsh5026/bindmap/engine/mpibind"
	"github.com/utkarsh5026/bindmap/mapping"
)

var (
	bold  = color.New(color.Bold)
	red   = color.New(color.FgRed)
	faint = color.New(color.Faint)
)

type options struct {
	ntasks       int
	nthreads     int
	smt          int
	greedy       bool
	gpuOptim     bool
	topology     string
	restrict     string
	restrictType string
	input        string
	env          string
	sweep        int
	concurrency  int
	rate         float64
	plain        bool
	noColor      bool
}

func parseFlags() (*options, map[string]bool) {
	o := &options{}
	flag.IntVar(&o.ntasks, "ntasks", 0, "Number of tasks to map (required unless -input or -sweep)")
	flag.IntVar(&o.nthreads, "nthreads", 0, "Threads per task (0 = chosen by the engine)")
	flag.IntVar(&o.smt, "smt", 0, "SMT level: hardware threads per core to use (0 = engine default)")
	flag.BoolVar(&o.greedy, "greedy", true, "Give all resources to the tasks when there are fewer tasks than NUMA domains")
	flag.BoolVar(&o.gpuOptim, "gpu-optim", true, "Optimize the placement for GPUs rather than CPUs")
	flag.StringVar(&o.topology, "topology", "", "Load the hardware topology from this hwloc XML file")
	flag.StringVar(&o.restrict, "restrict", "", "Restrict the topology to these ids (e.g. 0-23,48-71)")
	flag.StringVar(&o.restrictType, "restrict-type", "cpu", "What -restrict ids refer to: cpu or mem")
	flag.StringVar(&o.input, "input", "", "Parse saved mapping text from this file ('-' for stdin) instead of computing")
	flag.StringVar(&o.env, "env", "", "Print per-task runtime environments for a GPU vendor: none, nvidia or amd")
	flag.IntVar(&o.sweep, "sweep", 0, "Compute mappings for 1..N tasks and print a summary")
	flag.IntVar(&o.concurrency, "concurrency", 0, "Concurrent computations during -sweep (0 = GOMAXPROCS)")
	flag.Float64Var(&o.rate, "rate", 0, "Maximum computations started per second during -sweep (0 = unlimited)")
	flag.BoolVar(&o.plain, "plain", false, "Print the mapping in the engine's text format")
	flag.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set
}

// requestOptions turns the command line into request options. Boolean knobs
// are only passed when given explicitly so that the engine keeps its own
// defaults otherwise.
func (o *options) requestOptions(set map[string]bool) ([]mapping.Option, error) {
	opts := []mapping.Option{mapping.WithTaskCount(o.ntasks)}

	if set["nthreads"] {
		opts = append(opts, mapping.WithThreadCount(o.nthreads))
	}
	if set["smt"] {
		opts = append(opts, mapping.WithSMT(o.smt))
	}
	if set["greedy"] {
		opts = append(opts, mapping.WithGreedy(o.greedy))
	}
	if set["gpu-optim"] {
		opts = append(opts, mapping.WithGPUOptim(o.gpuOptim))
	}
	if o.topology != "" {
		opts = append(opts, mapping.WithTopology(o.topology))
	}
	if set["restrict"] {
		kind, err := parseRestrictKind(o.restrictType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, mapping.WithRestrict(o.restrict, kind))
	}
	return opts, nil
}

func parseRestrictKind(s string) (mapping.RestrictKind, error) {
	switch strings.ToLower(s) {
	case "cpu":
		return mapping.RestrictCPU, nil
	case "mem", "numa":
		return mapping.RestrictMem, nil
	default:
		return 0, fmt.Errorf("unknown -restrict-type %q (want cpu or mem)", s)
	}
}

func parseVendor(s string) (mapping.GPUVendor, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return mapping.VendorNone, nil
	case "nvidia", "cuda":
		return mapping.VendorNVIDIA, nil
	case "amd", "rocm":
		return mapping.VendorAMD, nil
	default:
		return 0, fmt.Errorf("unknown -env vendor %q (want none, nvidia or amd)", s)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func run(ctx context.Context, o *options, set map[string]bool) error {
	if o.input != "" {
		text, err := readInput(o.input)
		if err != nil {
			return err
		}
		m, err := mapping.ParseMappingText(text)
		if err != nil {
			return err
		}
		return show(o, set, m)
	}

	eng, err := mpibind.New()
	if err != nil {
		return err
	}

	if o.sweep > 0 {
		opts, err := o.requestOptions(set)
		if err != nil {
			return err
		}
		return sweep(ctx, eng, o, opts[1:])
	}

	if !set["ntasks"] {
		return errors.New("-ntasks is required")
	}
	opts, err := o.requestOptions(set)
	if err != nil {
		return err
	}

	m, err := mapping.RequestMapping(ctx, eng, opts...)
	if err != nil {
		return err
	}
	return show(o, set, m)
}

func show(o *options, set map[string]bool, m mapping.Mapping) error {
	switch {
	case o.plain:
		fmt.Print(m.Text())
		return nil
	case set["env"]:
		vendor, err := parseVendor(o.env)
		if err != nil {
			return err
		}
		printEnviron(m, vendor)
		return nil
	default:
		printMapping(m)
		return nil
	}
}

func main() {
	enableWindowsANSI()

	o, set := parseFlags()
	if o.noColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, set); err != nil {
		reportError(err)
		stop()
		os.Exit(1)
	}
}

// reportError prints err, listing every problem of a configuration error on
// its own line.
func reportError(err error) {
	var cerr *mapping.ConfigError
	if errors.As(err, &cerr) {
		_, _ = red.Fprintln(os.Stderr, "Error: invalid mapping options")
		for _, p := range cerr.Problems {
			_, _ = fmt.Fprintf(os.Stderr, "  • %s\n", p)
		}
		return
	}

	_, _ = red.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, mpibind.ErrNotSupported) {
		_, _ = faint.Fprintln(os.Stderr, "Hint: use -input to inspect saved mapping text without the native engine.")
	}
}
