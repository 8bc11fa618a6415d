package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/utkarsh5026/bindmap/mapping"
)

// sweep computes one mapping per task count from 1 to o.sweep, sharing the
// remaining options, and prints a summary table.
func sweep(ctx context.Context, eng mapping.Engine, o *options, shared []mapping.Option) error {
	requests := make([][]mapping.Option, o.sweep)
	for i := range requests {
		requests[i] = append([]mapping.Option{mapping.WithTaskCount(i + 1)}, shared...)
	}

	bar := makeProgressBar(o.sweep)
	batchOpts := []mapping.BatchOption{
		mapping.WithOnComplete(func(int, mapping.Mapping, error) {
			_ = bar.Add(1)
		}),
	}
	if o.concurrency > 0 {
		batchOpts = append(batchOpts, mapping.WithConcurrency(o.concurrency))
	}
	if o.rate > 0 {
		batchOpts = append(batchOpts, mapping.WithRateLimit(o.rate, 1))
	}

	results, err := mapping.RequestAll(ctx, eng, requests, batchOpts...)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	rows := make([]sweepRow, len(results))
	for i, m := range results {
		rows[i] = summarize(i+1, m)
	}
	printSweep(rows)
	return nil
}

func makeProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Computing mappings"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
