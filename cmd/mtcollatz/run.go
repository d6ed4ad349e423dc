package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/kolkov/mtcollatz/collatz"
	"github.com/kolkov/mtcollatz/internal/config"
	"github.com/kolkov/mtcollatz/internal/log"
)

// maxPrintedHazards limits the reports written to stderr by one run.
const maxPrintedHazards = 10

// runCommand implements 'mtcollatz run'.
//
//	mtcollatz run 1000 4
//	mtcollatz run 1000 4 --nolock --audit --ledger
func runCommand(args []string, stdout, stderr io.Writer) error {
	fs := config.NewRunFlags()
	fs.SetOutput(stderr)

	cfg, err := config.LoadRun(fs, args)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	opts := []collatz.Option{
		collatz.WithRaceSafe(!cfg.NoLock),
		collatz.WithBound(cfg.Bound),
		collatz.WithLogger(logger),
	}

	if cfg.Audit.Enabled {
		opts = append(opts, collatz.WithAuditSampleRate(cfg.Audit.SampleRate))

		if cfg.Audit.Stacks {
			opts = append(opts, collatz.WithAuditStacks())
		}
	}

	if cfg.Ledger {
		opts = append(opts, collatz.WithLedger())
	}

	var m *collatz.Metrics
	if cfg.Metrics {
		m = collatz.NewMetrics()
		opts = append(opts, collatz.WithMetrics(m))
	}

	res, err := collatz.Run(cfg.MaxValue, cfg.Threads, opts...)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(stdout)
	if _, err := res.Histogram.WriteTo(out); err != nil {
		return fmt.Errorf("write histogram: %w", err)
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("write histogram: %w", err)
	}

	fmt.Fprintf(stderr, "%d %d, %.9f\n", res.Max, res.Threads, res.ElapsedSeconds())

	if res.AuditStats != nil {
		printHazards(stderr, res)
	}

	if res.Partition != nil {
		fmt.Fprintf(stderr, "ledger: %s\n", res.Partition)
	}

	if m != nil {
		if err := m.WriteText(stderr); err != nil {
			return err
		}
	}

	return nil
}

func printHazards(w io.Writer, res *collatz.Result) {
	for i, h := range res.Hazards {
		if i == maxPrintedHazards {
			fmt.Fprintf(w, "... %d more hazards\n", len(res.Hazards)-maxPrintedHazards)
			break
		}

		h.Format(w)
	}

	fmt.Fprintf(w, "audit: %d hazards, %d reads, %d writes, %d skipped\n",
		len(res.Hazards), res.AuditStats.Reads, res.AuditStats.Writes, res.AuditStats.Skipped)
}

func newLogger(w io.Writer, c config.Log) (*slog.Logger, error) {
	return log.New(w, log.Options{Level: c.Level, Format: c.Format, Color: c.Color, Theme: c.Theme})
}
