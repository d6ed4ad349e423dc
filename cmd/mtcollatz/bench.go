package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kolkov/mtcollatz/collatz"
	"github.com/kolkov/mtcollatz/internal/config"
)

// benchCommand implements 'mtcollatz bench'. It prints one
// "<max> <threads>, <seconds>" line per trial and, in racy mode, how many
// trials lost or duplicated work.
//
//	mtcollatz bench 1000000 --threads 1,2,4,8 --trials 5 --nolock
func benchCommand(args []string, stdout, stderr io.Writer) error {
	fs := config.NewBenchFlags()
	fs.SetOutput(stderr)

	cfg, err := config.LoadBench(fs, args)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	var m *collatz.Metrics
	if cfg.Metrics {
		m = collatz.NewMetrics()
	}

	expected := cfg.MaxValue - 1

	for _, threads := range cfg.Threads {
		diverged := 0

		for trial := range cfg.Trials {
			opts := []collatz.Option{
				collatz.WithRaceSafe(!cfg.NoLock),
				collatz.WithBound(cfg.Bound),
				collatz.WithLogger(logger),
			}

			if m != nil {
				opts = append(opts, collatz.WithMetrics(m))
			}

			res, err := collatz.Run(cfg.MaxValue, threads, opts...)
			if err != nil {
				return fmt.Errorf("threads %d trial %d: %w", threads, trial+1, err)
			}

			fmt.Fprintf(stdout, "%d %d, %.9f\n", res.Max, res.Threads, res.ElapsedSeconds())

			if got := res.Histogram.Sum() + res.Dropped; got != expected {
				diverged++

				logger.Debug("histogram diverged",
					slog.String("run_id", res.ID.String()),
					slog.Uint64("expected", expected),
					slog.Uint64("got", got))
			}
		}

		if cfg.NoLock {
			fmt.Fprintf(stdout, "# threads %d: %d/%d trials diverged\n", threads, diverged, cfg.Trials)
		}
	}

	if m != nil {
		return m.WriteText(stderr)
	}

	return nil
}
