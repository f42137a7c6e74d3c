package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/racelab/racelab/internal/counter"
	"github.com/racelab/racelab/internal/llm"
	"github.com/racelab/racelab/internal/reporter"
	"github.com/racelab/racelab/internal/runner"
	"github.com/racelab/racelab/internal/tracereport"
)

var (
	flagWorkers    int
	flagIncrements int
	flagCounter    string
	flagRuns       int
	flagTrace      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the counter experiment and report lost updates",
	Long: `Run launches the configured number of workers, each performing the
configured number of increments on a shared counter, joins them, and reports
the final value against the expected workers × increments.

With --counter racy (the default) updates may be lost; with atomic or mutex
the final value is exact on every run. --runs repeats the experiment to show
the nondeterminism of the racy variant.`,
	Example: `  racelab run
  racelab run --runs 20
  racelab run --workers 50 --increments 10000 --counter mutex
  racelab run --runs 5 --trace
  racelab run --runs 20 --format json --output report.json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&flagWorkers, "workers", runner.DefaultWorkers, "Number of concurrent workers")
	runCmd.Flags().IntVar(&flagIncrements, "increments", runner.DefaultIncrements, "Increments per worker")
	runCmd.Flags().StringVar(&flagCounter, "counter", string(counter.KindRacy), "Counter variant: racy, atomic, or mutex")
	runCmd.Flags().IntVar(&flagRuns, "runs", 1, "Number of times to repeat the experiment")
	runCmd.Flags().BoolVar(&flagTrace, "trace", false, "Capture a runtime execution trace of the run and summarize it")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := runner.Config{
		Workers:    flagWorkers,
		Increments: flagIncrements,
		Counter:    counter.Kind(flagCounter),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Running %d × (%d workers × %d increments, %s counter)\n",
		flagRuns, cfg.Workers, cfg.Increments, cfg.Counter)

	var series *runner.Series
	var summary *tracereport.Summary

	if flagTrace {
		tracePath, err := tracereport.Capture(func() error {
			s, err := runner.RunSeries(cfg, flagRuns)
			series = s
			return err
		})
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		defer os.Remove(tracePath)

		summary, err = tracereport.Summarize(tracePath)
		if err != nil {
			return fmt.Errorf("summarize trace: %w", err)
		}
	} else {
		var err error
		series, err = runner.RunSeries(cfg, flagRuns)
		if err != nil {
			return err
		}
	}

	explanation := ""
	if !flagNoLLM && series.TotalLost > 0 {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey != "" {
			exp, err := llm.ExplainLostUpdates(series, apiKey)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warn: LLM explanation failed: %v\n", err)
			} else {
				explanation = exp
			}
		}
	}

	out, cleanup, err := outputWriter()
	if err != nil {
		return err
	}
	defer cleanup()

	switch flagFormat {
	case "json":
		return reporter.WriteJSON(out, series, summary, explanation)
	default:
		reporter.WriteTerminal(out, series, summary, explanation)
		return nil
	}
}
