package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/racelab/racelab/internal/counter"
	"github.com/racelab/racelab/internal/runner"
)

var (
	flagFormat string
	flagOutput string
	flagNoLLM  bool
)

var rootCmd = &cobra.Command{
	Use:   "racelab",
	Short: "Demonstrate and measure lost updates on a shared counter",
	Long: `racelab is a workbench for the classic data race: a fixed pool of
workers each incrementing a shared counter without synchronization, so
concurrent read-increment-write sequences overwrite each other and the
final value falls short of workers × increments.

Run with no arguments to reproduce the classic demonstration (10 workers,
1000 unsynchronized increments each). Run 'racelab run' for repeatable
experiments against racy, atomic, and mutex counters, or 'racelab vet' to
statically find the unguarded-increment pattern in Go source.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format: terminal or json")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Write output to file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&flagNoLLM, "no-llm", false, "Skip LLM explanation (faster, works without API key)")
}

// runDemo is the bare invocation: the original demonstration, one line of
// output, exit 0. No flags, no environment, and the value is nondeterministic
// whenever the scheduler interleaves the workers.
func runDemo(cmd *cobra.Command, args []string) error {
	co, err := runner.New(runner.Config{
		Workers:    runner.DefaultWorkers,
		Increments: runner.DefaultIncrements,
		Counter:    counter.KindRacy,
	})
	if err != nil {
		return err
	}
	rep, err := co.Run()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Final counter value: %d\n", rep.Final)
	return nil
}

// outputWriter returns a writer for the output destination (file or stdout).
func outputWriter() (io.Writer, func(), error) {
	if flagOutput == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
