package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/racelab/racelab/internal/llm"
	"github.com/racelab/racelab/internal/reporter"
	"github.com/racelab/racelab/internal/static"
)

var vetCmd = &cobra.Command{
	Use:   "vet <packages>",
	Short: "Statically find unguarded shared-counter writes in Go source",
	Long: `Vet loads the given packages, builds their SSA form, and reports
writes to shared variables (package-level vars or closure-captured locals)
inside goroutine-launched functions that use neither a mutex nor
sync/atomic. The read-modify-write form of the pattern is the one that
loses updates.`,
	Example: `  racelab vet ./...
  racelab vet ./pkg/worker/... --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVet,
}

func init() {
	rootCmd.AddCommand(vetCmd)
}

func runVet(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(os.Stderr, "Running unguarded-increment analysis...")

	findings, err := static.AnalyzeUnguarded(args)
	if err != nil {
		return fmt.Errorf("vet: %w", err)
	}

	explanation := ""
	if !flagNoLLM && len(findings) > 0 {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey != "" {
			exp, err := llm.ExplainFindings(findings, apiKey)
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
		return reporter.WriteStaticJSON(out, findings, explanation)
	default:
		reporter.WriteStaticTerminal(out, findings, explanation)
		return nil
	}
}
