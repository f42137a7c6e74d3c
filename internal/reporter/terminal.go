package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/racelab/racelab/internal/counter"
	"github.com/racelab/racelab/internal/runner"
	"github.com/racelab/racelab/internal/static"
	"github.com/racelab/racelab/internal/tracereport"
)

var (
	bold      = color.New(color.Bold)
	red       = color.New(color.FgRed, color.Bold)
	green     = color.New(color.FgGreen)
	cyan      = color.New(color.FgCyan)
	dim       = color.New(color.Faint)
	separator = strings.Repeat("━", 40)
)

// WriteTerminal writes a human-readable colored report of an experiment
// series to w. summary may be nil when no trace was captured; explanation
// is empty unless an LLM explanation was requested and succeeded.
func WriteTerminal(w io.Writer, s *runner.Series, summary *tracereport.Summary, explanation string) {
	bold.Fprintln(w, "\nracelab Lost Update Report")
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  counter: ")
	cyan.Fprintf(w, "%s\n", s.Counter)
	fmt.Fprintf(w, "  %d workers × %d increments per worker (expected %d)\n",
		s.Workers, s.Increments, s.Expected)
	fmt.Fprintln(w)

	for n, rep := range s.Reports {
		fmt.Fprintf(w, "  run %2d: final ", n+1)
		if rep.Lost > 0 {
			red.Fprintf(w, "%-8d", rep.Final)
			red.Fprintf(w, " lost %d", rep.Lost)
		} else {
			green.Fprintf(w, "%-8d", rep.Final)
			green.Fprintf(w, " lost 0")
		}
		dim.Fprintf(w, "  (%v)\n", rep.Elapsed.Round(1000)) // round to µs
	}
	fmt.Fprintln(w)

	if s.TotalLost > 0 {
		red.Fprintf(w, "● LOST UPDATES: %s vanished across %s\n",
			pluralize(int(s.TotalLost), "increment"), pluralize(len(s.Reports), "run"))
		fmt.Fprintf(w, "  The %s counter's read-increment-write is not atomic;\n", s.Counter)
		fmt.Fprintln(w, "  concurrent workers overwrote each other's updates.")
	} else if s.Counter == counter.KindRacy {
		green.Fprintln(w, "● No lost updates observed this time. The race is still")
		green.Fprintln(w, "  there; rerun with --runs to see the value drift.")
	} else {
		green.Fprintf(w, "● All %s landed: the %s counter loses nothing.\n",
			pluralize(int(s.Expected), "increment"), s.Counter)
	}

	if len(s.Reports) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  finals: min %d · max %d · %s\n",
			s.MinFinal, s.MaxFinal, pluralize(s.DistinctFinals, "distinct value"))
	}

	if summary != nil {
		fmt.Fprintln(w)
		bold.Fprintln(w, "  Trace Summary")
		fmt.Fprintf(w, "  %s observed · %s · %s\n",
			pluralize(summary.Goroutines, "goroutine"),
			pluralize(summary.SyncBlocks, "sync block"),
			pluralize(summary.ChanBlocks, "chan block"))
	}

	if explanation != "" {
		fmt.Fprintln(w)
		bold.Fprintln(w, "  Claude's Analysis")
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimSpace(explanation), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, separator)
	dim.Fprintf(w, "  %s · %s counter", pluralize(len(s.Reports), "run"), s.Counter)
	if summary != nil {
		dim.Fprintf(w, " · %dms traced window", summary.DurationMs)
	}
	dim.Fprintln(w)
	fmt.Fprintln(w)
}

// WriteStaticTerminal writes unguarded-increment findings to w.
func WriteStaticTerminal(w io.Writer, findings []static.Finding, explanation string) {
	bold.Fprintln(w, "\nracelab Static Analysis")
	fmt.Fprintln(w, separator)

	if len(findings) == 0 {
		fmt.Fprintln(w)
		green.Fprintln(w, "  No unguarded shared-counter writes found.")
	}

	for _, f := range findings {
		fmt.Fprintln(w)
		red.Fprintf(w, "● UNGUARDED WRITE\n")
		fmt.Fprintf(w, "  %s\n", f.Message)
		if f.Function != "" {
			fmt.Fprintf(w, "  Function: ")
			cyan.Fprintf(w, "%s\n", f.Function)
		}
		if f.Location != "" {
			fmt.Fprintf(w, "  Location: ")
			cyan.Fprintf(w, "%s\n", f.Location)
		}
	}

	if explanation != "" {
		fmt.Fprintln(w)
		bold.Fprintln(w, "  Claude's Analysis")
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimSpace(explanation), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, separator)
	dim.Fprintf(w, "  %s\n", pluralize(len(findings), "finding"))
	fmt.Fprintln(w)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
