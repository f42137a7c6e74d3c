package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/racelab/racelab/internal/runner"
	"github.com/racelab/racelab/internal/static"
	"github.com/racelab/racelab/internal/tracereport"
)

type jsonRun struct {
	Final     int64 `json:"final"`
	Lost      int64 `json:"lost"`
	ElapsedUs int64 `json:"elapsed_us"`
}

// jsonTrace deliberately omits the trace file path: the file is temporary
// and removed once the report is written, so the path would dangle.
type jsonTrace struct {
	DurationMs int64 `json:"duration_ms"`
	Goroutines int   `json:"goroutines"`
	SyncBlocks int   `json:"sync_blocks"`
	ChanBlocks int   `json:"chan_blocks"`
}

type jsonReport struct {
	Counter        string     `json:"counter"`
	Workers        int        `json:"workers"`
	Increments     int        `json:"increments"`
	Expected       int64      `json:"expected"`
	Runs           []jsonRun  `json:"runs"`
	MinFinal       int64      `json:"min_final"`
	MaxFinal       int64      `json:"max_final"`
	DistinctFinals int        `json:"distinct_finals"`
	TotalLost      int64      `json:"total_lost"`
	Trace          *jsonTrace `json:"trace,omitempty"`
	LLMExplanation string     `json:"llm_explanation,omitempty"`
}

// WriteJSON writes an experiment series as JSON to the given writer.
// summary may be nil when no trace was captured; explanation is empty
// unless an LLM explanation was requested and succeeded.
func WriteJSON(w io.Writer, s *runner.Series, summary *tracereport.Summary, explanation string) error {
	report := jsonReport{
		Counter:        string(s.Counter),
		Workers:        s.Workers,
		Increments:     s.Increments,
		Expected:       s.Expected,
		Runs:           make([]jsonRun, 0, len(s.Reports)),
		MinFinal:       s.MinFinal,
		MaxFinal:       s.MaxFinal,
		DistinctFinals: s.DistinctFinals,
		TotalLost:      s.TotalLost,
		LLMExplanation: explanation,
	}
	for _, rep := range s.Reports {
		report.Runs = append(report.Runs, jsonRun{
			Final:     rep.Final,
			Lost:      rep.Lost,
			ElapsedUs: rep.Elapsed.Round(time.Microsecond).Microseconds(),
		})
	}
	if summary != nil {
		report.Trace = &jsonTrace{
			DurationMs: summary.DurationMs,
			Goroutines: summary.Goroutines,
			SyncBlocks: summary.SyncBlocks,
			ChanBlocks: summary.ChanBlocks,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type jsonStaticFinding struct {
	Function string `json:"function,omitempty"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

type jsonStaticReport struct {
	Findings       []jsonStaticFinding `json:"findings"`
	LLMExplanation string              `json:"llm_explanation,omitempty"`
}

// WriteStaticJSON writes unguarded-increment findings as JSON.
func WriteStaticJSON(w io.Writer, findings []static.Finding, explanation string) error {
	report := jsonStaticReport{
		Findings:       make([]jsonStaticFinding, 0, len(findings)),
		LLMExplanation: explanation,
	}
	for _, f := range findings {
		report.Findings = append(report.Findings, jsonStaticFinding{
			Function: f.Function,
			Location: f.Location,
			Message:  f.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
