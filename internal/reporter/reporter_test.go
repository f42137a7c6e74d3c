package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/racelab/racelab/internal/counter"
	"github.com/racelab/racelab/internal/runner"
	"github.com/racelab/racelab/internal/static"
	"github.com/racelab/racelab/internal/tracereport"
)

func init() {
	// Plain output in tests regardless of the terminal.
	color.NoColor = true
}

func lossySeries() *runner.Series {
	return &runner.Series{
		Counter:    counter.KindRacy,
		Workers:    10,
		Increments: 1000,
		Expected:   10000,
		Reports: []*runner.Report{
			{Counter: counter.KindRacy, Workers: 10, Increments: 1000, Expected: 10000, Final: 8423, Lost: 1577, Elapsed: 2 * time.Millisecond},
			{Counter: counter.KindRacy, Workers: 10, Increments: 1000, Expected: 10000, Final: 9998, Lost: 2, Elapsed: 1 * time.Millisecond},
		},
		MinFinal:       8423,
		MaxFinal:       9998,
		DistinctFinals: 2,
		TotalLost:      1579,
	}
}

func TestWriteTerminalLossy(t *testing.T) {
	var buf bytes.Buffer
	WriteTerminal(&buf, lossySeries(), nil, "")
	out := buf.String()

	for _, want := range []string{
		"racelab Lost Update Report",
		"counter: racy",
		"10 workers × 1000 increments per worker (expected 10000)",
		"LOST UPDATES: 1579 increments vanished across 2 runs",
		"min 8423 · max 9998 · 2 distinct values",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("terminal output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Trace Summary") {
		t.Fatalf("trace summary printed with nil summary:\n%s", out)
	}
}

func TestWriteTerminalCleanRun(t *testing.T) {
	s := &runner.Series{
		Counter:    counter.KindAtomic,
		Workers:    10,
		Increments: 1000,
		Expected:   10000,
		Reports: []*runner.Report{
			{Counter: counter.KindAtomic, Workers: 10, Increments: 1000, Expected: 10000, Final: 10000},
		},
		MinFinal:       10000,
		MaxFinal:       10000,
		DistinctFinals: 1,
	}
	var buf bytes.Buffer
	WriteTerminal(&buf, s, &tracereport.Summary{
		TraceFile:  "/tmp/racelab-x.out",
		DurationMs: 3,
		Goroutines: 11,
		SyncBlocks: 4,
	}, "")
	out := buf.String()

	for _, want := range []string{
		"All 10000 increments landed",
		"Trace Summary",
		"11 goroutines observed",
		"4 sync blocks",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("terminal output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "LOST UPDATES") {
		t.Fatalf("clean run reported lost updates:\n%s", out)
	}
}

func TestWriteTerminalExplanation(t *testing.T) {
	var buf bytes.Buffer
	WriteTerminal(&buf, lossySeries(), nil, "The read and the write are separate steps,\nso concurrent workers overwrite each other.")
	out := buf.String()

	if !strings.Contains(out, "Claude's Analysis") {
		t.Fatalf("explanation header missing:\n%s", out)
	}
	if !strings.Contains(out, "  so concurrent workers overwrite each other.") {
		t.Fatalf("explanation body missing or not indented:\n%s", out)
	}

	buf.Reset()
	WriteStaticTerminal(&buf, []static.Finding{{Message: "unsynchronized write"}}, "Guard the write with a mutex.")
	if !strings.Contains(buf.String(), "Claude's Analysis") || !strings.Contains(buf.String(), "Guard the write with a mutex.") {
		t.Fatalf("static explanation missing:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, lossySeries(), &tracereport.Summary{
		TraceFile:  "/tmp/racelab-x.out",
		DurationMs: 5,
		Goroutines: 12,
		SyncBlocks: 7,
		ChanBlocks: 1,
	}, "the increments interleave")
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var report struct {
		Counter        string `json:"counter"`
		Workers        int    `json:"workers"`
		Expected       int64  `json:"expected"`
		TotalLost      int64  `json:"total_lost"`
		DistinctFinals int    `json:"distinct_finals"`
		Runs           []struct {
			Final int64 `json:"final"`
			Lost  int64 `json:"lost"`
		} `json:"runs"`
		Trace *struct {
			Goroutines int `json:"goroutines"`
		} `json:"trace"`
		LLMExplanation string `json:"llm_explanation"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if report.Counter != "racy" || report.Workers != 10 || report.Expected != 10000 {
		t.Fatalf("bad header fields: %+v", report)
	}
	if len(report.Runs) != 2 || report.Runs[0].Final != 8423 || report.Runs[1].Lost != 2 {
		t.Fatalf("bad runs: %+v", report.Runs)
	}
	if report.TotalLost != 1579 || report.DistinctFinals != 2 {
		t.Fatalf("bad aggregates: %+v", report)
	}
	if report.Trace == nil || report.Trace.Goroutines != 12 {
		t.Fatalf("bad trace block: %+v", report.Trace)
	}
	if report.LLMExplanation != "the increments interleave" {
		t.Fatalf("bad llm_explanation: %q", report.LLMExplanation)
	}
	// The trace file is temporary and deleted after reporting; its path
	// must not leak into the report.
	if strings.Contains(buf.String(), "trace_file") {
		t.Fatalf("dangling trace_file path in report:\n%s", buf.String())
	}
}

func TestWriteJSONNoTrace(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, lossySeries(), nil, ""); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.Contains(buf.String(), "\"trace\"") {
		t.Fatalf("trace block present without a summary:\n%s", buf.String())
	}
}

func TestWriteStaticTerminal(t *testing.T) {
	var buf bytes.Buffer
	WriteStaticTerminal(&buf, []static.Finding{
		{
			Function: "main.main$1",
			Location: "main.go:14",
			Message:  `unsynchronized read-modify-write of shared variable "counter" in goroutine (lost-update pattern)`,
		},
	}, "")
	out := buf.String()
	for _, want := range []string{"UNGUARDED WRITE", "main.main$1", "main.go:14", "lost-update pattern", "1 finding"} {
		if !strings.Contains(out, want) {
			t.Fatalf("static output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	WriteStaticTerminal(&buf, nil, "")
	if !strings.Contains(buf.String(), "No unguarded shared-counter writes found") {
		t.Fatalf("empty findings output wrong:\n%s", buf.String())
	}
}

func TestWriteStaticJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStaticJSON(&buf, nil, ""); err != nil {
		t.Fatalf("WriteStaticJSON: %v", err)
	}
	var report struct {
		Findings []any `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Findings == nil || len(report.Findings) != 0 {
		t.Fatalf("expected empty findings array, got %v", report.Findings)
	}
}
