package tracereport

import (
	"io"
	"os"
	"time"

	"golang.org/x/exp/trace"
)

// Summary describes the scheduling activity observed in one trace: how many
// goroutines existed during the run and how often they blocked. SyncBlocks
// counts transitions into GoWaiting with reason "sync"; ChanBlocks counts
// blocks on channel send or receive.
type Summary struct {
	TraceFile  string
	DurationMs int64
	Goroutines int
	SyncBlocks int
	ChanBlocks int
}

// Summarize reads a trace file and tallies goroutine state transitions.
func Summarize(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := trace.NewReader(f)
	if err != nil {
		return nil, err
	}

	goroutines := make(map[trace.GoID]struct{})
	var firstTime, lastTime trace.Time
	first := true
	syncBlocks := 0
	chanBlocks := 0

	for {
		ev, err := r.ReadEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if first {
			firstTime = ev.Time()
			first = false
		}
		lastTime = ev.Time()

		if ev.Kind() != trace.EventStateTransition {
			continue
		}
		st := ev.StateTransition()
		if st.Resource.Kind != trace.ResourceGoroutine {
			continue
		}

		goroutines[st.Resource.Goroutine()] = struct{}{}

		from, to := st.Goroutine()
		if from.Executing() && to == trace.GoWaiting {
			switch st.Reason {
			case "sync":
				syncBlocks++
			case "chan send", "chan receive":
				chanBlocks++
			}
		}
	}

	duration := time.Duration(lastTime-firstTime) * time.Nanosecond

	return &Summary{
		TraceFile:  path,
		DurationMs: duration.Milliseconds(),
		Goroutines: len(goroutines),
		SyncBlocks: syncBlocks,
		ChanBlocks: chanBlocks,
	}, nil
}
