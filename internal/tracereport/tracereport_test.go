package tracereport

import (
	"errors"
	"os"
	"sync"
	"testing"
)

func TestCaptureAndSummarize(t *testing.T) {
	const workers = 8
	path, err := Capture(func() error {
		wg := sync.WaitGroup{}
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				wg.Done()
			}()
		}
		wg.Wait()
		return nil
	})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	defer os.Remove(path)

	s, err := Summarize(path)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TraceFile != path {
		t.Fatalf("trace file %q, want %q", s.TraceFile, path)
	}
	// At minimum the main goroutine plus the spawned workers appear.
	if s.Goroutines < workers {
		t.Fatalf("observed %d goroutines, want at least %d", s.Goroutines, workers)
	}
	if s.DurationMs < 0 {
		t.Fatalf("negative duration %dms", s.DurationMs)
	}
}

func TestCapturePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	path, err := Capture(func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	if path != "" {
		t.Fatalf("expected no trace file on error, got %q", path)
	}
}

func TestSummarizeMissingFile(t *testing.T) {
	if _, err := Summarize("no-such-trace.out"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
