// Package tracereport captures a runtime execution trace around an
// experiment run and reduces it to a small scheduling summary.
package tracereport

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/trace"
)

// Capture records a runtime execution trace while fn runs and returns the
// path to the trace file. The caller owns the file and should remove it.
// If fn fails the trace file is removed and fn's error returned.
func Capture(fn func() error) (string, error) {
	path, err := tempTraceFile()
	if err != nil {
		return "", fmt.Errorf("create trace file: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("open trace file: %w", err)
	}

	if err := trace.Start(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("start trace: %w", err)
	}

	fnErr := fn()

	trace.Stop()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close trace file: %w", err)
	}

	if fnErr != nil {
		os.Remove(path)
		return "", fnErr
	}
	return path, nil
}

func tempTraceFile() (string, error) {
	f, err := os.CreateTemp(os.TempDir(), "racelab-*.out")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return filepath.Clean(name), nil
}
