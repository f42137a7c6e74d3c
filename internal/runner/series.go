package runner

import (
	"fmt"

	"github.com/racelab/racelab/internal/counter"
)

// Series holds the reports of several identical runs. Repeating the racy
// experiment is how the nondeterminism shows: different runs may land on
// different final values.
type Series struct {
	Counter    counter.Kind
	Workers    int
	Increments int
	Expected   int64
	Reports    []*Report

	MinFinal       int64
	MaxFinal       int64
	DistinctFinals int
	TotalLost      int64
}

// RunSeries performs runs identical experiments, a fresh Coordinator and a
// fresh counter each time, and aggregates the results.
func RunSeries(cfg Config, runs int) (*Series, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs: must be >= 1, got %d", runs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Series{
		Counter:    cfg.Counter,
		Workers:    cfg.Workers,
		Increments: cfg.Increments,
		Expected:   int64(cfg.Workers) * int64(cfg.Increments),
		Reports:    make([]*Report, 0, runs),
	}

	finals := make(map[int64]struct{}, runs)
	for i := 0; i < runs; i++ {
		co, err := New(cfg)
		if err != nil {
			return nil, err
		}
		rep, err := co.Run()
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		s.Reports = append(s.Reports, rep)
		s.TotalLost += rep.Lost
		if len(finals) == 0 || rep.Final < s.MinFinal {
			s.MinFinal = rep.Final
		}
		if len(finals) == 0 || rep.Final > s.MaxFinal {
			s.MaxFinal = rep.Final
		}
		finals[rep.Final] = struct{}{}
	}
	s.DistinctFinals = len(finals)

	return s, nil
}
