// Package runner coordinates the lost-update experiment: a fixed pool of
// workers each performing a fixed number of increments on a shared counter,
// joined, then read out once.
package runner

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/racelab/racelab/internal/counter"
)

// Defaults of the classic demonstration: 10 workers × 1000 increments.
const (
	DefaultWorkers    = 10
	DefaultIncrements = 1000
)

// Phase describes where a Coordinator is in its run: running once all
// workers are dispatched, joined once all have completed, reported once the
// final value has been read.
type Phase string

const (
	PhaseCreated    Phase = "created"
	PhaseRunning    Phase = "running"
	PhaseJoined     Phase = "joined"
	PhaseReported   Phase = "reported"
	PhaseTerminated Phase = "terminated"
)

// Config describes one experiment run.
type Config struct {
	Workers    int
	Increments int
	Counter    counter.Kind
}

// Validate rejects configurations no run can satisfy. Zero workers or zero
// increments is legal: the run terminates immediately with a final value of 0.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers: must be >= 0, got %d", c.Workers)
	}
	if c.Increments < 0 {
		return fmt.Errorf("increments: must be >= 0, got %d", c.Increments)
	}
	if _, err := counter.New(c.Counter); err != nil {
		return err
	}
	return nil
}

// Report holds the outcome of one run. Expected is Workers × Increments,
// Final the counter value read after all workers joined, and Lost their
// difference: above zero means updates were overwritten.
type Report struct {
	Counter    counter.Kind
	Workers    int
	Increments int
	Expected   int64
	Final      int64
	Lost       int64
	Elapsed    time.Duration
}

// Coordinator runs one experiment. Its phases advance strictly in order:
// created → running → joined → reported → terminated. A Coordinator is
// single-shot; build a new one per run.
type Coordinator struct {
	cfg     Config
	phase   Phase
	history []Phase
}

// New builds a Coordinator for the given config.
func New(cfg Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	co := &Coordinator{cfg: cfg}
	co.setPhase(PhaseCreated)
	return co, nil
}

// Phase reports the coordinator's current phase. Only meaningful from the
// goroutine driving Run.
func (co *Coordinator) Phase() Phase {
	return co.phase
}

// History returns every phase the coordinator has passed through, in order.
// The reported phase is transient (the final value is read and the report
// built, then the coordinator terminates), so this is where it shows up.
func (co *Coordinator) History() []Phase {
	out := make([]Phase, len(co.history))
	copy(out, co.history)
	return out
}

func (co *Coordinator) setPhase(p Phase) {
	co.phase = p
	co.history = append(co.history, p)
}

// Run launches all workers concurrently, blocks until every one has finished,
// then reads the counter once and reports. The final read is race-free: it
// happens strictly after the join. There is no timeout and no cancellation;
// every worker performs a bounded loop, so Run always terminates.
func (co *Coordinator) Run() (*Report, error) {
	if co.phase != PhaseCreated {
		return nil, fmt.Errorf("coordinator already run (phase %s)", co.phase)
	}

	c, err := counter.New(co.cfg.Counter)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var g errgroup.Group
	for i := 0; i < co.cfg.Workers; i++ {
		g.Go(func() error {
			work(c, co.cfg.Increments)
			return nil
		})
	}
	co.setPhase(PhaseRunning)

	// Workers never return an error; Wait is purely the join.
	g.Wait()
	co.setPhase(PhaseJoined)

	final := c.Value()
	expected := int64(co.cfg.Workers) * int64(co.cfg.Increments)
	report := &Report{
		Counter:    co.cfg.Counter,
		Workers:    co.cfg.Workers,
		Increments: co.cfg.Increments,
		Expected:   expected,
		Final:      final,
		Lost:       expected - final,
		Elapsed:    time.Since(start),
	}
	co.setPhase(PhaseReported)
	co.setPhase(PhaseTerminated)
	return report, nil
}

// work is the worker task: a fixed number of increments on the shared
// counter. No ordering is guaranteed relative to other workers; with the
// racy counter every iteration is an unsynchronized read-modify-write.
func work(c counter.Counter, increments int) {
	for i := 0; i < increments; i++ {
		c.Inc()
	}
}
