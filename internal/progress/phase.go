package progress

import (
	"time"

	"loadgrade/internal/core"
)

// Phase is one segment of a run's user schedule. Users move linearly from
// StartUsers to EndUsers over Duration.
type Phase struct {
	Name       string
	Duration   time.Duration
	StartUsers int
	EndUsers   int
}

// PhaseTracker reports where a run is within its schedule.
type PhaseTracker struct {
	phases    []Phase
	startTime time.Time
	clock     core.Clock
}

// NewPhaseTracker starts tracking phases from clock.Now().
func NewPhaseTracker(phases []Phase, clock core.Clock) *PhaseTracker {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &PhaseTracker{
		phases:    phases,
		startTime: clock.Now(),
		clock:     clock,
	}
}

func (pt *PhaseTracker) Elapsed() time.Duration {
	return pt.clock.Since(pt.startTime)
}

// Total is the sum of all phase durations.
func (pt *PhaseTracker) Total() time.Duration {
	var total time.Duration
	for _, p := range pt.phases {
		total += p.Duration
	}
	return total
}

func (pt *PhaseTracker) CurrentPhaseIndex() int {
	elapsed := pt.Elapsed()
	var cumulative time.Duration
	for i, p := range pt.phases {
		cumulative += p.Duration
		if elapsed < cumulative {
			return i
		}
	}
	return len(pt.phases)
}

func (pt *PhaseTracker) CurrentPhase() *Phase {
	idx := pt.CurrentPhaseIndex()
	if idx >= len(pt.phases) {
		return nil
	}
	return &pt.phases[idx]
}

func (pt *PhaseTracker) IsComplete() bool {
	return pt.CurrentPhaseIndex() >= len(pt.phases)
}

// TargetUsers is the number of users the schedule expects right now.
func (pt *PhaseTracker) TargetUsers() int {
	idx := pt.CurrentPhaseIndex()
	if idx >= len(pt.phases) {
		return 0
	}
	phase := pt.phases[idx]
	if phase.StartUsers == phase.EndUsers || phase.Duration <= 0 {
		return phase.EndUsers
	}

	var phaseStart time.Duration
	for i := 0; i < idx; i++ {
		phaseStart += pt.phases[i].Duration
	}
	frac := min(float64(pt.Elapsed()-phaseStart)/float64(phase.Duration), 1)
	delta := float64(phase.EndUsers - phase.StartUsers)
	return phase.StartUsers + int(delta*frac)
}
