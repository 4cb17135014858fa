// Package progress prints a single refreshing status line while a load run
// is in flight.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"loadgrade/internal/core"
)

type Progress struct {
	label   string
	phases  []Phase
	tracker *PhaseTracker
	clock   core.Clock
	ticker  *time.Ticker
	stopCh  chan struct{}
	stopped atomic.Bool
	quiet   bool
	output  io.Writer
	mu      sync.Mutex
}

// NewProgress reports on a run named label following phases.
func NewProgress(label string, phases []Phase, clock core.Clock, quiet bool) *Progress {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Progress{
		label:  label,
		phases: phases,
		clock:  clock,
		quiet:  quiet,
		output: os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.tracker = NewPhaseTracker(p.phases, p.clock)
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(1 * time.Second)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	elapsed := p.tracker.Elapsed().Round(time.Second)
	total := p.tracker.Total()

	stage := "finishing"
	if !p.tracker.IsComplete() {
		stage = p.tracker.CurrentPhase().Name
	}

	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K[%s / %s] %s | %s | ~%d users",
		clockFormat(elapsed), clockFormat(total), p.label, stage, p.tracker.TargetUsers())
	p.mu.Unlock()
}

func clockFormat(d time.Duration) string {
	secs := int(d.Seconds())
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K")
	p.mu.Unlock()
}

// Printf writes a line above the status line.
func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
