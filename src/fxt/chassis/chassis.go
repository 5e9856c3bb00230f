// Package chassis implements the fixed-rate scheduler: a Chassis drives
// its Scanners and Execution Sets on a single base tick, each at its own
// rate-multiplier divider, in scan -> execute -> flush order every tick,
// and owns the one goroutine ("mailbox thread") that every Card,
// Component, and Point belonging to it is touched from.
package chassis

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"jasper-mate-utils/src/fxt/card"
	"jasper-mate-utils/src/fxt/logicchain"
)

// Scanner groups a set of cards that scan/flush together at the same
// rate. Divider is the number of base ticks between scans: a Divider of
// 1 scans every tick, 4 scans every 4th tick (k mod Divider == 0).
type Scanner struct {
	Name    string
	Cards   []card.Card
	Divider uint64
}

// ExecutionSet groups logic chains that execute together at the same
// rate, using the same k-mod-Divider rule as Scanner.
type ExecutionSet struct {
	Name    string
	Chains  []*logicchain.Chain
	Divider uint64
}

func (s *Scanner) due(tick uint64) bool {
	d := s.Divider
	if d == 0 {
		d = 1
	}
	return tick%d == 0
}

func (s *ExecutionSet) due(tick uint64) bool {
	d := s.Divider
	if d == 0 {
		d = 1
	}
	return tick%d == 0
}

// job is one closure posted to the chassis mailbox: admin operations
// (point commands, start/stop) run here so they never race the
// scan/execute/flush loop, which runs on the same goroutine.
type job func()

// Chassis runs exactly one goroutine for its entire lifetime, ticking at
// BaseInterval and, on each tick, scanning every due Scanner, executing
// every due ExecutionSet, then flushing every due Scanner — then
// draining any mailbox jobs queued since the last tick.
type Chassis struct {
	Name         string
	BaseInterval time.Duration
	Scanners     []*Scanner
	ExecSets     []*ExecutionSet

	mu              sync.Mutex
	mailbox         []job
	wake            chan struct{}
	stop            chan struct{}
	done            chan struct{}
	tick            atomic.Uint64
	running         bool
	missedDeadlines atomic.Uint64
}

// New constructs a Chassis with the given base tick interval.
func New(name string, baseInterval time.Duration) *Chassis {
	return &Chassis{
		Name:         name,
		BaseInterval: baseInterval,
		wake:         make(chan struct{}, 1),
	}
}

// AddScanner registers a Scanner to run on this chassis.
func (c *Chassis) AddScanner(s *Scanner) { c.Scanners = append(c.Scanners, s) }

// AddExecutionSet registers an ExecutionSet to run on this chassis.
func (c *Chassis) AddExecutionSet(s *ExecutionSet) { c.ExecSets = append(c.ExecSets, s) }

// Post queues fn to run on the chassis's own goroutine, between ticks.
// Safe to call from any goroutine; used by the command surface to apply
// point writes and admin actions without racing the scan/execute/flush
// loop.
func (c *Chassis) Post(fn func()) {
	c.mu.Lock()
	c.mailbox = append(c.mailbox, fn)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Chassis) drainMailbox() {
	c.mu.Lock()
	jobs := c.mailbox
	c.mailbox = nil
	c.mu.Unlock()
	for _, j := range jobs {
		j()
	}
}

// Start brings every card and logic chain online, then launches the
// scheduler goroutine. Start is synchronous: cards/chains are started on
// the calling goroutine before the scheduler goroutine begins, so a
// caller can treat a successful Start as "ready to receive commands".
func (c *Chassis) Start() error {
	for _, s := range c.Scanners {
		for _, crd := range s.Cards {
			if err := crd.Start(); err != nil {
				return fmt.Errorf("chassis %s: scanner %s: card %d start: %w", c.Name, s.Name, crd.ID(), err)
			}
		}
	}
	for _, es := range c.ExecSets {
		for _, ch := range es.Chains {
			if err := ch.Start(); err != nil {
				return fmt.Errorf("chassis %s: execution set %s: chain %d start: %w", c.Name, es.Name, ch.ID(), err)
			}
		}
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running = true
	go c.run()
	return nil
}

// Stop signals the scheduler goroutine to exit after its current tick
// and waits for it, then stops every card.
func (c *Chassis) Stop() error {
	if !c.running {
		return nil
	}
	close(c.stop)
	<-c.done
	c.running = false

	var firstErr error
	for _, s := range c.Scanners {
		for _, crd := range s.Cards {
			if err := crd.Stop(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (c *Chassis) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.BaseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
			c.drainMailbox()
		case <-ticker.C:
			c.runTick()
			c.drainMailbox()
		}
	}
}

func (c *Chassis) runTick() {
	tick := c.tick.Add(1) - 1
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > c.BaseInterval {
			c.missedDeadlines.Add(1)
			log.Printf("chassis %s: tick %d missed deadline: took %s, base interval %s", c.Name, tick, elapsed, c.BaseInterval)
		}
	}()

	for _, s := range c.Scanners {
		if !s.due(tick) {
			continue
		}
		for _, crd := range s.Cards {
			if err := crd.ScanInputs(); err != nil {
				log.Printf("chassis %s: scanner %s: card %d scan_inputs: %v", c.Name, s.Name, crd.ID(), err)
			}
		}
	}

	for _, es := range c.ExecSets {
		if !es.due(tick) {
			continue
		}
		for _, ch := range es.Chains {
			if err := ch.Execute(); err != nil {
				log.Printf("chassis %s: execution set %s: %v", c.Name, es.Name, err)
			}
		}
	}

	for _, s := range c.Scanners {
		if !s.due(tick) {
			continue
		}
		for _, crd := range s.Cards {
			if err := crd.FlushOutputs(); err != nil {
				log.Printf("chassis %s: scanner %s: card %d flush_outputs: %v", c.Name, s.Name, crd.ID(), err)
			}
		}
	}
}

// Tick returns the number of base ticks run so far, for tests and
// diagnostics.
func (c *Chassis) Tick() uint64 {
	return c.tick.Load()
}

// MissedDeadlines returns the number of ticks whose scan+execute+flush
// work took longer than BaseInterval, surfaced here so a slow tick is
// queryable after the fact rather than only visible in the log.
func (c *Chassis) MissedDeadlines() uint64 {
	return c.missedDeadlines.Load()
}
