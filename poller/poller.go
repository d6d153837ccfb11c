// Package poller tracks long running server side operations by asking a
// status endpoint on a fixed interval until it reports a terminal state.
package poller

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrAlreadyActive = errors.New("a task of this kind is already being tracked")

// StatusInfo is one status endpoint answer, reduced to what the
// reconciliation step needs.
type StatusInfo struct {
	State     string
	Message   string
	Successes []string
}

// Terminal reports whether the state ends the polling session.
// An empty state counts as terminal, a broken endpoint must not be
// polled forever.
func (s StatusInfo) Terminal() bool {
	switch strings.ToLower(s.State) {
	case "idle", "running", "pending":
		return false
	}
	return true
}

// Failed reports whether the terminal state is a failure. Unknown states
// count as failed, the caller shows a generic message then.
func (s StatusInfo) Failed() bool {
	return !strings.EqualFold(s.State, "completed")
}

// CheckFunc performs one status request.
type CheckFunc func() (StatusInfo, error)

// DoneFunc reconciles the view after the terminal tick. err is set when the
// status endpoint itself failed or returned a malformed payload.
type DoneFunc func(info StatusInfo, err error)

// Poller is a cancellable polling task. At most one polling session is live
// per Poller, Start on an active one is rejected. Ticks are wall clock
// scheduled, a slow status request delays the work but not the timer.
type Poller struct {
	name     string
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
	quit   chan struct{}
	active bool
}

func New(name string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{name: name, interval: interval}
}

func (p *Poller) Name() string { return p.name }

func (p *Poller) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start begins a polling session. check runs once per tick, done runs
// exactly once when a terminal status (or a broken payload) is seen.
func (p *Poller) Start(check CheckFunc, done DoneFunc) error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return ErrAlreadyActive
	}
	p.active = true
	p.ticker = time.NewTicker(p.interval)
	p.quit = make(chan struct{})
	ticker := p.ticker
	quit := p.quit
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				info, err := check()
				if err != nil || info.Terminal() {
					if p.finish(quit) {
						done(info, err)
					}
					return
				}
			case <-quit:
				return
			}
		}
	}()
	return nil
}

// Stop abandons the session without reconciliation. Safe to call twice.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.active = false
	p.ticker.Stop()
	close(p.quit)
}

// finish tears the session down from inside the tick loop. Returns false
// when Stop won the race, done must not run then.
func (p *Poller) finish(quit chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || p.quit != quit {
		return false
	}
	p.active = false
	p.ticker.Stop()
	close(p.quit)
	return true
}
