package poller

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish in time")
	}
}

func TestTerminalStopsPolling(t *testing.T) {
	tests := []struct {
		name       string
		states     []string
		wantFailed bool
	}{
		{name: "Completed after running", states: []string{"running", "running", "completed"}, wantFailed: false},
		{name: "Failed after running", states: []string{"running", "failed"}, wantFailed: true},
		{name: "Empty payload is terminal", states: []string{"running", ""}, wantFailed: true},
		{name: "Unknown state is terminal failure", states: []string{"exploded"}, wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("move", 10*time.Millisecond)
			var calls int32
			done := make(chan struct{})
			var got StatusInfo

			err := p.Start(func() (StatusInfo, error) {
				n := atomic.AddInt32(&calls, 1)
				idx := int(n) - 1
				if idx >= len(tt.states) {
					idx = len(tt.states) - 1
				}
				return StatusInfo{State: tt.states[idx]}, nil
			}, func(info StatusInfo, errdone error) {
				got = info
				close(done)
			})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			waitDone(t, done)

			if p.IsActive() {
				t.Error("poller still active after terminal status")
			}
			if got.Failed() != tt.wantFailed {
				t.Errorf("Failed() = %v, want %v", got.Failed(), tt.wantFailed)
			}
			ticks := atomic.LoadInt32(&calls)
			time.Sleep(50 * time.Millisecond)
			if after := atomic.LoadInt32(&calls); after != ticks {
				t.Errorf("status checked %d more times after terminal tick", after-ticks)
			}
		})
	}
}

func TestCheckErrorIsTerminal(t *testing.T) {
	p := New("move", 10*time.Millisecond)
	done := make(chan struct{})
	var goterr error
	err := p.Start(func() (StatusInfo, error) {
		return StatusInfo{}, errors.New("malformed response")
	}, func(info StatusInfo, errdone error) {
		goterr = errdone
		close(done)
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, done)
	if goterr == nil {
		t.Error("expected the check error to be handed to done")
	}
	if p.IsActive() {
		t.Error("poller still active after failed check")
	}
}

func TestSecondStartRejected(t *testing.T) {
	p := New("move", 10*time.Millisecond)
	err := p.Start(func() (StatusInfo, error) {
		return StatusInfo{State: "running"}, nil
	}, func(StatusInfo, error) {})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	if err := p.Start(nil, nil); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Start() error = %v, want ErrAlreadyActive", err)
	}
}

func TestStopAbandonsWithoutDone(t *testing.T) {
	p := New("move", 10*time.Millisecond)
	var doneRan int32
	err := p.Start(func() (StatusInfo, error) {
		return StatusInfo{State: "running"}, nil
	}, func(StatusInfo, error) {
		atomic.AddInt32(&doneRan, 1)
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	p.Stop()
	p.Stop() // second stop must be safe
	time.Sleep(50 * time.Millisecond)

	if p.IsActive() {
		t.Error("poller active after Stop")
	}
	if n := atomic.LoadInt32(&doneRan); n != 0 {
		t.Errorf("done ran %d times after Stop, abandonment must not reconcile", n)
	}
}

func TestRestartAfterTerminal(t *testing.T) {
	p := New("move", 10*time.Millisecond)
	done := make(chan struct{})
	err := p.Start(func() (StatusInfo, error) {
		return StatusInfo{State: "completed"}, nil
	}, func(StatusInfo, error) { close(done) })
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, done)

	done2 := make(chan struct{})
	err = p.Start(func() (StatusInfo, error) {
		return StatusInfo{State: "failed"}, nil
	}, func(StatusInfo, error) { close(done2) })
	if err != nil {
		t.Fatalf("restart Start() error = %v", err)
	}
	waitDone(t, done2)
}
