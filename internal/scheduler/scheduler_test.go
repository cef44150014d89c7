package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRepairer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeRepairer) RepairAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("repair must run with a deadline")
	}
	return f.n, f.err
}

type fakeSweeper struct {
	calls atomic.Int32
}

func (f *fakeSweeper) Sweep() int {
	f.calls.Add(1)
	return 3
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New()
	if err := s.AddJob("bad", "every tuesday-ish", func(context.Context) {}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if len(s.Jobs()) != 0 {
		t.Error("invalid job must not be registered")
	}
}

func TestAddJob_ReplacesSameName(t *testing.T) {
	s := New()
	r := &fakeRepairer{}

	if err := s.AddRepair("", r); err != nil {
		t.Fatalf("AddRepair() error = %v", err)
	}
	if err := s.AddRepair("@every 10m", r); err != nil {
		t.Fatalf("AddRepair() error = %v", err)
	}
	if err := s.AddSweep("sessions", "", &fakeSweeper{}); err != nil {
		t.Fatalf("AddSweep() error = %v", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %v", jobs)
	}
	for _, name := range []string{"repair", "sessions-sweep"} {
		if _, ok := jobs[name]; !ok {
			t.Errorf("missing job %q", name)
		}
	}
}

func TestRepairJob(t *testing.T) {
	tests := []struct {
		name string
		r    *fakeRepairer
	}{
		{name: "nothing to fix", r: &fakeRepairer{}},
		{name: "fixed some", r: &fakeRepairer{n: 2}},
		{name: "error is logged", r: &fakeRepairer{err: errors.New("db closed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RepairJob(tt.r)(context.Background())
			if tt.r.calls.Load() != 1 {
				t.Errorf("calls = %d, want 1", tt.r.calls.Load())
			}
		})
	}
}

func TestSweepJob(t *testing.T) {
	sw := &fakeSweeper{}
	SweepJob("cache", sw)(context.Background())
	if sw.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", sw.calls.Load())
	}
}

func TestScheduler_RunsAndStops(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 1)
	if err := s.AddJob("tick", "@every 1s", func(context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	s.Start()
	s.Start()

	if next := s.Jobs()["tick"]; next.IsZero() {
		t.Error("expected next run time after Start")
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop() did not finish")
	}
}

func TestScheduler_PanickingJobIsRecovered(t *testing.T) {
	s := New()
	done := make(chan struct{})
	var once sync.Once
	if err := s.AddJob("explode", "@every 1s", func(context.Context) {
		defer once.Do(func() { close(done) })
		panic("boom")
	}); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
