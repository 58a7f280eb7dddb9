package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls atomic.Int64
	limit atomic.Int64
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	f.calls.Add(1)
	f.limit.Store(int64(limit))
	return 0, nil
}

func TestSweeper_RunsPeriodically(t *testing.T) {
	expirer := &fakeExpirer{}
	s := NewSweeper(expirer, 10*time.Millisecond, 25)

	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	if expirer.calls.Load() < 2 {
		t.Errorf("ExpireOverdue called %d times, want at least 2", expirer.calls.Load())
	}
	if expirer.limit.Load() != 25 {
		t.Errorf("batch = %d, want 25", expirer.limit.Load())
	}
}

func TestSweeper_Defaults(t *testing.T) {
	s := NewSweeper(&fakeExpirer{}, 0, 0)

	if s.interval != DefaultSweepInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultSweepInterval)
	}
	if s.batch != DefaultSweepBatch {
		t.Errorf("batch = %d, want %d", s.batch, DefaultSweepBatch)
	}
}
