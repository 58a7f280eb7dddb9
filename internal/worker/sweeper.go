package worker

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// DefaultSweepInterval is how often overdue pending requests are expired.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultSweepBatch caps how many requests one sweep expires.
	DefaultSweepBatch = 100
)

// SwapExpirer is the slice of the swap service the sweeper needs.
type SwapExpirer interface {
	// ExpireOverdue expires up to limit overdue pending requests and returns
	// how many were expired.
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

// Sweeper periodically expires overdue swap requests. Expiry is still
// evaluated lazily on every read and transition; the sweeper only bounds how
// long an abandoned request keeps its items locked in pending.
type Sweeper struct {
	expirer  SwapExpirer
	interval time.Duration
	batch    int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a sweeper, filling in defaults for zero values.
func NewSweeper(expirer SwapExpirer, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if batch <= 0 {
		batch = DefaultSweepBatch
	}

	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		batch:    batch,
	}
}

// Start launches the sweep loop. Call Stop to shut down.
func (s *Sweeper) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	log.Printf("[Sweeper] Started (interval=%v batch=%d)", s.interval, s.batch)
}

// Stop shuts the sweeper down and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Printf("[Sweeper] Stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	expired, err := s.expirer.ExpireOverdue(s.ctx, s.batch)
	if err != nil {
		log.Printf("[Sweeper] Sweep error: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[Sweeper] Expired %d overdue swap requests", expired)
	}
}
