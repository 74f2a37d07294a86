// Package scheduler drives all periodic work: due email batches, due
// social posts, and the daily stats recompute. A single ticker scans for
// due items each cycle; there is no worker pool and no durable queue, the
// database rows themselves are the queue.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/campaign-engine/internal/campaign"
	"github.com/eventra/campaign-engine/internal/email"
	"github.com/eventra/campaign-engine/internal/pkg/distlock"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
	"github.com/eventra/campaign-engine/internal/social"
)

// EmailQueue lists due email sends.
type EmailQueue interface {
	ListDue(ctx context.Context, now time.Time) ([]*email.Send, error)
}

// EmailEngine dispatches one batch of a due send.
type EmailEngine interface {
	ProcessSend(ctx context.Context, sendID uuid.UUID) error
}

// SocialQueue lists due social posts.
type SocialQueue interface {
	ListDue(ctx context.Context, now time.Time) ([]*social.Post, error)
}

// SocialEngine publishes one due post.
type SocialEngine interface {
	PublishPost(ctx context.Context, postID uuid.UUID) error
}

// StatsRecomputer rebuilds today's snapshots.
type StatsRecomputer interface {
	RecomputeAll(ctx context.Context)
}

// Scheduler owns the periodic tick. The clock is injectable so tests
// drive virtual time instead of waiting on wall-clock intervals; ticks
// can also be run directly through RunTick.
type Scheduler struct {
	emailQueue   EmailQueue
	emailEngine  EmailEngine
	socialQueue  SocialQueue
	socialEngine SocialEngine
	stats        StatsRecomputer

	clock    campaign.Clock
	interval time.Duration
	lock     distlock.DistLock

	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler. lock may be nil when running without a
// distributed lock; stats may be nil when the recompute pass is disabled.
func New(emailQueue EmailQueue, emailEngine EmailEngine, socialQueue SocialQueue, socialEngine SocialEngine, stats StatsRecomputer, clock campaign.Clock, interval time.Duration, lock distlock.DistLock) *Scheduler {
	if clock == nil {
		clock = campaign.SystemClock{}
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		emailQueue:   emailQueue,
		emailEngine:  emailEngine,
		socialQueue:  socialQueue,
		socialEngine: socialEngine,
		stats:        stats,
		clock:        clock,
		interval:     interval,
		lock:         lock,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.mu.Unlock()

	logger.Info("starting scheduler", "interval", s.interval.String())

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop halts the tick and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	logger.Info("stopping scheduler")
	close(s.stopCh)
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunTick(ctx)
		}
	}
}

// RunTick performs one scheduler cycle. Every due item is processed
// independently: a panic or error in one item is logged and the rest of
// the tick continues.
func (s *Scheduler) RunTick(ctx context.Context) {
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			logger.Error("scheduler lock error", "error", err.Error())
			return
		}
		if !ok {
			return
		}
		defer s.lock.Release(ctx)
	}

	now := s.clock.Now()

	s.processEmails(ctx, now)
	s.processPosts(ctx, now)

	if s.stats != nil {
		s.stats.RecomputeAll(ctx)
	}
}

func (s *Scheduler) processEmails(ctx context.Context, now time.Time) {
	due, err := s.emailQueue.ListDue(ctx, now)
	if err != nil {
		logger.Error("failed to list due email sends", "error", err.Error())
		return
	}

	for _, send := range due {
		s.processItem(fmt.Sprintf("email send %s", send.ID), func() error {
			return s.emailEngine.ProcessSend(ctx, send.ID)
		})
	}
}

func (s *Scheduler) processPosts(ctx context.Context, now time.Time) {
	due, err := s.socialQueue.ListDue(ctx, now)
	if err != nil {
		logger.Error("failed to list due social posts", "error", err.Error())
		return
	}

	for _, post := range due {
		s.processItem(fmt.Sprintf("social post %s", post.ID), func() error {
			return s.socialEngine.PublishPost(ctx, post.ID)
		})
	}
}

func (s *Scheduler) processItem(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic processing scheduled item", "item", name, "panic", fmt.Sprint(r))
		}
	}()

	if err := fn(); err != nil {
		logger.Error("failed to process scheduled item", "item", name, "error", err.Error())
	}
}
