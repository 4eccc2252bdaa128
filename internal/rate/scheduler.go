package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRefreshCron = "0 0 * * *"
	refreshLockKey     = "cbrates:refresh"
	defaultJobTimeout  = 2 * time.Minute
)

type refresher interface {
	Refresh(ctx context.Context) (SyncResult, error)
}

// Scheduler triggers the daily refresh. Runs never overlap; a run that fails is
// logged and the next tick tries again.
type Scheduler struct {
	engine     refresher
	locker     adapters.JobLocker
	metrics    *metrics.SyncMetrics
	cron       string
	jobTimeout time.Duration
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		if runErr := s.RunOnce(jobCtx); runErr != nil {
			logrus.WithError(runErr).Error("Scheduled rate refresh failed, last known rates are still served")
		}
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(job),
		gocron.WithName("refresh-rates"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule refresh job with cron %q: %w", s.cron, err)
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// RunOnce performs a single guarded refresh. Another instance holding the lock is not an error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	execID := uuid.NewString()
	log := logrus.WithField("exec_id", execID)

	runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	unlock, err := s.locker.TryLock(runCtx, refreshLockKey)
	if err != nil {
		if errors.Is(err, adapters.ErrLockNotAcquired) {
			log.Info("Rate refresh is running elsewhere, skipping this tick")
			s.metrics.ObserveSkipped(OperationRefresh)
			return nil
		}
		return fmt.Errorf("failed to acquire refresh lock; execID %s: %w", execID, err)
	}
	defer func() {
		if unlockErr := unlock(context.Background()); unlockErr != nil {
			log.WithError(unlockErr).Warn("Failed to release refresh lock")
		}
	}()

	log.Info("Starting rate refresh")
	res, err := s.engine.Refresh(runCtx)
	if err != nil {
		return fmt.Errorf("rate refresh failed; execID %s: %w", execID, err)
	}
	log.Infof("%d rates refreshed, %d created", res.Updated+res.Unchanged, res.Created)
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

func NewScheduler(engine refresher, locker adapters.JobLocker, syncMetrics *metrics.SyncMetrics, cron string, jobTimeout time.Duration) *Scheduler {
	if locker == nil {
		locker = adapters.NoopLocker{}
	}
	if syncMetrics == nil {
		syncMetrics = metrics.NewSyncMetrics(prometheus.NewRegistry())
	}
	if cron == "" {
		cron = DefaultRefreshCron
	}
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &Scheduler{
		engine:     engine,
		locker:     locker,
		metrics:    syncMetrics,
		cron:       cron,
		jobTimeout: jobTimeout,
	}
}
