package utils

import (
	"context"
	"sync"
	"time"

	"learnhub/logger"
	"learnhub/services"

	"github.com/robfig/cron/v3"
)

// ReconcileScheduler runs the reconciler on a cron schedule. Overlapping runs
// are skipped.
type ReconcileScheduler struct {
	cron       *cron.Cron
	reconciler *services.Reconciler
	log        *logger.Logger
	timeout    time.Duration

	mu      sync.Mutex
	running bool
}

func NewReconcileScheduler(reconciler *services.Reconciler, log *logger.Logger) *ReconcileScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileScheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		log:        log.With("component", "ReconcileScheduler"),
		timeout:    2 * time.Minute,
	}
}

// Start registers the job on spec and starts the cron loop
func (s *ReconcileScheduler) Start(spec string) error {
	s.log.Info("[RECONCILE-SCHEDULER] Initializing reconcile scheduler...", "spec", spec)

	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("[RECONCILE-SCHEDULER] Reconcile scheduler started", "spec", spec)
	return nil
}

// Stop waits for a running job to finish
func (s *ReconcileScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs a single pass unless one is already in flight
func (s *ReconcileScheduler) RunOnce(ctx context.Context) (services.ReconcileReport, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("[RECONCILE-SCHEDULER] Previous run still in progress, skipping")
		return services.ReconcileReport{}, false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.log.Error("[RECONCILE-SCHEDULER] Reconcile run finished with errors", "error", err,
			"retried", report.Retried, "scanned", report.CoursesScanned, "repaired", report.CoursesRepaired)
		return report, true
	}
	s.log.Info("[RECONCILE-SCHEDULER] Reconcile run complete",
		"retried", report.Retried, "scanned", report.CoursesScanned, "repaired", report.CoursesRepaired)
	return report, true
}
