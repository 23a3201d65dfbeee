package scheduler

import (
	"context"
	"sync"
	"time"

	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/services/syncer"

	"github.com/robfig/cron/v3"
)

// RemoteSyncer is the orchestrator operation the schedule drives.
type RemoteSyncer interface {
	SyncRemote(ctx context.Context, kind models.EntityKind, limit int) (*syncer.BatchResult, error)
}

type ScheduledTask struct {
	cronID cron.EntryID
	cron   *cron.Cron
	cancel chan struct{}
}

func NewScheduledTask(cronSpec string, taskFunc func()) (*ScheduledTask, error) {
	c := cron.New()
	cancel := make(chan struct{})
	task := &ScheduledTask{
		cron:   c,
		cancel: cancel,
	}

	id, err := c.AddFunc(cronSpec, func() {
		select {
		case <-cancel:
			return
		default:
			taskFunc()
		}
	})
	if err != nil {
		return nil, err
	}

	task.cronID = id
	c.Start()
	return task, nil
}

// Cancel stops future runs and waits for a running one to finish.
func (s *ScheduledTask) Cancel() {
	s.cron.Remove(s.cronID)
	close(s.cancel)
	<-s.cron.Stop().Done()
}

// RemoteSync pulls every mirrored kind from Shopify on a cron schedule.
// Overlapping runs are skipped.
type RemoteSync struct {
	syncer  RemoteSyncer
	logger  *logger.Logger
	limit   int
	timeout time.Duration
	running sync.Mutex
}

func NewRemoteSync(s RemoteSyncer, logger *logger.Logger, limit int, timeout time.Duration) *RemoteSync {
	return &RemoteSync{syncer: s, logger: logger, limit: limit, timeout: timeout}
}

// Schedule starts the job. spec is a standard five-field cron expression or a
// descriptor such as "@every 15m".
func (r *RemoteSync) Schedule(spec string) (*ScheduledTask, error) {
	return NewScheduledTask(spec, func() { r.Run(context.Background()) })
}

// Run syncs every kind once. Failures of one kind do not stop the others.
func (r *RemoteSync) Run(ctx context.Context) []*syncer.BatchResult {
	if !r.running.TryLock() {
		r.logger.Warn("Previous scheduled sync still running, skipping")
		return nil
	}
	defer r.running.Unlock()

	var results []*syncer.BatchResult
	for _, kind := range models.Kinds {
		runCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := r.syncer.SyncRemote(runCtx, kind, r.limit)
		cancel()
		if err != nil {
			r.logger.Error("Scheduled sync of %s failed: %v", kind, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
