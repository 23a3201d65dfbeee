package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/services/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mu    sync.Mutex
	kinds []models.EntityKind
	fail    models.EntityKind
	started chan struct{}
	block   chan struct{}
}

func (f *fakeSyncer) SyncRemote(ctx context.Context, kind models.EntityKind, limit int) (*syncer.BatchResult, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.mu.Unlock()
	if kind == f.fail {
		return nil, errors.New("shopify unavailable")
	}
	return &syncer.BatchResult{Kind: kind, Total: limit}, nil
}

func TestRunSyncsEveryKind(t *testing.T) {
	fake := &fakeSyncer{fail: models.KindOrder}
	job := NewRemoteSync(fake, logger.Discard(), 25, time.Second)

	results := job.Run(context.Background())

	assert.Equal(t, models.Kinds, fake.kinds)
	require.Len(t, results, len(models.Kinds)-1)
	assert.Equal(t, 25, results[0].Total)
}

func TestRunSkipsOverlappingRuns(t *testing.T) {
	fake := &fakeSyncer{started: make(chan struct{}, 1), block: make(chan struct{})}
	job := NewRemoteSync(fake, logger.Discard(), 10, time.Second)

	done := make(chan struct{})
	go func() {
		job.Run(context.Background())
		close(done)
	}()

	select {
	case <-fake.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run never started")
	}
	assert.Nil(t, job.Run(context.Background()))

	close(fake.block)
	<-done
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	job := NewRemoteSync(&fakeSyncer{}, logger.Discard(), 10, time.Second)

	_, err := job.Schedule("not a cron spec")
	assert.Error(t, err)

	task, err := job.Schedule("@every 1h")
	require.NoError(t, err)
	task.Cancel()
}
