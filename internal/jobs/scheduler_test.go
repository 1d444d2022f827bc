package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []*GenerateInsightsJob
	fail string
}

func (p *recordingPublisher) PublishGenerateInsights(_ context.Context, job *GenerateInsightsJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job.UserID == p.fail {
		return errors.New("queue full")
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

type countingPruner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingPruner) PruneExpired(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0, nil
}

func (c *countingPruner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestScheduler_Run(t *testing.T) {
	pub := &recordingPublisher{fail: "u-broken"}
	pruner := &countingPruner{}
	s := &Scheduler{
		Publisher:     pub,
		Pruner:        pruner,
		Users:         []string{"u1", "u-broken", "u2"},
		Interval:      20 * time.Millisecond,
		PruneInterval: 20 * time.Millisecond,
		Log:           zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return pub.count() >= 4 && pruner.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "u1", pub.jobs[0].UserID)
	assert.Equal(t, "u2", pub.jobs[1].UserID)
	assert.Equal(t, TriggerSchedule, pub.jobs[0].Trigger)
}

func TestScheduler_PruningDisabled(t *testing.T) {
	pruner := &countingPruner{}
	s := &Scheduler{
		Publisher: &recordingPublisher{},
		Pruner:    pruner,
		Interval:  time.Hour,
		Log:       zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Zero(t, pruner.count())
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad user")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}
