package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pruner deletes expired insights.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Scheduler periodically enqueues generation for a fixed set of users and
// prunes expired insights.
type Scheduler struct {
	Publisher     Publisher
	Pruner        Pruner
	Users         []string
	Interval      time.Duration
	PruneInterval time.Duration
	Log           zerolog.Logger
}

// Run enqueues one round immediately, then on every tick, until ctx ends.
// A zero PruneInterval or nil Pruner disables pruning.
func (s *Scheduler) Run(ctx context.Context) {
	s.enqueueAll(ctx)
	s.prune(ctx)

	genTicker := time.NewTicker(s.Interval)
	defer genTicker.Stop()

	var pruneC <-chan time.Time
	if s.Pruner != nil && s.PruneInterval > 0 {
		pruneTicker := time.NewTicker(s.PruneInterval)
		defer pruneTicker.Stop()
		pruneC = pruneTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-genTicker.C:
			s.enqueueAll(ctx)
		case <-pruneC:
			s.prune(ctx)
		}
	}
}

func (s *Scheduler) enqueueAll(ctx context.Context) {
	enqueued := 0
	for _, userID := range s.Users {
		if ctx.Err() != nil {
			return
		}
		job := &GenerateInsightsJob{UserID: userID, Trigger: TriggerSchedule}
		if err := s.Publisher.PublishGenerateInsights(ctx, job); err != nil {
			s.Log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue scheduled generation")
			continue
		}
		enqueued++
	}
	s.Log.Info().Int("enqueued", enqueued).Int("users", len(s.Users)).Msg("Scheduled insight generation")
}

func (s *Scheduler) prune(ctx context.Context) {
	if s.Pruner == nil || s.PruneInterval <= 0 {
		return
	}
	if _, err := s.Pruner.PruneExpired(ctx); err != nil {
		s.Log.Error().Err(err).Msg("Failed to prune expired insights")
	}
}
