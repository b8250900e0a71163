package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"streamify/api/internal/sync"
)

// Scheduler periodically enqueues a reconcile sweep so the external identity
// mirror converges even when individual upserts were dropped.
type Scheduler struct {
	cron   *cron.Cron
	outbox *sync.Outbox
	spec   string
	log    zerolog.Logger
}

func NewScheduler(outbox *sync.Outbox, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		outbox: outbox,
		spec:   spec,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.enqueueReconcile); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.outbox.EnqueueReconcile(ctx); err != nil {
		s.log.Error().Err(err).Msg("enqueue reconcile failed")
	}
}
