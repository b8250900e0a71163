package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"streamify/api/internal/chat"
	"streamify/api/internal/config"
	"streamify/api/internal/models"
)

// Upserter applies one identity record to the external mirror.
type Upserter interface {
	UpsertUser(ctx context.Context, user chat.User) error
}

// UserLister supplies the reconcile sweep with recently changed users.
type UserLister interface {
	ListUpdatedSince(ctx context.Context, cutoff time.Time) ([]models.User, error)
}

const reconcileWindow = 24 * time.Hour

type Worker struct {
	queue    *redis.Client
	cfg      config.SyncConfig
	identity Upserter
	users    UserLister
	log      zerolog.Logger
}

func NewWorker(queue *redis.Client, cfg config.SyncConfig, identity Upserter, users UserLister, log zerolog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		cfg:      cfg,
		identity: identity,
		users:    users,
		log:      log,
	}
}

// Run consumes the sync stream until ctx is cancelled. Entries whose handling
// fails stay pending and are re-claimed after the claim interval, giving
// failed mirror writes an at-least-once retry.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.read(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("sync stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.claimStalled(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("claim stalled sync entries failed")
			}
		default:
		}
	}
}

func (w *Worker) ensureGroup(ctx context.Context) error {
	err := w.queue.XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (w *Worker) read(ctx context.Context) error {
	result, err := w.queue.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.cfg.Group,
		Consumer: w.cfg.Consumer,
		Streams:  []string{w.cfg.Stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			w.process(ctx, msg)
		}
	}
	return nil
}

func (w *Worker) process(ctx context.Context, msg redis.XMessage) {
	if err := w.handle(ctx, msg); err != nil {
		w.log.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("identity sync failed, left pending")
		return
	}
	if err := w.queue.XAck(ctx, w.cfg.Stream, w.cfg.Group, msg.ID).Err(); err != nil {
		w.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func (w *Worker) handle(ctx context.Context, msg redis.XMessage) error {
	var task Task
	if err := mapstructure.Decode(msg.Values, &task); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}

	switch task.Type {
	case TaskUpsert:
		return w.identity.UpsertUser(ctx, chat.User{
			ID:    task.UserID,
			Name:  task.Name,
			Image: task.Image,
		})
	case TaskReconcile:
		return w.reconcile(ctx)
	default:
		w.log.Warn().Str("type", task.Type).Msg("unknown sync task type")
		return nil
	}
}

func (w *Worker) reconcile(ctx context.Context) error {
	users, err := w.users.ListUpdatedSince(ctx, time.Now().Add(-reconcileWindow))
	if err != nil {
		return fmt.Errorf("list updated users: %w", err)
	}

	for _, user := range users {
		err := w.identity.UpsertUser(ctx, chat.User{
			ID:    user.ID,
			Name:  user.FullName,
			Image: user.AvatarURL,
		})
		if err != nil {
			return fmt.Errorf("reconcile user %s: %w", user.ID, err)
		}
	}

	w.log.Info().Int("users", len(users)).Msg("identity mirror reconciled")
	return nil
}

func (w *Worker) claimStalled(ctx context.Context) error {
	pending, err := w.queue.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: w.cfg.Stream,
		Group:  w.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < w.cfg.ClaimInterval {
			continue
		}
		msgs, err := w.queue.XClaim(ctx, &redis.XClaimArgs{
			Stream:   w.cfg.Stream,
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			MinIdle:  w.cfg.ClaimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			w.log.Error().Err(err).Str("message_id", entry.ID).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			w.process(ctx, msg)
		}
	}
	return nil
}
