// Package sync decouples the external identity mirror from the request path.
// Handlers enqueue pending upserts onto a redis stream after the primary write
// commits; a background worker drains the stream and applies the upserts,
// re-claiming entries that a crashed or stuck consumer left pending.
package sync

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"streamify/api/internal/chat"
)

const (
	TaskUpsert    = "upsert"
	TaskReconcile = "reconcile"
)

// Task is the wire form of one pending sync operation.
type Task struct {
	Type   string `mapstructure:"type"`
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
	Image  string `mapstructure:"image"`
}

type Outbox struct {
	queue  *redis.Client
	stream string
	log    zerolog.Logger
}

func NewOutbox(queue *redis.Client, stream string, log zerolog.Logger) *Outbox {
	return &Outbox{
		queue:  queue,
		stream: stream,
		log:    log,
	}
}

// EnqueueUpsert records a pending mirror update for user. Callers treat a
// failure as log-only: the primary write has already committed and must not be
// reported as failed.
func (o *Outbox) EnqueueUpsert(ctx context.Context, user chat.User) error {
	return o.enqueue(ctx, map[string]any{
		"type":    TaskUpsert,
		"user_id": user.ID,
		"name":    user.Name,
		"image":   user.Image,
	})
}

// EnqueueReconcile schedules a sweep that re-upserts every recently changed
// user, converging the mirror even if individual upserts were lost.
func (o *Outbox) EnqueueReconcile(ctx context.Context) error {
	return o.enqueue(ctx, map[string]any{
		"type": TaskReconcile,
	})
}

func (o *Outbox) enqueue(ctx context.Context, values map[string]any) error {
	_, err := o.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		Values: values,
	}).Result()
	return err
}
