package kv

import (
	"context"
	"time"
)

const maxConflictRetries = 20

// Retry runs fn until it returns something other than a write conflict.
// fn must open its own Write so every attempt starts from a fresh snapshot.
func Retry(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	for i := 0; ; i++ {
		err := fn()
		if err == nil || !IsConflict(err) || i >= maxConflictRetries {
			CommitDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			switch {
			case err == nil:
				LockRetries.WithLabelValues(op, "ok").Observe(float64(i))
			case IsConflict(err):
				LockRetries.WithLabelValues(op, "exhausted").Observe(float64(i))
				CommitFailures.WithLabelValues(op, classify(err)).Inc()
			default:
				LockRetries.WithLabelValues(op, "error").Observe(float64(i))
			}
			return err
		}

		log.Warn("write conflict, retrying", "op", op, "attempt", i+1)

		wait := 10 * time.Millisecond
		if i > 10 {
			wait = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			CommitFailures.WithLabelValues(op, "canceled").Inc()
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
