package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/ports"
)

const flushBatchSize = 20

// Flusher replays queued completion writes against the live store.
//
// Entries are acknowledged only after the store accepts them; repeated
// failures increment the attempt counter, and entries past MaxAttempts
// are dropped with an error log rather than retried forever.
type Flusher struct {
	Store       ports.OrderStore
	Outbox      ports.Outbox
	Interval    time.Duration
	MaxAttempts int
}

// Run drains the outbox on an interval until ctx is cancelled.
func (f *Flusher) Run(ctx context.Context) {
	interval := f.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := f.FlushOnce(ctx); err != nil {
				logrus.WithError(err).Warn("outbox flush failed")
			} else if n > 0 {
				logrus.WithField("replayed", n).Info("outbox entries replayed")
			}
		}
	}
}

// FlushOnce replays up to one batch of pending entries.
// Returns the number of entries acknowledged.
func (f *Flusher) FlushOnce(ctx context.Context) (int, error) {
	if f.Store == nil || f.Outbox == nil {
		return 0, nil
	}

	entries, err := f.Outbox.Pending(ctx, flushBatchSize)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, entry := range entries {
		if err := f.Store.CompleteDelivery(ctx, entry.Record); err != nil {
			maxAttempts := f.MaxAttempts
			if maxAttempts <= 0 {
				maxAttempts = 10
			}

			if entry.Attempts+1 >= maxAttempts {
				logrus.WithFields(logrus.Fields{
					"entry_id": entry.ID,
					"order_id": entry.Record.OrderID,
					"attempts": entry.Attempts + 1,
				}).Error("outbox entry exceeded retry budget, dropping")
				if ackErr := f.Outbox.Ack(ctx, entry.ID); ackErr != nil {
					logrus.WithError(ackErr).Warn("outbox drop failed")
				}
				continue
			}

			if failErr := f.Outbox.Fail(ctx, entry.ID); failErr != nil {
				logrus.WithError(failErr).Warn("outbox attempt update failed")
			}
			// The store is likely unreachable; stop the batch early.
			return replayed, nil
		}

		if err := f.Outbox.Ack(ctx, entry.ID); err != nil {
			logrus.WithError(err).WithField("entry_id", entry.ID).Warn("outbox ack failed")
			continue
		}
		replayed++
	}

	return replayed, nil
}
