// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"hearth/internal/models"
	"hearth/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStoreTimeout = 2 * time.Second
	DefaultMaxRetries   = 8
)

// StoreOptions tunes every Redis-backed repository.
type StoreOptions struct {
	// Timeout bounds each store call, including all retries of a transaction.
	Timeout time.Duration
	// MaxRetries bounds WATCH/MULTI attempts before ErrConcurrentUpdate.
	MaxRetries int
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultStoreTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

// store is the shared plumbing behind the Redis repositories.
type store struct {
	rdb      *redis.Client
	opts     StoreOptions
	keyspace string
	log      *observability.RepoLogger
}

func newStore(rdb *redis.Client, keyspace string, opts StoreOptions) store {
	return store{
		rdb:      rdb,
		opts:     opts.withDefaults(),
		keyspace: keyspace,
		log:      observability.NewRepoLogger(keyspace),
	}
}

// run executes fn under the store timeout and a span. Any error that is not
// already an *models.AppError is reported as StoreUnavailable.
func (s store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	ctx, span := observability.StartStoreSpan(ctx, s.keyspace, op)

	err := fn(ctx)
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			s.log.LogError(ctx, err, op)
			err = models.NewStoreUnavailableError(err)
		}
	}
	observability.EndSpan(span, err)
	return err
}

// watch runs fn as an optimistic transaction over keys. fn must re-check its
// preconditions through tx and queue writes with tx.TxPipelined. A transaction
// aborted by a concurrent write to a watched key is retried from the top.
func (s store) watch(ctx context.Context, op string, fn func(ctx context.Context, tx *redis.Tx) error, keys ...string) error {
	return s.run(ctx, op, func(ctx context.Context) error {
		txf := func(tx *redis.Tx) error { return fn(ctx, tx) }
		for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
			err := s.rdb.Watch(ctx, txf, keys...)
			if !errors.Is(err, redis.TxFailedErr) {
				return err
			}
			observability.TransactionRetries.WithLabelValues(op).Inc()
			s.log.LogRetry(ctx, op, attempt)
		}
		return models.ErrConcurrentUpdate
	})
}
