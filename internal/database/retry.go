package database

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/hdb-resale-go/internal/config"
)

// RetryPolicy defines retry behavior for failed connection attempts
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicy suits startup connections: a handful of attempts over
// a few seconds while a sidecar or compose dependency comes up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry runs op until it succeeds, the policy is exhausted or ctx is done.
// It returns the last error from op, or ctx.Err() if cancelled while waiting.
func Retry(ctx context.Context, name string, policy RetryPolicy, op func(context.Context) error) error {
	delay := policy.InitialDelay
	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 0 {
				logrus.WithFields(logrus.Fields{"operation": name, "attempts": attempt + 1}).Info("Operation succeeded after retry")
			}
			return nil
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := jitter(delay, policy.JitterEnabled)
		logrus.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"delay_ms":  wait.Milliseconds(),
			"error":     err.Error(),
		}).Warn("Operation failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}

// jitter spreads d by up to 25% either way.
func jitter(d time.Duration, enabled bool) time.Duration {
	if !enabled || d <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*0.25*(2*rand.Float64()-1))
}

// NewRedisConnectionWithRetry is NewRedisConnection retried under policy.
func NewRedisConnectionWithRetry(ctx context.Context, cfg config.RedisConfig, policy RetryPolicy) (*RedisClient, error) {
	var client *RedisClient
	err := Retry(ctx, "redis_connect", policy, func(context.Context) error {
		var err error
		client, err = NewRedisConnection(cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewPostgresConnectionWithRetry is NewPostgresConnection retried under policy.
func NewPostgresConnectionWithRetry(ctx context.Context, cfg config.DatabaseConfig, policy RetryPolicy) (*PostgresDB, error) {
	var db *PostgresDB
	err := Retry(ctx, "postgres_connect", policy, func(ctx context.Context) error {
		var err error
		db, err = NewPostgresConnection(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
