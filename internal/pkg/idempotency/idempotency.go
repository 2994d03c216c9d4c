// Package idempotency guards at-least-once deliveries with a redis-backed
// processing state per key.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"        // caller owns the key
	StateInProgress State = "in_progress" // another worker owns the key
	StateCompleted  State = "completed"   // key finished successfully
)

func (s State) String() string {
	return string(s)
}

// Guard runs fn at most once per key while the completed state is retained.
type Guard interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Tracker implements Guard on redis. A failed run releases the key so the
// next delivery may retry it.
type Tracker struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable, prefix string) *Tracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &Tracker{client: client, prefix: prefix}
}

const (
	defaultLockDuration = 5 * time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress claim survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = d
	}
}

// WithStateTTL sets how long the completed marker is retained.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = d
	}
}

// Acquire claims key for the caller.
func (t *Tracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := t.prefix + key

	acquired, err := t.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateNone, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := t.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return t.Acquire(ctx, key, lockDuration)
	}
	if err != nil {
		return StateNone, err
	}

	switch State(result) {
	case StateInProgress:
		return StateInProgress, nil
	case StateCompleted:
		return StateCompleted, nil
	default:
		return StateNone, ErrInvalidState
	}
}

func (t *Tracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return t.client.Set(ctx, t.prefix+key, StateCompleted.String(), ttl).Err()
}

func (t *Tracker) Release(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}

func (t *Tracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		if relErr := t.Release(ctx, key); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}

	return t.MarkCompleted(ctx, key, o.stateTTL)
}

// Noop runs every call. It is used when redis is not configured.
type Noop struct{}

func (Noop) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...Option) error {
	return fn(ctx)
}
