// Package until polls a function until it reports success.
//
// Every helper runs fn once per attempt, spaced by a constant interval. Attempts are
// bounded either by a number of tries (default 1) or, when a timeout is given, by the
// elapsed time. Once attempts are exhausted a NoMoreTriesError is returned.
//
//	err := until.True(ctx, client.IsUp, until.Timeout(30*time.Second), until.Message("auth is down"))
package until

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
)

type options struct {
	tries    uint
	timeout  time.Duration
	interval time.Duration
	message  string
}

type Option func(*options)

// Tries bounds the number of attempts. Ignored when a timeout is set.
func Tries(n uint) Option {
	return func(o *options) { o.tries = n }
}

func Timeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func Interval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// Message replaces the error message returned once attempts are exhausted.
func Message(m string) Option {
	return func(o *options) { o.message = m }
}

var errNotYet = errors.New("condition not met")

// True waits until fn returns true.
func True(ctx context.Context, fn func() bool, opts ...Option) error {
	o := newOptions(opts)
	_, err := retry(ctx, o, func() (struct{}, error) {
		if fn() {
			return struct{}{}, nil
		}
		return struct{}{}, errNotYet
	})
	return exhausted(ctx, err, o.message)
}

// False waits until fn returns false.
func False(ctx context.Context, fn func() bool, opts ...Option) error {
	return True(ctx, func() bool { return !fn() }, opts...)
}

// Assert waits until fn returns no error. Without a message, the returned error
// lists the failure of every attempt.
func Assert(ctx context.Context, fn func() error, opts ...Option) error {
	o := newOptions(opts)
	var failures []string
	_, err := retry(ctx, o, func() (struct{}, error) {
		if err := fn(); err != nil {
			failures = append(failures, err.Error())
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err == nil || o.message != "" {
		return exhausted(ctx, err, o.message)
	}
	return exhausted(ctx, err, strings.Join(failures, "\n"))
}

// Return waits until fn returns no error and hands back its value.
func Return[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	o := newOptions(opts)
	v, err := retry(ctx, o, func() (T, error) {
		v, err := fn()
		if err != nil {
			zap.S().Named("until").Debugw("waiting for function to return", "error", err)
		}
		return v, err
	})
	if err != nil {
		var zero T
		return zero, exhausted(ctx, err, o.message)
	}
	return v, nil
}

func newOptions(opts []Option) options {
	o := options{tries: 1, interval: time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func retry[T any](ctx context.Context, o options, op backoff.Operation[T]) (T, error) {
	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(o.interval)),
	}
	if o.timeout > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(o.timeout))
	} else {
		retryOpts = append(retryOpts, backoff.WithMaxTries(max(o.tries, 1)), backoff.WithMaxElapsedTime(0))
	}
	return backoff.Retry(ctx, op, retryOpts...)
}

func exhausted(ctx context.Context, err error, message string) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return srvErrors.NewNoMoreTriesError(message)
}
