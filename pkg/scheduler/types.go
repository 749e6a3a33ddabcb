package scheduler

import (
	"context"
)

// Job is a unit of work run by the pool, usually the launch or teardown of one asset.
type Job[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Name string
	Data T
	Err  error
}

// Future receives the single result of a submitted job.
type Future[T any] struct {
	name   string
	input  chan Result[T]
	cancel context.CancelFunc
}

func newFuture[T any](name string, input chan Result[T], cancel context.CancelFunc) *Future[T] {
	return &Future[T]{name: name, input: input, cancel: cancel}
}

func (f *Future[T]) Name() string {
	return f.name
}

func (f *Future[T]) C() <-chan Result[T] {
	return f.input
}

// Stop cancels the context of the job. The job still reports a result.
func (f *Future[T]) Stop() {
	f.cancel()
}

// Await blocks until the job reports or ctx is done, in which case the job is cancelled.
func (f *Future[T]) Await(ctx context.Context) Result[T] {
	select {
	case r := <-f.input:
		return r
	case <-ctx.Done():
		f.cancel()
		return Result[T]{Name: f.name, Err: ctx.Err()}
	}
}

// AwaitAll collects the results of futures in submission order.
func AwaitAll[T any](ctx context.Context, futures ...*Future[T]) []Result[T] {
	results := make([]Result[T], 0, len(futures))
	for _, f := range futures {
		results = append(results, f.Await(ctx))
	}
	return results
}
