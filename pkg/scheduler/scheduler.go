package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type queue[T any] []T

func (q *queue[T]) Len() int { return len(*q) }

func (q *queue[T]) Pop() T {
	old := *q
	x := old[0]
	*q = old[1:]
	return x
}

func (q *queue[T]) Push(t T) {
	*q = append(*q, t)
}

type submission[T any] struct {
	name string
	job  Job[T]
	c    chan Result[T]
	ctx  context.Context
}

func (s submission[T]) cancelled() {
	s.c <- Result[T]{Name: s.name, Err: context.Canceled}
}

// Scheduler runs jobs on a fixed number of workers.
type Scheduler[T any] struct {
	free     int
	pending  *queue[submission[T]]
	submit   chan submission[T]
	released chan struct{}
	closing  chan struct{}
	stopped  chan struct{}
	mainCtx  context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
	log      *zap.SugaredLogger
}

func New[T any](workers int) *Scheduler[T] {
	workers = max(workers, 1)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler[T]{
		free:     workers,
		pending:  &queue[submission[T]]{},
		submit:   make(chan submission[T]),
		released: make(chan struct{}, workers),
		closing:  make(chan struct{}),
		stopped:  make(chan struct{}),
		mainCtx:  ctx,
		cancel:   cancel,
		log:      zap.S().Named("scheduler"),
	}
	go s.run()
	return s
}

// Submit queues job under name. Once the scheduler is closed, the future reports
// context.Canceled right away.
func (s *Scheduler[T]) Submit(name string, job Job[T]) *Future[T] {
	c := make(chan Result[T], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)
	sub := submission[T]{name: name, job: job, c: c, ctx: ctx}

	select {
	case <-s.mainCtx.Done():
		sub.cancelled()
	case s.submit <- sub:
	}

	return newFuture(name, c, cancel)
}

// Close cancels every job, waits for running ones to return and stops the scheduler.
func (s *Scheduler[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		close(s.closing)
		<-s.stopped
	})
}

func (s *Scheduler[T]) run() {
	defer close(s.stopped)
	for {
		select {
		case sub := <-s.submit:
			s.pending.Push(sub)
			s.dispatch()
		case <-s.released:
			s.free++
			s.dispatch()
		case <-s.closing:
			for s.pending.Len() > 0 {
				s.pending.Pop().cancelled()
			}
			s.wg.Wait()
			return
		}
	}
}

// dispatch starts as many pending jobs as there are free workers
func (s *Scheduler[T]) dispatch() {
	for s.free > 0 && s.pending.Len() > 0 {
		sub := s.pending.Pop()
		s.free--
		s.wg.Add(1)
		go s.work(sub)
	}
}

func (s *Scheduler[T]) work(sub submission[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Errorw("job panicked", "job", sub.name, "panic", rec)
			sub.c <- Result[T]{Name: sub.name, Err: fmt.Errorf("job %s panicked: %v", sub.name, rec)}
		}
		s.released <- struct{}{}
		s.wg.Done()
	}()

	s.log.Debugw("job started", "job", sub.name)
	v, err := sub.job(sub.ctx)
	sub.c <- Result[T]{Name: sub.name, Data: v, Err: err}
}
