// Package scheduler runs named jobs on a bounded pool of workers.
//
// The launcher CLI uses it to bring several assets up or down at once. Assets of
// different projects share no container, so their lifecycles can run concurrently;
// the pool only bounds how many compose invocations run at the same time.
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         Scheduler[T]                          │
//	│                                                               │
//	│   Submit(name, job) ──▶ submit ──▶ run() ──▶ pending queue    │
//	│                                      │                        │
//	│                                  dispatch()                   │
//	│                          while free > 0 && pending > 0        │
//	│                                      │                        │
//	│             ┌────────────────────────┼──────────────────┐     │
//	│             ▼                        ▼                  ▼     │
//	│         work(job 1)             work(job 2)   ...   work(job N)
//	│             │                        │                  │     │
//	│             └──────── released ──────┴──────────────────┘     │
//	│                          free++ then dispatch()               │
//	└───────────────────────────────────────────────────────────────┘
//
// # Futures
//
// Submit returns a Future right away. It receives exactly one Result, carrying the
// job name, the value and the error of the job:
//
//	up := s.Submit("auth_base", func(ctx context.Context) (string, error) {
//		return "auth_base", helper.Launch(ctx)
//	})
//	res := up.Await(ctx)
//
// AwaitAll collects several futures in submission order.
//
// # Cancellation
//
// Every job runs with a context derived from the scheduler context:
//
//   - Future.Stop() cancels one job
//   - Future.Await() cancels the job when the caller context is done
//   - Scheduler.Close() cancels every job
//
// # Shutdown
//
// Close is idempotent. It cancels the scheduler context, answers context.Canceled to
// the jobs still pending, waits for the running jobs to return and stops the event
// loop. A panicking job is reported as an error result and frees its worker.
package scheduler
